package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-appinsights/components/tabular"
)

func TestComputeMetricsInspectsTwentyMostRecentLogs(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	logs := make([]tabular.Record, 0, 25)
	for i := 0; i < 20; i++ {
		logs = append(logs, tabular.Record{"ChatAnalysisStatus": "iterating"})
	}
	for i := 0; i < 5; i++ {
		logs = append(logs, tabular.Record{"ChatAnalysisStatus": "abandonment_risk"})
	}
	logs[3]["ChatAnalysisStatus"] = "completely_lost"

	m := ComputeMetrics(nil, nil, logs, now, NewStatusMapper())
	assert.Equal(t, 1, m.CriticalIssues)
}

func TestComputeMetricsActiveSessionsWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	apps := []tabular.Record{
		{"LastMessageAt": now.Add(-time.Hour).Format(time.RFC3339)},
		{"LastMessageAt": now.Add(-24 * time.Hour).Format(time.RFC3339)},
		{"LastMessageAt": now.Add(-23*time.Hour - 59*time.Minute)},
		{"LastMessageAt": "not a date"},
		{},
	}

	m := ComputeMetrics([]tabular.Record{{}, {}}, apps, nil, now, nil)
	assert.Equal(t, Metrics{TotalUsers: 2, TotalApps: 5, ActiveSessions: 2}, m)
	cards := m.Cards()
	require.Len(t, cards, 4)
	assert.Equal(t, "Active Sessions", cards[3].Title)
	assert.Equal(t, 2, cards[3].Value)
}

func TestComputeBreakdownOmitsEmptyCategories(t *testing.T) {
	logs := []tabular.Record{
		{"ChatAnalysisStatus": "debugging"},
		{"ChatAnalysisStatus": "unmapped"},
		{"ChatAnalysisStatus": "goal_achieved"},
		{"ChatAnalysisStatus": "performance_issues"},
	}

	counts := ComputeBreakdown(logs, NewStatusMapper())
	assert.Equal(t, []CategoryCount{
		{Category: CategoryPositive, Label: "Positive", Color: "#10b981", Count: 1},
		{Category: CategoryTechnical, Label: "Technical", Color: "#7c3aed", Count: 2},
		{Category: CategoryDefault, Label: "Default", Color: defaultCategoryColor, Count: 1},
	}, counts)
	assert.Empty(t, ComputeBreakdown(nil, nil))
}

func TestComputeDailyAnalysisWithoutComplexity(t *testing.T) {
	summary := ComputeDailyAnalysis([]tabular.Record{{"Severity": "HIGH"}, {"Severity": "LOW"}})
	assert.Equal(t, DailyAnalysis{AppsAnalyzed: 2, CriticalIssues: 1}, summary)
}

func TestComputeSalesBreakdownAcceptsLabels(t *testing.T) {
	counts := ComputeSalesBreakdown([]tabular.Record{
		{"SalesStatus": "Negotiating"},
		{"SalesStatus": "negotiating"},
		{"SalesStatus": "bogus"},
	})
	for _, c := range counts {
		want := 0
		if c.Status == "negotiating" {
			want = 2
		}
		assert.Equal(t, want, c.Count, fmt.Sprintf("status %s", c.Status))
	}
}

func TestComputeActivityTrendSentimentAverage(t *testing.T) {
	now := time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)
	logs := []tabular.Record{
		{"CreatedAt": "2024-05-03T01:00:00Z", "SentimentScore": 0.5},
		{"CreatedAt": "2024-05-03T02:00:00Z", "SentimentScore": -0.1},
		{"CreatedAt": "2024-05-01T02:00:00Z", "SentimentScore": 1.0},
		{"CreatedAt": "2024-04-20T02:00:00Z", "SentimentScore": 1.0},
	}

	points, err := ComputeActivityTrend(logs, TrendQuery{Metric: TrendSentiment, Days: 3}, now, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 1.0, points[0].Value, 1e-9)
	assert.InDelta(t, 0.0, points[1].Value, 1e-9)
	assert.InDelta(t, 0.2, points[2].Value, 1e-9)

	points, err = ComputeActivityTrend(nil, TrendQuery{Metric: TrendLogs}, now, nil)
	require.NoError(t, err)
	assert.Len(t, points, defaultTrendDays)
}

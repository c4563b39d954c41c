package dashboard

import (
	"fmt"
	"time"

	"github.com/goliatone/go-appinsights/components/tabular"
)

const (
	criticalWindow     = 20
	activeSessionSpan  = 24 * time.Hour
	blockedWorkflow    = "BLOCKED"
	highSeverity       = "HIGH"
	defaultRecentLimit = 10
)

// Metrics are the headline numbers of the dashboard.
type Metrics struct {
	TotalUsers     int `json:"total_users"`
	TotalApps      int `json:"total_apps"`
	CriticalIssues int `json:"critical_issues"`
	ActiveSessions int `json:"active_sessions"`
}

// MetricCard is a display-ready metric.
type MetricCard struct {
	Title string `json:"title"`
	Value int    `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Cards renders the metrics in display order.
func (m Metrics) Cards() []MetricCard {
	return []MetricCard{
		{Title: "Total Users", Value: m.TotalUsers, Icon: "users", Color: "blue"},
		{Title: "Total Apps", Value: m.TotalApps, Icon: "grid", Color: "green"},
		{Title: "Critical Issues", Value: m.CriticalIssues, Icon: "alert-triangle", Color: "red"},
		{Title: "Active Sessions", Value: m.ActiveSessions, Icon: "activity", Color: "purple"},
	}
}

// ComputeMetrics derives the headline metrics. recentLogs must already be
// ordered newest first; only the first 20 are inspected.
func ComputeMetrics(users, apps, recentLogs []tabular.Record, now time.Time, mapper *StatusMapper) Metrics {
	m := Metrics{TotalUsers: len(users), TotalApps: len(apps)}
	for i, log := range recentLogs {
		if i >= criticalWindow {
			break
		}
		if mapper.ChatCategory(log.String("ChatAnalysisStatus")) == CategoryCritical {
			m.CriticalIssues++
		}
	}
	for _, app := range apps {
		if isActiveSession(app, now) {
			m.ActiveSessions++
		}
	}
	return m
}

func isActiveSession(app tabular.Record, now time.Time) bool {
	ts, ok := parseRecordTime(app["LastMessageAt"])
	if !ok {
		return false
	}
	return now.Sub(ts) < activeSessionSpan
}

// CategoryCount is one slice of the status breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Count    int    `json:"count"`
}

// ComputeBreakdown counts logs per chat category in canonical order, omitting
// empty categories. Unknown statuses are counted under CategoryDefault last.
func ComputeBreakdown(logs []tabular.Record, mapper *StatusMapper) []CategoryCount {
	counts := map[string]int{}
	for _, log := range logs {
		counts[mapper.ChatCategory(log.String("ChatAnalysisStatus"))]++
	}
	var out []CategoryCount
	order := append(categoryNames(), CategoryDefault)
	for _, name := range order {
		n := counts[name]
		if n == 0 {
			continue
		}
		out = append(out, CategoryCount{
			Category: name,
			Label:    HumanizeStatus(name),
			Color:    CategoryColor(name),
			Count:    n,
		})
	}
	return out
}

func categoryNames() []string {
	out := make([]string, 0, len(chatCategories))
	for _, c := range chatCategories {
		out = append(out, c.Name)
	}
	return out
}

// DailyAnalysis summarizes the per-app AI analysis of the apps in view.
type DailyAnalysis struct {
	AppsAnalyzed           int     `json:"apps_analyzed"`
	CriticalIssues         int     `json:"critical_issues"`
	BlockedUsers           int     `json:"blocked_users"`
	AvgTechnicalComplexity float64 `json:"avg_technical_complexity"`
}

// ComputeDailyAnalysis aggregates severity, workflow impact and complexity.
func ComputeDailyAnalysis(apps []tabular.Record) DailyAnalysis {
	out := DailyAnalysis{AppsAnalyzed: len(apps)}
	var sum float64
	var rated int
	for _, app := range apps {
		if app.String("Severity") == highSeverity {
			out.CriticalIssues++
		}
		if app.String("UserWorkflowImpact") == blockedWorkflow {
			out.BlockedUsers++
		}
		if v, ok := numberValue(app["TechnicalComplexity"]); ok {
			sum += v
			rated++
		}
	}
	if rated > 0 {
		out.AvgTechnicalComplexity = sum / float64(rated)
	}
	return out
}

func parseRecordTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.DateOnly, val); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}

// SalesCount is the number of apps at one pipeline stage.
type SalesCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// ComputeSalesBreakdown counts apps per pipeline stage in pipeline order.
// Apps without a recognized SalesStatus are not counted.
func ComputeSalesBreakdown(apps []tabular.Record) []SalesCount {
	counts := map[string]int{}
	for _, app := range apps {
		if value, ok := NormalizeSalesStatus(app.String("SalesStatus")); ok {
			counts[value]++
		}
	}
	pipeline := SalesPipeline()
	out := make([]SalesCount, 0, len(pipeline))
	for _, opt := range pipeline {
		out = append(out, SalesCount{Status: opt.Value, Label: opt.Label, Count: counts[opt.Value]})
	}
	return out
}

const defaultTrendDays = 7

// ComputeActivityTrend buckets logs per UTC day over the days ending at now.
// Days without logs are present with a zero value.
func ComputeActivityTrend(logs []tabular.Record, q TrendQuery, now time.Time, mapper *StatusMapper) ([]TrendPoint, error) {
	switch q.Metric {
	case TrendLogs, TrendCritical, TrendSentiment:
	default:
		return nil, fmt.Errorf("%w: unknown trend metric %q", ErrInvalidQuery, q.Metric)
	}
	days := q.Days
	if days <= 0 {
		days = defaultTrendDays
	}
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))
	sums := make([]float64, days)
	counts := make([]int, days)
	for _, log := range logs {
		at, ok := parseRecordTime(log["CreatedAt"])
		if !ok {
			continue
		}
		idx := int(at.UTC().Truncate(24*time.Hour).Sub(first) / (24 * time.Hour))
		if idx < 0 || idx >= days {
			continue
		}
		switch q.Metric {
		case TrendLogs:
			sums[idx]++
		case TrendCritical:
			if mapper.ChatCategory(log.String("ChatAnalysisStatus")) == CategoryCritical {
				sums[idx]++
			}
		case TrendSentiment:
			if score, ok := numberValue(log["SentimentScore"]); ok {
				sums[idx] += score
				counts[idx]++
			}
		}
	}
	out := make([]TrendPoint, days)
	for i := range out {
		value := sums[i]
		if q.Metric == TrendSentiment && counts[i] > 0 {
			value /= float64(counts[i])
		}
		out[i] = TrendPoint{Day: first.AddDate(0, 0, i), Value: value}
	}
	return out, nil
}

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendChartProviderBuildsSeries(t *testing.T) {
	source := &stubTrendSource{}
	provider := NewTrendChartProvider(source, NewEChartsProvider("line", WithChartCache(nil)))
	cfg := map[string]any{
		"days":              3,
		"metric":            "logs",
		"comparison_metric": "critical",
	}

	data, err := provider.Fetch(context.Background(), WidgetContext{
		Definition:    WidgetDefinition{Code: WidgetActivityTrend},
		Viewer:        ViewerContext{UserID: "tester"},
		Configuration: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, "line", data["chart_type"])
	assert.Equal(t, "Last 3 days", data["subtitle"])
	assert.Equal(t, []string{"logs", "critical"}, source.metrics)

	markup := html(data)
	assert.Contains(t, markup, "logs")
	assert.Contains(t, markup, "critical")
	assert.Contains(t, markup, "jan 1")
}

func TestTrendChartProviderPropagatesErrors(t *testing.T) {
	provider := NewTrendChartProvider(&stubTrendSource{err: errors.New("logs offline")}, nil)

	_, err := provider.Fetch(context.Background(), WidgetContext{Definition: WidgetDefinition{Code: WidgetActivityTrend}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logs offline")
}

type stubTrendSource struct {
	metrics []string
	err     error
}

func (s *stubTrendSource) ActivityTrend(_ context.Context, query TrendQuery) ([]TrendPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.metrics = append(s.metrics, query.Metric)
	points := make([]TrendPoint, query.Days)
	for i := range points {
		points[i] = TrendPoint{
			Day:   time.Date(2024, time.January, i+1, 0, 0, 0, 0, time.UTC),
			Value: float64(10 + i),
		}
	}
	return points, nil
}

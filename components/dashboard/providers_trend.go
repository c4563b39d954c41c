package dashboard

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ettle/strcase"
)

// Trend metrics understood by ActivityTrend.
const (
	TrendLogs      = "logs"
	TrendCritical  = "critical"
	TrendSentiment = "sentiment"
)

// TrendPoint is one day of a trend series.
type TrendPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}

// TrendQuery selects the metric and window of a trend series.
type TrendQuery struct {
	Metric string
	Days   int
}

// TrendSource computes daily series over the analysis logs.
type TrendSource interface {
	ActivityTrend(ctx context.Context, query TrendQuery) ([]TrendPoint, error)
}

// TrendChartProvider renders one or two daily log series as a line chart.
type TrendChartProvider struct {
	source   TrendSource
	renderer *EChartsProvider
}

// NewTrendChartProvider builds a provider backed by the given source.
func NewTrendChartProvider(source TrendSource, renderer *EChartsProvider) Provider {
	if renderer == nil {
		renderer = NewEChartsProvider("line")
	}
	return &TrendChartProvider{
		source:   source,
		renderer: renderer,
	}
}

// Fetch renders the trend widget.
func (p *TrendChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	if p.source == nil {
		return nil, fmt.Errorf("trend chart provider: source is required")
	}

	cfg := meta.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}

	days := intValue(cfg["days"], 7)
	metric := strings.ToLower(stringValue(cfg["metric"], TrendLogs))
	comparison := strings.ToLower(stringValue(cfg["comparison_metric"], ""))

	points, err := p.source.ActivityTrend(ctx, TrendQuery{Metric: metric, Days: days})
	if err != nil {
		return nil, fmt.Errorf("trend chart provider: %w", err)
	}

	series := []ChartSeries{{Name: titleize(metric), Points: trendPoints(points)}}
	xAxis := axisLabels(points)

	if comparison != "" && comparison != metric {
		altPoints, altErr := p.source.ActivityTrend(ctx, TrendQuery{Metric: comparison, Days: days})
		if altErr != nil {
			return nil, fmt.Errorf("trend chart comparison: %w", altErr)
		}
		series = append(series, ChartSeries{Name: titleize(comparison), Points: trendPoints(altPoints)})
		if len(altPoints) > len(points) {
			xAxis = axisLabels(altPoints)
		}
	}

	spec := chartSpec{
		Title:    html.EscapeString(stringValue(cfg["title"], "Chat Activity")),
		Subtitle: fmt.Sprintf("Last %d days", days),
		Theme:    p.renderer.resolveTheme(meta.Viewer),
		XAxis:    xAxis,
		Series:   series,
	}
	data, err := p.renderer.renderData(meta.Definition.Code, spec)
	if err != nil {
		return nil, err
	}
	data["source"] = map[string]any{
		"metric":     metric,
		"comparison": comparison,
		"days":       days,
	}
	return data, nil
}

func trendPoints(points []TrendPoint) []ChartPoint {
	out := make([]ChartPoint, len(points))
	for i, point := range points {
		out[i] = ChartPoint{Label: point.Day.Format("Jan 2"), Value: point.Value}
	}
	return out
}

func axisLabels(points []TrendPoint) []string {
	labels := make([]string, len(points))
	for i, point := range points {
		labels[i] = point.Day.Format("Jan 2")
	}
	return labels
}

func titleize(value string) string {
	if value == "" {
		return value
	}
	return strcase.ToCase(value, strcase.TitleCase, ' ')
}

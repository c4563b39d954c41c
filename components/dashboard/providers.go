package dashboard

import (
	"context"
	"fmt"
	"html"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// Default widget codes.
const (
	WidgetMetrics        = "insights.widget.metrics"
	WidgetStatusChart    = "insights.widget.status_chart"
	WidgetRecentActivity = "insights.widget.recent_activity"
	WidgetDailyAnalysis  = "insights.widget.daily_analysis"
	WidgetSalesPipeline  = "insights.widget.sales_pipeline"
	WidgetActivityTrend  = "insights.widget.activity_trend"
)

// WidgetSource is everything the default providers read from.
type WidgetSource interface {
	BreakdownSource
	TrendSource
	ActivityFeed
	Metrics(ctx context.Context) (Metrics, error)
	DailyAnalysis(ctx context.Context, q tabular.Query) (DailyAnalysis, error)
	SalesBreakdown(ctx context.Context) ([]SalesCount, error)
}

// DefaultWidgetDefinitions lists the built-in dashboard widgets.
func DefaultWidgetDefinitions() []WidgetDefinition {
	return []WidgetDefinition{
		{Code: WidgetMetrics, Name: "Key Metrics", Category: "summary", Position: 10},
		{Code: WidgetStatusChart, Name: "Status Distribution", Category: "charts", Position: 20,
			Configuration: map[string]any{"title": "Status Distribution"}},
		{Code: WidgetActivityTrend, Name: "Chat Activity", Category: "charts", Position: 25,
			Configuration: map[string]any{"title": "Chat Activity", "days": 7, "metric": TrendLogs, "comparison_metric": TrendCritical}},
		{Code: WidgetRecentActivity, Name: "Recent Activity", Category: "activity", Position: 30,
			Configuration: map[string]any{"limit": 6}},
		{Code: WidgetDailyAnalysis, Name: "Daily Analysis", Category: "summary", Position: 40},
		{Code: WidgetSalesPipeline, Name: "Sales Pipeline", Category: "charts", Position: 50,
			Configuration: map[string]any{"title": "Apps by Sales Status"}},
	}
}

// RegisterDefaultProviders attaches the built-in providers to reg for every
// default definition still registered. Definitions that already have a
// provider keep it. chartOpts apply to every chart widget.
func RegisterDefaultProviders(reg ProviderRegistry, source WidgetSource, chartOpts ...EChartsProviderOption) error {
	if reg == nil || source == nil {
		return fmt.Errorf("dashboard: registry and widget source are required")
	}
	providers := map[string]Provider{
		WidgetMetrics:        newMetricsProvider(source),
		WidgetStatusChart:    NewStatusChartProvider(source, NewEChartsProvider("donut", chartOpts...)),
		WidgetActivityTrend:  NewTrendChartProvider(source, NewEChartsProvider("line", chartOpts...)),
		WidgetRecentActivity: newRecentActivityProvider(source),
		WidgetDailyAnalysis:  newDailyAnalysisProvider(source),
		WidgetSalesPipeline:  newSalesPipelineProvider(source, NewEChartsProvider("bar", chartOpts...)),
	}
	for code, provider := range providers {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		if existing, ok := reg.Provider(code); ok && existing != nil {
			continue
		}
		if err := reg.RegisterProvider(code, provider); err != nil {
			return err
		}
	}
	return nil
}

func newMetricsProvider(source WidgetSource) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		m, err := source.Metrics(ctx)
		if err != nil {
			return nil, err
		}
		return WidgetData{"cards": m.Cards(), "metrics": m}, nil
	})
}

func newRecentActivityProvider(feed ActivityFeed) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		limit := intValue(meta.Configuration["limit"], 6)
		items, err := feed.Recent(ctx, meta.Viewer, limit)
		if err != nil {
			return nil, err
		}
		return WidgetData{"items": items, "empty": len(items) == 0}, nil
	})
}

func newDailyAnalysisProvider(source WidgetSource) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		q := tabular.Query{}
		if severity := stringValue(meta.Configuration["severity"], ""); severity != "" {
			q = q.WithFilter("Severity", severity)
		}
		summary, err := source.DailyAnalysis(ctx, q)
		if err != nil {
			return nil, err
		}
		return WidgetData{"summary": summary}, nil
	})
}

func newSalesPipelineProvider(source WidgetSource, renderer *EChartsProvider) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		counts, err := source.SalesBreakdown(ctx)
		if err != nil {
			return nil, fmt.Errorf("sales pipeline provider: %w", err)
		}
		points := make([]ChartPoint, len(counts))
		labels := make([]string, len(counts))
		for i, c := range counts {
			points[i] = ChartPoint{Label: c.Label, Value: float64(c.Count)}
			labels[i] = c.Label
		}
		spec := chartSpec{
			Title:  html.EscapeString(stringValue(meta.Configuration["title"], "Apps by Sales Status")),
			Theme:  renderer.resolveTheme(meta.Viewer),
			XAxis:  labels,
			Series: []ChartSeries{{Name: "Apps", Points: points}},
		}
		data, err := renderer.renderData(meta.Definition.Code, spec)
		if err != nil {
			return nil, err
		}
		data["pipeline"] = counts
		return data, nil
	})
}

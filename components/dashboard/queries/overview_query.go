package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

type overviewService interface {
	Overview(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Overview, error)
}

// OverviewQuery resolves the dashboard widgets for a viewer.
type OverviewQuery struct {
	service overviewService
}

// NewOverviewQuery builds the query.
func NewOverviewQuery(service overviewService) *OverviewQuery {
	return &OverviewQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Overview] = (*OverviewQuery)(nil)

// Query resolves the overview for the viewer.
func (q *OverviewQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Overview, error) {
	return q.service.Overview(ctx, viewer)
}

// MetricsInput selects the headline metrics. It carries no parameters.
type MetricsInput struct{}

type metricsService interface {
	Metrics(ctx context.Context) (dashboard.Metrics, error)
}

// MetricsQuery computes the headline metrics.
type MetricsQuery struct {
	service metricsService
}

// NewMetricsQuery builds the query.
func NewMetricsQuery(service metricsService) *MetricsQuery {
	return &MetricsQuery{service: service}
}

var _ gocommand.Querier[MetricsInput, dashboard.Metrics] = (*MetricsQuery)(nil)

// Query returns the metrics.
func (q *MetricsQuery) Query(ctx context.Context, _ MetricsInput) (dashboard.Metrics, error) {
	return q.service.Metrics(ctx)
}

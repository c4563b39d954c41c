package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

type listService interface {
	List(ctx context.Context, req dashboard.ListRequest) (tabular.Result, error)
}

// ListQuery runs the tabular engine over a collection.
type ListQuery struct {
	service listService
}

// NewListQuery builds the query.
func NewListQuery(service listService) *ListQuery {
	return &ListQuery{service: service}
}

var _ gocommand.Querier[dashboard.ListRequest, tabular.Result] = (*ListQuery)(nil)

// Query returns the requested view of the collection.
func (q *ListQuery) Query(ctx context.Context, req dashboard.ListRequest) (tabular.Result, error) {
	return q.service.List(ctx, req)
}

// RecordInput identifies one record.
type RecordInput struct {
	Collection string
	ID         int
}

type recordService interface {
	Get(ctx context.Context, collection string, id int) (tabular.Record, error)
}

// RecordQuery fetches one record by id.
type RecordQuery struct {
	service recordService
}

// NewRecordQuery builds the query.
func NewRecordQuery(service recordService) *RecordQuery {
	return &RecordQuery{service: service}
}

var _ gocommand.Querier[RecordInput, tabular.Record] = (*RecordQuery)(nil)

// Query returns the record or a NotFound error.
func (q *RecordQuery) Query(ctx context.Context, input RecordInput) (tabular.Record, error) {
	return q.service.Get(ctx, input.Collection, input.ID)
}

// OptionsInput names a filterable field of a collection.
type OptionsInput struct {
	Collection string
	Field      string
}

type optionsService interface {
	FilterOptions(ctx context.Context, collection, field string) ([]dashboard.FilterOption, error)
}

// FilterOptionsQuery lists the distinct values of a filterable field.
type FilterOptionsQuery struct {
	service optionsService
}

// NewFilterOptionsQuery builds the query.
func NewFilterOptionsQuery(service optionsService) *FilterOptionsQuery {
	return &FilterOptionsQuery{service: service}
}

var _ gocommand.Querier[OptionsInput, []dashboard.FilterOption] = (*FilterOptionsQuery)(nil)

// Query returns the options in display order.
func (q *FilterOptionsQuery) Query(ctx context.Context, input OptionsInput) ([]dashboard.FilterOption, error) {
	return q.service.FilterOptions(ctx, input.Collection, input.Field)
}

package tabular

import (
	"slices"
	"strings"
)

// Engine applies queries to record collections. It holds only configuration
// and is safe for concurrent use.
type Engine struct {
	searchFields []string
	dateFields   map[string]struct{}
	priority     *priorityOrder
}

type priorityOrder struct {
	field string
	ranks map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearchFields sets the string fields matched by the search term.
func WithSearchFields(fields ...string) Option {
	return func(e *Engine) {
		e.searchFields = append(e.searchFields, fields...)
	}
}

// WithDateFields marks fields holding ISO-8601 timestamps.
func WithDateFields(fields ...string) Option {
	return func(e *Engine) {
		for _, f := range fields {
			e.dateFields[f] = struct{}{}
		}
	}
}

// WithPriority applies a fixed business ordering on field before the user
// sort. Values listed first sort first; unlisted values sort last.
func WithPriority(field string, order ...string) Option {
	return func(e *Engine) {
		if field == "" || len(order) == 0 {
			return
		}
		ranks := make(map[string]int, len(order))
		for i, v := range order {
			ranks[v] = i
		}
		e.priority = &priorityOrder{field: field, ranks: ranks}
	}
}

// NewEngine builds an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{dateFields: map[string]struct{}{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs a query over a collection using a throwaway engine.
func Apply(collection []Record, q Query, opts ...Option) Result {
	return NewEngine(opts...).Apply(collection, q)
}

// Apply searches, filters, sorts and paginates collection, in that order.
// Neither collection nor its records are modified.
func (e *Engine) Apply(collection []Record, q Query) Result {
	if e == nil {
		e = NewEngine()
	}
	rows := e.search(collection, q.Search)
	rows = filterRows(rows, q.ActiveFilters())
	e.prioritize(rows)
	e.sortRows(rows, q.Sort)
	return paginate(rows, q.Page)
}

// SearchFields returns the configured searchable fields.
func (e *Engine) SearchFields() []string {
	return slices.Clone(e.searchFields)
}

// IsDateField reports whether field was declared as a timestamp.
func (e *Engine) IsDateField(field string) bool {
	_, ok := e.dateFields[field]
	return ok
}

func (e *Engine) search(collection []Record, term string) []Record {
	out := make([]Record, 0, len(collection))
	if strings.TrimSpace(term) == "" {
		return append(out, collection...)
	}
	needle := strings.ToLower(term)
	for _, rec := range collection {
		if e.matchesSearch(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

func (e *Engine) matchesSearch(rec Record, needle string) bool {
	for _, field := range e.searchFields {
		s, ok := rec[field].(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func filterRows(rows []Record, filters map[string]string) []Record {
	if len(filters) == 0 {
		return rows
	}
	out := rows[:0]
	for _, rec := range rows {
		if matchesFilters(rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesFilters(rec Record, filters map[string]string) bool {
	for field, want := range filters {
		if !Equal(rec[field], want) {
			return false
		}
	}
	return true
}

func (e *Engine) prioritize(rows []Record) {
	p := e.priority
	if p == nil {
		return
	}
	rank := func(rec Record) int {
		if r, ok := p.ranks[rec.String(p.field)]; ok {
			return r
		}
		return len(p.ranks)
	}
	slices.SortStableFunc(rows, func(a, b Record) int {
		return rank(a) - rank(b)
	})
}

func (e *Engine) sortRows(rows []Record, s *Sort) {
	if s == nil || s.Field == "" {
		return
	}
	date := e.IsDateField(s.Field)
	desc := s.Direction == Desc
	slices.SortStableFunc(rows, func(a, b Record) int {
		c := Compare(a[s.Field], b[s.Field], date)
		if desc {
			return -c
		}
		return c
	})
}

func paginate(rows []Record, page *Page) Result {
	total := len(rows)
	if page == nil || page.Size <= 0 {
		pages := 0
		if total > 0 {
			pages = 1
		}
		return Result{Rows: CloneAll(rows), TotalMatched: total, TotalPages: pages}
	}
	pages := total / page.Size
	if total%page.Size != 0 {
		pages++
	}
	result := Result{Rows: []Record{}, TotalMatched: total, TotalPages: pages}
	if page.Index < 1 || page.Index > pages {
		return result
	}
	start := (page.Index - 1) * page.Size
	end := min(start+page.Size, total)
	result.Rows = CloneAll(rows[start:end])
	return result
}

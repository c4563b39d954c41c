package tabular

import "strings"

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps user input to a Direction, defaulting to Asc.
func ParseDirection(v string) Direction {
	if strings.EqualFold(strings.TrimSpace(v), string(Desc)) {
		return Desc
	}
	return Asc
}

// Toggle flips the direction, mirroring a click on an already sorted column.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Sort orders rows by a single field.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Page is a 1-based pagination window.
type Page struct {
	Index int `json:"index"`
	Size  int `json:"size"`
}

// Query describes the view requested over a collection. The zero value is the
// identity query.
type Query struct {
	Search  string            `json:"search,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Sort    *Sort             `json:"sort,omitempty"`
	Page    *Page             `json:"page,omitempty"`
}

// WithFilter returns a copy of the query with an additional equality filter.
func (q Query) WithFilter(field, value string) Query {
	filters := make(map[string]string, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[field] = value
	q.Filters = filters
	return q
}

// ActiveFilters returns the filters that participate in matching.
func (q Query) ActiveFilters() map[string]string {
	active := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		if v == "" {
			continue
		}
		active[k] = v
	}
	return active
}

// Result is the computed view.
type Result struct {
	Rows         []Record `json:"rows"`
	TotalMatched int      `json:"total_matched"`
	TotalPages   int      `json:"total_pages"`
}

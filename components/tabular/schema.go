package tabular

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned by Schema.Check for queries referencing
// undeclared or non-sortable/non-filterable fields.
var ErrInvalidQuery = errors.New("tabular: invalid query")

// Field describes a column as the renderer sees it.
type Field struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
	Searchable bool   `json:"searchable"`
	Date       bool   `json:"date,omitempty"`
}

// Priority is a fixed ordering applied ahead of the user sort.
type Priority struct {
	Field string
	Order []string
}

// Schema bundles the column descriptors of a collection.
type Schema struct {
	Entity   string
	Fields   []Field
	Priority *Priority
}

// Field looks up a descriptor by key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Engine builds an engine configured from the descriptors.
func (s Schema) Engine() *Engine {
	var search, dates []string
	for _, f := range s.Fields {
		if f.Searchable {
			search = append(search, f.Key)
		}
		if f.Date {
			dates = append(dates, f.Key)
		}
	}
	opts := []Option{WithSearchFields(search...), WithDateFields(dates...)}
	if s.Priority != nil {
		opts = append(opts, WithPriority(s.Priority.Field, s.Priority.Order...))
	}
	return NewEngine(opts...)
}

// Check verifies the query only sorts and filters on declared fields. A
// schema without fields accepts every query.
func (s Schema) Check(q Query) error {
	if len(s.Fields) == 0 {
		return nil
	}
	if q.Sort != nil && q.Sort.Field != "" {
		f, ok := s.Field(q.Sort.Field)
		if !ok || !f.Sortable {
			return fmt.Errorf("%w: %s is not sortable", ErrInvalidQuery, q.Sort.Field)
		}
		if q.Sort.Direction != "" && q.Sort.Direction != Asc && q.Sort.Direction != Desc {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidQuery, q.Sort.Direction)
		}
	}
	for key := range q.ActiveFilters() {
		f, ok := s.Field(key)
		if !ok || !f.Filterable {
			return fmt.Errorf("%w: %s is not filterable", ErrInvalidQuery, key)
		}
	}
	if q.Page != nil && q.Page.Size < 0 {
		return fmt.Errorf("%w: page size must be positive", ErrInvalidQuery)
	}
	return nil
}

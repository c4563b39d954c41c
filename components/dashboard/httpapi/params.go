package httpapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// DefaultPageSize applies when a page index is requested without a size.
const DefaultPageSize = 10

// Reserved list parameters. Every other parameter naming a filterable field
// becomes an equality filter.
const (
	ParamSearch = "search"
	ParamSort   = "sort"
	ParamDir    = "dir"
	ParamPage   = "page"
	ParamSize   = "size"
)

// ParseListQuery builds a tabular.Query from request parameters. get returns
// the raw value of a parameter, or "" when it is absent.
func ParseListQuery(schema tabular.Schema, get func(name string) string) (tabular.Query, error) {
	q := tabular.Query{Search: get(ParamSearch)}
	if field := strings.TrimSpace(get(ParamSort)); field != "" {
		q.Sort = &tabular.Sort{Field: field, Direction: tabular.ParseDirection(get(ParamDir))}
	}
	page, err := intParam(get, ParamPage)
	if err != nil {
		return tabular.Query{}, err
	}
	size, err := intParam(get, ParamSize)
	if err != nil {
		return tabular.Query{}, err
	}
	if page > 0 || size > 0 {
		if page <= 0 {
			page = 1
		}
		if size <= 0 {
			size = DefaultPageSize
		}
		q.Page = &tabular.Page{Index: page, Size: size}
	}
	for _, f := range schema.Fields {
		if !f.Filterable {
			continue
		}
		if v := get(f.Key); v != "" {
			q = q.WithFilter(f.Key, v)
		}
	}
	return q, nil
}

func intParam(get func(string) string, name string) (int, error) {
	raw := strings.TrimSpace(get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", tabular.ErrInvalidQuery, name)
	}
	return n, nil
}

// ParseID parses a record id path segment.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid id %q", tabular.ErrInvalidQuery, raw)
	}
	return id, nil
}

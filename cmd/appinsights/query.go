package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/dashboard/queries"
	"github.com/goliatone/go-appinsights/components/tabular"
)

type queryCmd struct {
	Collection string            `arg:"" enum:"apps,users,logs,comments" help:"Collection to list (apps, users, logs, comments)."`
	Search     string            `short:"s" help:"Case-insensitive search over the searchable fields."`
	Filter     map[string]string `short:"f" help:"Exact-match filter, repeatable (e.g. -f severity=HIGH)."`
	Sort       string            `help:"Field to sort by (snake_case or PascalCase)."`
	Desc       bool              `help:"Sort descending."`
	Page       int               `help:"1-based page index."`
	Size       int               `help:"Page size (defaults to 10 when --page is set)."`
	Output     string            `short:"o" enum:"table,json,yaml" default:"table" help:"Output format (table, json, yaml)."`
	Retries    int               `help:"Retry a failed fetch this many times."`
}

func (cmd *queryCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	cfg.Activity.Enabled = false
	a, err := buildApp(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	schema, err := a.service.Schema(cmd.Collection)
	if err != nil {
		return err
	}
	q, err := cmd.query(schema.Table)
	if err != nil {
		return err
	}
	list := queries.NewListQuery(a.service)
	var result tabular.Result
	view := dashboard.NewLiveView(func(ctx context.Context) ([]tabular.Record, error) {
		res, err := list.Query(ctx, dashboard.ListRequest{Collection: cmd.Collection, Query: q})
		if err != nil {
			return nil, err
		}
		result = res
		return res.Rows, nil
	})
	snap := view.Refresh(ctx)
	for i := 0; snap.Err != nil && i < cmd.Retries; i++ {
		snap = view.Retry(ctx)
	}
	if snap.Err != nil {
		return snap.Err
	}
	return writeResult(os.Stdout, cmd.Output, schema.Table, result)
}

func (cmd *queryCmd) query(schema tabular.Schema) (tabular.Query, error) {
	q := tabular.Query{Search: cmd.Search}
	for name, value := range cmd.Filter {
		field, err := resolveField(schema, name)
		if err != nil {
			return q, err
		}
		q = q.WithFilter(field, value)
	}
	if cmd.Sort != "" {
		field, err := resolveField(schema, cmd.Sort)
		if err != nil {
			return q, err
		}
		dir := tabular.Asc
		if cmd.Desc {
			dir = tabular.Desc
		}
		q.Sort = &tabular.Sort{Field: field, Direction: dir}
	}
	if cmd.Page > 0 || cmd.Size > 0 {
		page := tabular.Page{Index: max(cmd.Page, 1), Size: cmd.Size}
		if page.Size <= 0 {
			page.Size = 10
		}
		q.Page = &page
	}
	return q, nil
}

// resolveField maps a flag value such as "last_ai_scan_date" onto the schema
// key "LastAIScanDate".
func resolveField(schema tabular.Schema, name string) (string, error) {
	candidate := strcase.ToPascal(strings.TrimSpace(name))
	for _, f := range schema.Fields {
		if f.Key == name || strings.EqualFold(f.Key, candidate) {
			return f.Key, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q for %s", tabular.ErrInvalidQuery, name, schema.Entity)
}

func writeResult(w io.Writer, format string, schema tabular.Schema, result tabular.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		headers[i] = strings.ToUpper(strcase.ToSnake(f.Key))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(schema.Fields))
		for i, f := range schema.Fields {
			cells[i] = row.String(f.Key)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d matched, %d page(s)\n", result.TotalMatched, result.TotalPages)
	return err
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

type manifestCmd struct {
	Add   manifestAddCmd   `cmd:"" help:"Add or replace a widget entry in a manifest."`
	Check manifestCheckCmd `cmd:"" help:"Validate manifests and list the resulting widgets."`
}

type manifestAddCmd struct {
	ManifestPath string   `arg:"" type:"path" help:"Manifest YAML file to create or update."`
	Code         string   `help:"Fully-qualified widget code (defaults to insights.widget.<name>)."`
	Name         string   `required:"" help:"Display name for the widget."`
	Description  string   `help:"One-line description."`
	Category     string   `default:"charts" help:"Widget category (summary, charts, activity, ...)."`
	Position     int      `help:"Ordering position on the overview."`
	Chart        string   `enum:",bar,line,pie,donut" default:"" help:"Chart provider (bar, line, pie, donut)."`
	ConfigPath   string   `name:"config" type:"existingfile" help:"JSON file with the widget configuration."`
	Tag          []string `help:"Tags to record (repeatable)."`
	Disable      bool     `help:"Disable the widget code instead of adding it."`
	Overwrite    bool     `help:"Replace an existing entry with the same code."`
}

func (cmd *manifestAddCmd) Run() error {
	code := cmd.Code
	if code == "" {
		code = "insights.widget." + strcase.ToSnake(cmd.Name)
	}
	if !strings.Contains(code, ".") {
		return fmt.Errorf("widget code %s must contain at least one '.' segment", code)
	}
	path, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}
	configuration, err := cmd.loadConfiguration()
	if err != nil {
		return err
	}
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:          code,
			Name:          cmd.Name,
			Description:   cmd.Description,
			Category:      cmd.Category,
			Position:      cmd.Position,
			Configuration: configuration,
		},
		Chart:    cmd.Chart,
		Disabled: cmd.Disable,
		Tags:     cmd.Tag,
	}
	if err := upsertWidget(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s recorded in %s\n", code, path)
	return nil
}

func (cmd *manifestAddCmd) loadConfiguration() (map[string]any, error) {
	if cmd.ConfigPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration JSON: %w", err)
	}
	return cfg, nil
}

func upsertWidget(doc *dashboard.WidgetManifestDocument, entry dashboard.ManifestWidget, overwrite bool) error {
	replaced := false
	for i := range doc.Widgets {
		if doc.Widgets[i].Definition.Code != entry.Definition.Code {
			continue
		}
		if !overwrite {
			return fmt.Errorf("manifest already defines widget %s (use --overwrite to replace)", entry.Definition.Code)
		}
		doc.Widgets[i] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Code < doc.Widgets[j].Definition.Code
	})
	return nil
}

type manifestCheckCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"Manifest files, applied in order."`
}

func (cmd *manifestCheckCmd) Run() error {
	reg := dashboard.NewRegistry()
	for _, path := range cmd.Paths {
		if _, err := reg.LoadManifestFile(path); err != nil {
			return err
		}
	}
	return writeDefinitions(os.Stdout, reg.Definitions())
}

func writeDefinitions(w io.Writer, defs []dashboard.WidgetDefinition) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tCODE\tNAME\tCATEGORY")
	for _, def := range defs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", def.Position, def.Code, def.Name, def.Category)
	}
	return tw.Flush()
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return encoder.Close()
}

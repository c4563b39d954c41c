package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// WidgetManifestDocument models a YAML manifest that adds, overrides or
// disables dashboard widgets.
type WidgetManifestDocument struct {
	Version string           `json:"version" yaml:"version"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source  string           `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget entry within a manifest. Entries
// naming an existing code override only the fields they set. Chart selects a
// go-echarts provider ("bar", "line", "pie" or "donut") fed from the
// configuration's series.
type ManifestWidget struct {
	Definition WidgetDefinition `json:"definition" yaml:"definition"`
	Chart      string           `json:"chart,omitempty" yaml:"chart,omitempty"`
	Disabled   bool             `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Tags       []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument applies a decoded manifest to the registry.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	if err := r.LoadManifest(doc.Entries()); err != nil {
		return fmt.Errorf("dashboard: load manifest %s: %w", doc.Source, err)
	}
	return nil
}

// Entries converts the document into registry manifest entries.
func (doc *WidgetManifestDocument) Entries() []WidgetManifest {
	out := make([]WidgetManifest, 0, len(doc.Widgets))
	for _, widget := range doc.Widgets {
		entry := WidgetManifest{Definition: widget.Definition, Disabled: widget.Disabled}
		if widget.Chart != "" {
			entry.Provider = NewEChartsProvider(widget.Chart)
		}
		out = append(out, entry)
	}
	return out
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.Definition.Code == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing definition.code", idx)
		}
		if _, exists := seen[widget.Definition.Code]; exists {
			return fmt.Errorf("dashboard: manifest duplicates widget code %s", widget.Definition.Code)
		}
		seen[widget.Definition.Code] = struct{}{}
		switch widget.Chart {
		case "", "bar", "line", "pie", "donut":
		default:
			return fmt.Errorf("dashboard: manifest widget %s has unsupported chart %q", widget.Definition.Code, widget.Chart)
		}
	}
	return nil
}

func (doc *WidgetManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

package dashboard

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// WidgetHook lets packages register widgets/providers during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// WidgetManifest represents config-driven registration entries.
type WidgetManifest struct {
	Definition WidgetDefinition
	Provider   Provider
	Disabled   bool
}

// Registry implements ProviderRegistry with hook + manifest support.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]WidgetDefinition
	providers   map[string]Provider
}

// NewRegistry builds a registry holding the default widget definitions and
// applies global hooks. Providers for the defaults are attached by
// RegisterDefaultProviders.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions: map[string]WidgetDefinition{},
		providers:   map[string]Provider{},
	}
	for _, def := range DefaultWidgetDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadManifest registers, overrides or removes definitions from config
// manifests. An entry without a provider keeps the provider already registered.
func (r *Registry) LoadManifest(items []WidgetManifest) error {
	for _, item := range items {
		if item.Disabled {
			r.Unregister(item.Definition.Code)
			continue
		}
		def := item.Definition
		if current, ok := r.Definition(def.Code); ok {
			def = mergeDefinition(current, def)
		}
		if err := r.RegisterDefinition(def); err != nil {
			return err
		}
		if item.Provider != nil {
			if err := r.RegisterProvider(def.Code, item.Provider); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("widget definition code is required")
	}
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider associates a provider implementation with a definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return fmt.Errorf("widget definition code is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("widget definition %s not found", code)
	}
	r.providers[code] = provider
	return nil
}

// Unregister drops a definition and its provider.
func (r *Registry) Unregister(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.definitions, code)
	delete(r.providers, code)
}

// Definition fetches a widget definition by code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Provider fetches a widget provider by code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// Definitions returns all registered definitions ordered by position, then code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	r.mu.RUnlock()
	slices.SortFunc(defs, func(a, b WidgetDefinition) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.Code, b.Code)
	})
	return defs
}

func mergeDefinition(current, override WidgetDefinition) WidgetDefinition {
	if override.Name != "" {
		current.Name = override.Name
	}
	if override.Description != "" {
		current.Description = override.Description
	}
	if override.Category != "" {
		current.Category = override.Category
	}
	if override.Position != 0 {
		current.Position = override.Position
	}
	if len(override.Configuration) > 0 {
		merged := make(map[string]any, len(current.Configuration)+len(override.Configuration))
		for k, v := range current.Configuration {
			merged[k] = v
		}
		for k, v := range override.Configuration {
			merged[k] = v
		}
		current.Configuration = merged
	}
	current.NameLocalized = mergeLocaleMaps(current.NameLocalized, override.NameLocalized)
	current.DescriptionLocalized = mergeLocaleMaps(current.DescriptionLocalized, override.DescriptionLocalized)
	return current
}

package dashboard

import "context"

// Provider fetches data required to render a dashboard widget.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Definition    WidgetDefinition
	Viewer        ViewerContext
	Configuration map[string]any
}

// WidgetData is an opaque payload passed to the renderer.
type WidgetData map[string]any

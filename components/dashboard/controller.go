package dashboard

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultTemplate is the page rendered by RenderTemplate.
const DefaultTemplate = "overview"

// OverviewResolver is the part of Service the controller needs.
type OverviewResolver interface {
	Overview(ctx context.Context, viewer ViewerContext) (Overview, error)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Service  OverviewResolver
	Renderer Renderer
	Template string
	Title    string
}

// Controller renders the overview page for a viewer.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service and renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.Title == "" {
		opts.Title = "App Insights"
	}
	return &Controller{opts: opts}
}

// Render resolves the overview for a viewer.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (Overview, error) {
	if c.opts.Service == nil {
		return Overview{}, nil
	}
	return c.opts.Service.Overview(ctx, viewer)
}

// RenderTemplate renders the overview page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: renderer not configured")
	}
	overview, err := c.Render(ctx, viewer)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, c.payload(viewer, overview), out)
	return err
}

func (c *Controller) payload(viewer ViewerContext, overview Overview) map[string]any {
	widgets := make([]map[string]any, 0, len(overview.Widgets))
	for _, w := range overview.Widgets {
		widgets = append(widgets, map[string]any{
			"code":     w.Code,
			"name":     w.Name,
			"category": w.Category,
			"error":    w.Error,
			"data":     map[string]any(w.Data),
		})
	}
	theme := viewer.Theme
	if theme == "" {
		theme = ThemeLight
	}
	return map[string]any{
		"title":        c.opts.Title,
		"locale":       viewer.Locale,
		"theme":        theme,
		"viewer":       viewer.UserID,
		"widgets":      widgets,
		"generated_at": overview.GeneratedAt.Format(time.RFC1123),
	}
}

package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOverviewResolver struct {
	overview Overview
	err      error
	viewer   ViewerContext
}

func (s *stubOverviewResolver) Overview(_ context.Context, viewer ViewerContext) (Overview, error) {
	s.viewer = viewer
	return s.overview, s.err
}

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		_, _ = out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	service := &stubOverviewResolver{overview: Overview{
		Widgets: []Widget{
			{Code: WidgetMetrics, Name: "Key Metrics", Data: WidgetData{"cards": Metrics{TotalApps: 3}.Cards()}},
			{Code: WidgetSalesPipeline, Name: "Sales Pipeline", Error: "upstream down"},
		},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Service: service, Renderer: renderer})

	var buf bytes.Buffer
	err := controller.RenderTemplate(context.Background(), ViewerContext{UserID: "ops", Theme: ThemeDark}, &buf)
	require.NoError(t, err)

	assert.Equal(t, DefaultTemplate, renderer.lastTemplate)
	assert.Equal(t, "<html></html>", buf.String())
	assert.Equal(t, "ops", service.viewer.UserID)
	assert.Equal(t, ThemeDark, renderer.lastPayload["theme"])
	assert.Equal(t, "App Insights", renderer.lastPayload["title"])
	widgets, ok := renderer.lastPayload["widgets"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, widgets, 2)
	assert.Equal(t, "upstream down", widgets[1]["error"])
}

func TestControllerRenderTemplateDefaultsTheme(t *testing.T) {
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Service: &stubOverviewResolver{}, Renderer: renderer})
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{}, io.Discard))
	assert.Equal(t, ThemeLight, renderer.lastPayload["theme"])
}

func TestControllerRenderTemplatePropagatesErrors(t *testing.T) {
	controller := NewController(ControllerOptions{
		Service:  &stubOverviewResolver{err: errors.New("boom")},
		Renderer: &stubRenderer{},
	})
	assert.EqualError(t, controller.RenderTemplate(context.Background(), ViewerContext{}, io.Discard), "boom")

	bare := NewController(ControllerOptions{})
	assert.Error(t, bare.RenderTemplate(context.Background(), ViewerContext{}, io.Discard))
}

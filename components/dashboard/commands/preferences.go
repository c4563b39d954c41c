package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

// SavePreferencesInput captures viewer overrides for the overview.
type SavePreferencesInput struct {
	Viewer        dashboard.ViewerContext `json:"-"`
	Locale        string                  `json:"locale"`
	Theme         string                  `json:"theme"`
	WidgetOrder   []string                `json:"widget_order"`
	HiddenWidgets []string                `json:"hidden_widgets"`
}

type preferenceService interface {
	Preferences(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.LayoutOverrides, error)
	SavePreferences(ctx context.Context, viewer dashboard.ViewerContext, overrides dashboard.LayoutOverrides) error
}

// SavePreferencesCommand persists per-user overview preferences.
type SavePreferencesCommand struct {
	service   preferenceService
	telemetry Telemetry
}

// NewSavePreferencesCommand creates the command.
func NewSavePreferencesCommand(service preferenceService, telemetry Telemetry) *SavePreferencesCommand {
	return &SavePreferencesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SavePreferencesInput] = (*SavePreferencesCommand)(nil)

// Execute replaces the viewer's stored preferences.
func (c *SavePreferencesCommand) Execute(ctx context.Context, msg SavePreferencesInput) error {
	if c.service == nil {
		return errors.New("preferences command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("preferences command requires viewer user id")
	}
	overrides := dashboard.LayoutOverrides{
		Locale:        msg.Locale,
		Theme:         msg.Theme,
		WidgetOrder:   msg.WidgetOrder,
		HiddenWidgets: make(map[string]bool, len(msg.HiddenWidgets)),
	}
	for _, code := range msg.HiddenWidgets {
		overrides.HiddenWidgets[code] = true
	}
	if err := c.service.SavePreferences(ctx, msg.Viewer, overrides); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.preferences", map[string]any{
		"user_id":    msg.Viewer.UserID,
		"ordered":    len(msg.WidgetOrder),
		"hidden_cnt": len(msg.HiddenWidgets),
	})
	return nil
}

package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

// ReorderWidgetsInput contains the preferred widget order of a viewer.
type ReorderWidgetsInput struct {
	Viewer      dashboard.ViewerContext `json:"-"`
	WidgetCodes []string                `json:"widget_codes"`
}

// ReorderWidgetsCommand updates only the widget order of the viewer's
// preferences, keeping the rest.
type ReorderWidgetsCommand struct {
	service   preferenceService
	telemetry Telemetry
}

// NewReorderWidgetsCommand builds the command.
func NewReorderWidgetsCommand(service preferenceService, telemetry Telemetry) *ReorderWidgetsCommand {
	return &ReorderWidgetsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderWidgetsInput] = (*ReorderWidgetsCommand)(nil)

// Execute applies the new ordering.
func (c *ReorderWidgetsCommand) Execute(ctx context.Context, msg ReorderWidgetsInput) error {
	if c.service == nil {
		return errors.New("reorder command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("reorder command requires viewer user id")
	}
	current, err := c.service.Preferences(ctx, msg.Viewer)
	if err != nil {
		return err
	}
	current.WidgetOrder = append([]string(nil), msg.WidgetCodes...)
	if err := c.service.SavePreferences(ctx, msg.Viewer, current); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.reorder", map[string]any{
		"user_id": msg.Viewer.UserID,
		"count":   len(msg.WidgetCodes),
	})
	return nil
}

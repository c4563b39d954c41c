package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// UpdateSalesStatusInput moves an app to another pipeline stage.
type UpdateSalesStatusInput struct {
	Actor
	AppID  int             `json:"app_id"`
	Status string          `json:"status"`
	Result *tabular.Record `json:"-"`
}

type salesService interface {
	UpdateSalesStatus(ctx context.Context, appID int, status string) (tabular.Record, error)
}

// UpdateSalesStatusCommand wraps Service.UpdateSalesStatus.
type UpdateSalesStatusCommand struct {
	service   salesService
	telemetry Telemetry
}

// NewUpdateSalesStatusCommand creates the command.
func NewUpdateSalesStatusCommand(service salesService, telemetry Telemetry) *UpdateSalesStatusCommand {
	return &UpdateSalesStatusCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateSalesStatusInput] = (*UpdateSalesStatusCommand)(nil)

// Execute updates the sales status.
func (c *UpdateSalesStatusCommand) Execute(ctx context.Context, msg UpdateSalesStatusInput) error {
	if c.service == nil {
		return errors.New("sales status command requires service")
	}
	if msg.AppID <= 0 {
		return errors.New("sales status command requires app id")
	}
	ctx = msg.context(ctx)
	app, err := c.service.UpdateSalesStatus(ctx, msg.AppID, msg.Status)
	if err != nil {
		return err
	}
	setResult(msg.Result, app)
	c.telemetry.Record(ctx, "insights.command.sales_status", map[string]any{
		"app_id": msg.AppID,
		"status": app.String("SalesStatus"),
	})
	return nil
}

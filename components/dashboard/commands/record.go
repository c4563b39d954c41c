package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// Actor identifies who issues a mutation. Embedded by every mutating input.
type Actor struct {
	ActorID string `json:"actor_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

func (a Actor) context(ctx context.Context) context.Context {
	if a.ActorID == "" && a.UserID == "" {
		return ctx
	}
	return dashboard.ContextWithActor(ctx, dashboard.ActorContext{ActorID: a.ActorID, UserID: a.UserID})
}

// CreateRecordInput creates one record. When Result is set it receives the
// stored record.
type CreateRecordInput struct {
	Actor
	Collection string          `json:"collection"`
	Record     tabular.Record  `json:"record"`
	Result     *tabular.Record `json:"-"`
}

type createService interface {
	Create(ctx context.Context, collection string, record tabular.Record) (tabular.Record, error)
}

// CreateRecordCommand wraps Service.Create.
type CreateRecordCommand struct {
	service   createService
	telemetry Telemetry
}

// NewCreateRecordCommand creates the command.
func NewCreateRecordCommand(service createService, telemetry Telemetry) *CreateRecordCommand {
	return &CreateRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateRecordInput] = (*CreateRecordCommand)(nil)

// Execute stores the record.
func (c *CreateRecordCommand) Execute(ctx context.Context, msg CreateRecordInput) error {
	if c.service == nil {
		return errors.New("create command requires service")
	}
	if msg.Collection == "" {
		return errors.New("create command requires collection")
	}
	ctx = msg.context(ctx)
	created, err := c.service.Create(ctx, msg.Collection, msg.Record)
	if err != nil {
		return err
	}
	setResult(msg.Result, created)
	c.telemetry.Record(ctx, "insights.command.create", map[string]any{
		"collection": msg.Collection,
		"record_id":  recordID(created),
	})
	return nil
}

// UpdateRecordInput merges Patch into the record with ID.
type UpdateRecordInput struct {
	Actor
	Collection string          `json:"collection"`
	ID         int             `json:"id"`
	Patch      tabular.Record  `json:"patch"`
	Result     *tabular.Record `json:"-"`
}

type updateService interface {
	Update(ctx context.Context, collection string, id int, patch tabular.Record) (tabular.Record, error)
}

// UpdateRecordCommand wraps Service.Update.
type UpdateRecordCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewUpdateRecordCommand creates the command.
func NewUpdateRecordCommand(service updateService, telemetry Telemetry) *UpdateRecordCommand {
	return &UpdateRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateRecordInput] = (*UpdateRecordCommand)(nil)

// Execute applies the patch.
func (c *UpdateRecordCommand) Execute(ctx context.Context, msg UpdateRecordInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.Collection == "" || msg.ID <= 0 {
		return errors.New("update command requires collection and record id")
	}
	ctx = msg.context(ctx)
	updated, err := c.service.Update(ctx, msg.Collection, msg.ID, msg.Patch)
	if err != nil {
		return err
	}
	setResult(msg.Result, updated)
	c.telemetry.Record(ctx, "insights.command.update", map[string]any{
		"collection": msg.Collection,
		"record_id":  msg.ID,
		"fields":     len(msg.Patch),
	})
	return nil
}

// DeleteRecordInput identifies the record to delete.
type DeleteRecordInput struct {
	Actor
	Collection string          `json:"collection"`
	ID         int             `json:"id"`
	Result     *tabular.Record `json:"-"`
}

type deleteService interface {
	Delete(ctx context.Context, collection string, id int) (tabular.Record, error)
}

// DeleteRecordCommand wraps Service.Delete.
type DeleteRecordCommand struct {
	service   deleteService
	telemetry Telemetry
}

// NewDeleteRecordCommand creates the command.
func NewDeleteRecordCommand(service deleteService, telemetry Telemetry) *DeleteRecordCommand {
	return &DeleteRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteRecordInput] = (*DeleteRecordCommand)(nil)

// Execute removes the record.
func (c *DeleteRecordCommand) Execute(ctx context.Context, msg DeleteRecordInput) error {
	if c.service == nil {
		return errors.New("delete command requires service")
	}
	if msg.Collection == "" || msg.ID <= 0 {
		return errors.New("delete command requires collection and record id")
	}
	ctx = msg.context(ctx)
	deleted, err := c.service.Delete(ctx, msg.Collection, msg.ID)
	if err != nil {
		return err
	}
	setResult(msg.Result, deleted)
	c.telemetry.Record(ctx, "insights.command.delete", map[string]any{
		"collection": msg.Collection,
		"record_id":  msg.ID,
	})
	return nil
}

func setResult(dst *tabular.Record, rec tabular.Record) {
	if dst != nil {
		*dst = rec
	}
}

func recordID(rec tabular.Record) int {
	id, _ := rec.ID()
	return id
}

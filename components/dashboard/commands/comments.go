package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/tabular"
)

type commentService interface {
	AddComment(ctx context.Context, appID int, comment tabular.Record) (tabular.Record, error)
	EditComment(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error)
	RemoveComment(ctx context.Context, id int) (tabular.Record, error)
}

// AddCommentInput attaches a sales comment to an app.
type AddCommentInput struct {
	Actor
	AppID   int             `json:"app_id"`
	Comment tabular.Record  `json:"comment"`
	Result  *tabular.Record `json:"-"`
}

// AddCommentCommand wraps Service.AddComment.
type AddCommentCommand struct {
	service   commentService
	telemetry Telemetry
}

// NewAddCommentCommand creates the command.
func NewAddCommentCommand(service commentService, telemetry Telemetry) *AddCommentCommand {
	return &AddCommentCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddCommentInput] = (*AddCommentCommand)(nil)

// Execute stores the comment.
func (c *AddCommentCommand) Execute(ctx context.Context, msg AddCommentInput) error {
	if c.service == nil {
		return errors.New("comment command requires service")
	}
	if msg.AppID <= 0 {
		return errors.New("comment command requires app id")
	}
	ctx = msg.context(ctx)
	created, err := c.service.AddComment(ctx, msg.AppID, msg.Comment)
	if err != nil {
		return err
	}
	setResult(msg.Result, created)
	c.telemetry.Record(ctx, "insights.command.comment_add", map[string]any{
		"app_id":     msg.AppID,
		"comment_id": recordID(created),
	})
	return nil
}

// EditCommentInput patches an existing comment.
type EditCommentInput struct {
	Actor
	ID     int             `json:"id"`
	Patch  tabular.Record  `json:"patch"`
	Result *tabular.Record `json:"-"`
}

// EditCommentCommand wraps Service.EditComment.
type EditCommentCommand struct {
	service   commentService
	telemetry Telemetry
}

// NewEditCommentCommand creates the command.
func NewEditCommentCommand(service commentService, telemetry Telemetry) *EditCommentCommand {
	return &EditCommentCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EditCommentInput] = (*EditCommentCommand)(nil)

// Execute applies the patch.
func (c *EditCommentCommand) Execute(ctx context.Context, msg EditCommentInput) error {
	if c.service == nil {
		return errors.New("comment command requires service")
	}
	if msg.ID <= 0 {
		return errors.New("comment command requires comment id")
	}
	ctx = msg.context(ctx)
	updated, err := c.service.EditComment(ctx, msg.ID, msg.Patch)
	if err != nil {
		return err
	}
	setResult(msg.Result, updated)
	c.telemetry.Record(ctx, "insights.command.comment_edit", map[string]any{"comment_id": msg.ID})
	return nil
}

// RemoveCommentInput identifies the comment to delete.
type RemoveCommentInput struct {
	Actor
	ID int `json:"id"`
}

// RemoveCommentCommand wraps Service.RemoveComment.
type RemoveCommentCommand struct {
	service   commentService
	telemetry Telemetry
}

// NewRemoveCommentCommand creates the command.
func NewRemoveCommentCommand(service commentService, telemetry Telemetry) *RemoveCommentCommand {
	return &RemoveCommentCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveCommentInput] = (*RemoveCommentCommand)(nil)

// Execute removes the comment.
func (c *RemoveCommentCommand) Execute(ctx context.Context, msg RemoveCommentInput) error {
	if c.service == nil {
		return errors.New("comment command requires service")
	}
	ctx = msg.context(ctx)
	if _, err := c.service.RemoveComment(ctx, msg.ID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.comment_remove", map[string]any{"comment_id": msg.ID})
	return nil
}

package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/dashboard/commands"
)

// Executor runs the mutations exposed over HTTP.
type Executor interface {
	Create(ctx context.Context, input commands.CreateRecordInput) error
	Update(ctx context.Context, input commands.UpdateRecordInput) error
	Delete(ctx context.Context, input commands.DeleteRecordInput) error
	SalesStatus(ctx context.Context, input commands.UpdateSalesStatusInput) error
	AddComment(ctx context.Context, input commands.AddCommentInput) error
	EditComment(ctx context.Context, input commands.EditCommentInput) error
	RemoveComment(ctx context.Context, input commands.RemoveCommentInput) error
	Preferences(ctx context.Context, input commands.SavePreferencesInput) error
	Reorder(ctx context.Context, input commands.ReorderWidgetsInput) error
}

// CommandExecutor implements Executor on top of go-command commanders.
type CommandExecutor struct {
	CreateRecord   gocommand.Commander[commands.CreateRecordInput]
	UpdateRecord   gocommand.Commander[commands.UpdateRecordInput]
	DeleteRecord   gocommand.Commander[commands.DeleteRecordInput]
	UpdateSales    gocommand.Commander[commands.UpdateSalesStatusInput]
	CreateComment  gocommand.Commander[commands.AddCommentInput]
	UpdateComment  gocommand.Commander[commands.EditCommentInput]
	DeleteComment  gocommand.Commander[commands.RemoveCommentInput]
	SavePrefs      gocommand.Commander[commands.SavePreferencesInput]
	ReorderWidgets gocommand.Commander[commands.ReorderWidgetsInput]
}

// NewCommandExecutor wires every command against the service.
func NewCommandExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		CreateRecord:   commands.NewCreateRecordCommand(service, telemetry),
		UpdateRecord:   commands.NewUpdateRecordCommand(service, telemetry),
		DeleteRecord:   commands.NewDeleteRecordCommand(service, telemetry),
		UpdateSales:    commands.NewUpdateSalesStatusCommand(service, telemetry),
		CreateComment:  commands.NewAddCommentCommand(service, telemetry),
		UpdateComment:  commands.NewEditCommentCommand(service, telemetry),
		DeleteComment:  commands.NewRemoveCommentCommand(service, telemetry),
		SavePrefs:      commands.NewSavePreferencesCommand(service, telemetry),
		ReorderWidgets: commands.NewReorderWidgetsCommand(service, telemetry),
	}
}

var _ Executor = (*CommandExecutor)(nil)

var errNotConfigured = errors.New("httpapi: command not configured")

func run[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errNotConfigured
	}
	return cmd.Execute(ctx, msg)
}

func (e *CommandExecutor) Create(ctx context.Context, input commands.CreateRecordInput) error {
	return run(ctx, e.CreateRecord, input)
}

func (e *CommandExecutor) Update(ctx context.Context, input commands.UpdateRecordInput) error {
	return run(ctx, e.UpdateRecord, input)
}

func (e *CommandExecutor) Delete(ctx context.Context, input commands.DeleteRecordInput) error {
	return run(ctx, e.DeleteRecord, input)
}

func (e *CommandExecutor) SalesStatus(ctx context.Context, input commands.UpdateSalesStatusInput) error {
	return run(ctx, e.UpdateSales, input)
}

func (e *CommandExecutor) AddComment(ctx context.Context, input commands.AddCommentInput) error {
	return run(ctx, e.CreateComment, input)
}

func (e *CommandExecutor) EditComment(ctx context.Context, input commands.EditCommentInput) error {
	return run(ctx, e.UpdateComment, input)
}

func (e *CommandExecutor) RemoveComment(ctx context.Context, input commands.RemoveCommentInput) error {
	return run(ctx, e.DeleteComment, input)
}

func (e *CommandExecutor) Preferences(ctx context.Context, input commands.SavePreferencesInput) error {
	return run(ctx, e.SavePrefs, input)
}

func (e *CommandExecutor) Reorder(ctx context.Context, input commands.ReorderWidgetsInput) error {
	return run(ctx, e.ReorderWidgets, input)
}

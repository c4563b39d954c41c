package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-appinsights/components/tabular"
)

// ImportRecordsInput creates every record of a batch in one collection.
type ImportRecordsInput struct {
	Actor
	Collection string
	Records    []tabular.Record
	// ContinueOnError keeps importing after a failed record.
	ContinueOnError bool
	// Imported receives the number of stored records when set.
	Imported *int
}

// ImportRecordsCommand loads a batch of records through Service.Create so
// every record is validated and stamped.
type ImportRecordsCommand struct {
	service   createService
	telemetry Telemetry
}

// NewImportRecordsCommand wires dependencies.
func NewImportRecordsCommand(service createService, telemetry Telemetry) *ImportRecordsCommand {
	return &ImportRecordsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ImportRecordsInput] = (*ImportRecordsCommand)(nil)

// Execute runs the import.
func (c *ImportRecordsCommand) Execute(ctx context.Context, msg ImportRecordsInput) error {
	if c.service == nil {
		return errors.New("import command requires service")
	}
	if msg.Collection == "" {
		return errors.New("import command requires collection")
	}
	ctx = msg.context(ctx)
	var (
		imported int
		errs     []error
	)
	for i, rec := range msg.Records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := c.service.Create(ctx, msg.Collection, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			if !msg.ContinueOnError {
				break
			}
			continue
		}
		imported++
	}
	if msg.Imported != nil {
		*msg.Imported = imported
	}
	c.telemetry.Record(ctx, "insights.command.import", map[string]any{
		"collection": msg.Collection,
		"imported":   imported,
		"failed":     len(errs),
	})
	return errors.Join(errs...)
}

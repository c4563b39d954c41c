package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-appinsights/components/dashboard/commands"
	"github.com/goliatone/go-appinsights/pkg/datasource"
)

type importCmd struct {
	Collection      string `arg:"" enum:"apps,users,logs,comments" help:"Target collection."`
	File            string `arg:"" type:"existingfile" help:"JSON file holding an array of records."`
	ActorID         string `name:"actor" help:"Actor recorded on the import events."`
	ContinueOnError bool   `name:"continue-on-error" help:"Keep importing after a record fails validation or storage."`
}

func (cmd *importCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.File, err)
	}
	records, err := datasource.ParseRecords(data)
	if err != nil {
		return err
	}

	var imported int
	err = commands.NewImportRecordsCommand(a.service, a.telemetry).Execute(ctx, commands.ImportRecordsInput{
		Actor:           commands.Actor{ActorID: cmd.ActorID},
		Collection:      cmd.Collection,
		Records:         records,
		ContinueOnError: cmd.ContinueOnError,
		Imported:        &imported,
	})
	log.Info("import finished",
		zap.String("collection", cmd.Collection),
		zap.Int("records", len(records)),
		zap.Int("imported", imported),
		zap.String("data_source", cfg.DataSource.Mode),
	)
	fmt.Fprintf(os.Stdout, "imported %d of %d %s\n", imported, len(records), cmd.Collection)
	return err
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/goliatone/go-appinsights/pkg/config"
)

// Globals are shared by every subcommand.
type Globals struct {
	Config   string `short:"c" type:"path" env:"APPINSIGHTS_CONFIG" help:"Optional YAML configuration file."`
	LogLevel string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)."`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" default:"withargs" help:"Run the insights API and dashboard page."`
	Query    queryCmd    `cmd:"" help:"List records of a collection with search, filters, sorting and paging."`
	Import   importCmd   `cmd:"" help:"Import records from a JSON array file into a collection."`
	Manifest manifestCmd `cmd:"" help:"Manage widget manifest files."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("appinsights"),
		kong.Description("Support analytics admin backend: apps, chat analysis, sales comments and metrics."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&c.Globals)
	kctx.FatalIfErrorf(err)
}

// load reads the configuration and applies the global overrides.
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	return cfg, nil
}

// newLogger builds a development logger for debug and a production one
// otherwise.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug() {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

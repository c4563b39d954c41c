package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/dashboard/httpapi"
	"github.com/goliatone/go-appinsights/pkg/activity"
	"github.com/goliatone/go-appinsights/pkg/activity/usersink"
	"github.com/goliatone/go-appinsights/pkg/config"
	"github.com/goliatone/go-appinsights/pkg/datasource"
	"github.com/goliatone/go-appinsights/pkg/goadmin"
	"github.com/goliatone/go-appinsights/pkg/telemetry"
)

// app holds everything the subcommands share.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	service    *dashboard.Service
	executor   *httpapi.CommandExecutor
	broadcast  *dashboard.BroadcastHook
	controller *dashboard.Controller
	admin      *goadmin.Admin
	menu       *goadmin.Menu
	telemetry  telemetry.Sink
	audit      *usersink.MemorySink
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	repos, err := repositories(cfg, time.Now())
	if err != nil {
		return nil, err
	}
	sink := telemetry.Multi{telemetry.NewLogger(log), telemetry.DefaultCounter()}
	broadcast := dashboard.NewBroadcastHook()
	cache := dashboard.NewChartCache(cfg.ChartCacheTTL)
	audit := usersink.NewMemorySink(usersink.DefaultCapacity)
	emitter := activity.NewEmitter(activity.Hooks{
		activity.LogHook{Logger: log.Named("activity")},
		usersink.Hook{Sink: audit},
	}, cfg.Activity)

	opts := dashboard.Options{
		RefreshHook:     dashboard.MultiRefreshHook{broadcast, cache, activity.RecordHook{Emitter: emitter}},
		Telemetry:       sink,
		ChartCache:      cache,
		ChartAssetsHost: cfg.ChartAssetsHost,
	}
	repos.Apply(&opts)
	service, err := dashboard.Bootstrap(opts, cfg.Manifests...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap service: %w", err)
	}

	menu := goadmin.NewMenu()
	admin, err := goadmin.New(goadmin.Config{
		EnableInsights: true,
		Service:        service,
		MenuBuilder:    menu,
	})
	if err != nil {
		return nil, err
	}
	if err := admin.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("seed menu: %w", err)
	}

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		service:    service,
		executor:   httpapi.NewCommandExecutor(service, sink),
		broadcast:  broadcast,
		controller: dashboard.NewController(dashboard.ControllerOptions{Service: service, Renderer: renderer}),
		admin:      admin,
		menu:       menu,
		telemetry:  sink,
		audit:      audit,
	}, nil
}

// repositories selects the data source named by the configuration.
func repositories(cfg *config.Config, now time.Time) (datasource.Repositories, error) {
	var repos datasource.Repositories
	switch cfg.DataSource.Mode {
	case config.SourceHTTP:
		client, err := datasource.NewHTTPClient(datasource.HTTPConfig{
			BaseURL:    cfg.DataSource.BaseURL,
			APIKey:     cfg.DataSource.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.DataSource.Timeout},
		})
		if err != nil {
			return repos, err
		}
		repos = client.Repositories()
	default:
		fixtures, err := datasource.LoadFixtures()
		if err != nil {
			return repos, err
		}
		if cfg.DataSource.RebaseFixtures {
			fixtures = fixtures.Rebase(now)
		}
		repos = fixtures.Repositories(cfg.DataSource.Latency)
	}
	return repos.WithFailures(cfg.DataSource.FailureRate), nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-appinsights/components/dashboard/gorouter"
	"github.com/goliatone/go-appinsights/components/dashboard/httpapi"
	"github.com/goliatone/go-appinsights/pkg/config"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	Addr        string `help:"Listen address for the API (overrides config)."`
	MetricsAddr string `name:"metrics-addr" help:"Listen address for metrics, health and the dashboard page when serving over fiber."`
	Transport   string `enum:",fiber,http" default:"" help:"Transport to serve the API on (fiber or http)."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	if cmd.MetricsAddr != "" {
		cfg.MetricsAddr = cmd.MetricsAddr
	}
	if cmd.Transport != "" {
		cfg.Transport = cmd.Transport
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
	log.Info("starting appinsights",
		zap.String("transport", cfg.Transport),
		zap.String("addr", cfg.Addr),
		zap.String("data_source", cfg.DataSource.Mode),
		zap.Int("widgets", len(a.service.Providers().Definitions())),
	)
	if cfg.Transport == config.TransportHTTP {
		return a.serveHTTP(ctx)
	}
	return a.serveFiber(ctx)
}

// opsMux serves metrics, health, navigation and the rendered dashboard page.
func (a *app) opsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /menu", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.menu.Items(a.admin.MenuCode()))
	})
	mux.HandleFunc("GET /activity", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.audit.Recent(limit))
	})
	mux.Handle("GET "+a.cfg.PagePath, httpapi.PageHandler(a.controller, nil))
	return mux
}

func (a *app) serveHTTP(ctx context.Context) error {
	mux := a.opsMux()
	base := strings.TrimRight(a.cfg.BasePath, "/")
	mux.HandleFunc("GET "+base+"/events", a.broadcast.ServeWebSocket)
	mux.HandleFunc("GET "+base+"/events/stream", a.broadcast.ServeSSE)
	handlers := &httpapi.Handlers{API: a.executor, Reader: a.service}
	handlers.Mount(mux, base)

	srv := &http.Server{Addr: a.cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return a.run(ctx, srv, nil)
}

func (a *app) serveFiber(ctx context.Context) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		Service:   a.service,
		API:       a.executor,
		Broadcast: a.broadcast,
		BasePath:  a.cfg.BasePath,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}
	ops := &http.Server{Addr: a.cfg.MetricsAddr, Handler: a.opsMux(), ReadHeaderTimeout: 10 * time.Second}
	return a.run(ctx, ops, server)
}

// run serves srv and, when set, the fiber server until ctx is cancelled or
// one of them fails.
func (a *app) run(ctx context.Context, srv *http.Server, api router.Server[*fiber.App]) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if api != nil {
		g.Go(func() error {
			a.log.Info("api listening", zap.String("addr", a.cfg.Addr), zap.String("base_path", a.cfg.BasePath))
			return api.Serve(a.cfg.Addr)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if api != nil {
			errs = append(errs, api.Shutdown(shutdownCtx))
		}
		errs = append(errs, srv.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})
	return g.Wait()
}

// Package app assembles the HTTP server and its background jobs and
// manages their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/devsentry/devsentry/pkg/config"
	"github.com/devsentry/devsentry/pkg/server/api"
	"github.com/devsentry/devsentry/pkg/server/httpx"
	"github.com/devsentry/devsentry/pkg/server/jobs"
)

const shutdownTimeout = 30 * time.Second

// App orchestrates the server runtime components:
// - HTTP server
// - Background jobs
// - Lifecycle management
type App struct {
	HTTP    *http.Server
	Jobs    jobs.Manager
	Ready   *atomic.Bool
	Metrics *api.Metrics
	Config  config.ServerConfig
	Deps    *Deps
}

// New creates and configures a new server application.
func New(ctx context.Context, cfg config.ServerConfig, deps *Deps) (*App, error) {
	deps.Logger.Info().Msg("Initializing server application")

	if deps.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	apiCfg := api.Config{
		HandlerTimeout: cfg.HandlerTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}
	if err := apiCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid api configuration: %w", err)
	}

	ready := &atomic.Bool{}
	metrics := api.NewMetrics()
	apiDeps := &api.Deps{
		Analyzer: deps.Analyzer,
		Metrics:  metrics,
		Config:   apiCfg,
		Ready:    ready,
	}
	if deps.Journal != nil {
		apiDeps.Reports = deps.Journal
	} else {
		deps.Logger.Warn().Msg("No journal configured; analyses will not be persisted")
	}

	router := httpx.NewRouter(apiDeps)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port)),
		Handler:      httpx.Chain(cfg, router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	var jobsMgr jobs.Manager
	if len(deps.Tasks) > 0 {
		jobsMgr = jobs.NewGroup(deps.Tasks...)
	}

	return &App{
		HTTP:    httpServer,
		Jobs:    jobsMgr,
		Ready:   ready,
		Metrics: metrics,
		Config:  cfg,
		Deps:    deps,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (a *App) Run(ctx context.Context) error {
	a.Deps.Logger.Info().
		Str("addr", a.HTTP.Addr).
		Str("auth", a.Config.Auth.Mode).
		Int("jobs", len(a.Deps.Tasks)).
		Msg("Starting devsentry server")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if a.Jobs != nil {
		if err := a.Jobs.Start(ctx); err != nil {
			return fmt.Errorf("start jobs: %w", err)
		}
	}

	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		a.Ready.Store(false)
		if a.Jobs != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = a.Jobs.Stop(stopCtx)
		}
		return err
	}

	return a.shutdown()
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.Ready.Store(false)

	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("HTTP server stopped")

	if a.Jobs != nil {
		if err := a.Jobs.Stop(shutdownCtx); err != nil {
			a.Deps.Logger.Error().Err(err).Msg("Jobs shutdown failed")
			return err
		}
	}

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return nil
}

package commands

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/appctx"
	"github.com/devsentry/devsentry/pkg/config"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/logging"
	serversvc "github.com/devsentry/devsentry/pkg/server"
	"github.com/devsentry/devsentry/pkg/server/app"
	"github.com/devsentry/devsentry/pkg/server/jobs"
	"github.com/devsentry/devsentry/pkg/watch"
	"github.com/devsentry/devsentry/pkg/workspace"
)

const serveOperation = "start server"

// newServeCommand creates the 'devsentry serve' command.
//
// The server hosts the analysis API, the report endpoints backed by the
// workspace journal, health probes and Prometheus metrics. With
// --server.watch_inbox the inbox watcher runs as a background job in the
// same process.
//
// Example usage:
//
//	devsentry serve
//	devsentry serve --server.addr 0.0.0.0 --server.port 9090
//	DEVSENTRY_SERVER_AUTH_MODE=token DEVSENTRY_SERVER_AUTH_TOKEN=s3cret devsentry serve
func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the devsentry HTTP API",
		GroupID: "workspace",
		Long: `Run the devsentry HTTP API.

Endpoints:
  GET  /healthz                   liveness
  GET  /readyz                    readiness
  POST /api/v1/analyze/native     analyse a native dump (text body)
  POST /api/v1/analyze/platform   analyse a platform dump (JSON body)
  GET  /api/v1/reports            list journaled analyses
  GET  /api/v1/reports/{id}       one journaled analysis
  GET  /metrics                   Prometheus metrics

The server runs until interrupted (Ctrl+C), then drains in-flight requests
and stops background jobs.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				return failServer(formatter, serveOperation, serversvc.ErrConfigUnavailable)
			}
			cfg := cfgMgr.Get()

			if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
				return failServer(formatter, serveOperation, serversvc.NewInvalidPortError(cfg.Server.Port))
			}
			if err := cfg.Server.Validate(); err != nil {
				return failServer(formatter, serveOperation, serversvc.WrapInvalidConfig(err))
			}

			logger := logging.NewLogger("server", zerolog.GlobalLevel())
			analyzer := newAnalyzer(cfg)

			deps := &app.Deps{
				Analyzer: analyzer,
				Logger:   logger,
			}

			if ws, ok := workspace.FromContext(cmd.Context()); ok {
				j, err := journal.Open(ws.Journal())
				if err != nil {
					return failServer(formatter, serveOperation, serversvc.WrapWorkspaceInit(err))
				}
				deps.Journal = j

				if cfg.Server.WatchInbox {
					task, err := inboxTask(ws, cfg, deps, logger)
					if err != nil {
						return failServer(formatter, serveOperation, serversvc.WrapWorkspaceInit(err))
					}
					deps.Tasks = append(deps.Tasks, task)
				}
			} else if cfg.Server.WatchInbox {
				return failServer(formatter, serveOperation, serversvc.WrapWorkspaceInit(ErrWorkspaceRequired))
			}

			serverApp, err := app.New(cmd.Context(), cfg.Server, deps)
			if err != nil {
				return failServer(formatter, serveOperation, serversvc.WrapAppInit(err))
			}

			// Run server (blocks until shutdown)
			if err := serverApp.Run(cmd.Context()); err != nil {
				return failServer(formatter, serveOperation, serversvc.WrapRuntime(err))
			}

			return nil
		},
	}

	config.BindServerFlags(cmd.Flags())

	return cmd
}

// inboxTask wraps the inbox watcher as a background job.
func inboxTask(ws workspace.Workspace, cfg config.Config, deps *app.Deps, logger zerolog.Logger) (jobs.Task, error) {
	w, err := watch.New(ws, deps.Analyzer, deps.Journal, logger, watch.WithDebounce(cfg.Watch.Debounce))
	if err != nil {
		return jobs.Task{}, err
	}
	return jobs.Task{
		Name: "inbox-watcher",
		Run: func(ctx context.Context) error {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}, nil
}

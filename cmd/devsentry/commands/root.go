// Package commands builds the devsentry command tree.
package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/bind"
	"github.com/devsentry/devsentry/pkg/appctx"
	"github.com/devsentry/devsentry/pkg/config"
	"github.com/devsentry/devsentry/pkg/logging"
	"github.com/devsentry/devsentry/pkg/paths"
	"github.com/devsentry/devsentry/pkg/workspace"
)

const cliExecutable = "devsentry"

// NewCommand constructs the top-level devsentry CLI command, wiring global
// flags, configuration loading and shared workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile        string
		workspaceDisabled bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "devsentry normalizes device probe dumps, derives device IDs and scores risk",
		Long: `devsentry turns raw device-probe dumps into canonical documents, derives
stable device identifiers and scores emulator, root, debug and injection
risk.

Native dumps are the sectioned text produced by the on-device collector.
Platform dumps are the JSON objects produced by the app-level collector.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				configFile = paths.ConfigFile()
			}
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return bind.InvalidFlag(fmt.Errorf("load configuration: %w", err))
			}
			cfg := mgr.Get()
			logging.ConfigureGlobalLogging(cfg.Log.Level, cfg.Log.Format)

			ctx := appctx.WithConfig(cmd.Context(), mgr)

			if !workspaceDisabled {
				prepared, err := workspace.Prepare(cfg.Workspace.Dir)
				if err != nil {
					return fmt.Errorf("prepare workspace: %w", err)
				}
				ctx = workspace.WithContext(ctx, prepared)
				log.Debug().Str("workspace", prepared.Root).Msg("workspace ready")
			} else {
				log.Debug().Msg("workspace disabled for this run")
			}

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	// Errors are reported by the failing command or by main.
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return bind.InvalidFlag(err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file path (default $XDG_CONFIG_HOME/devsentry/config.yaml)")
	flags.BoolVar(&workspaceDisabled, "no-workspace", false, "Disable the workspace for this run (no journal, no inbox)")
	flags.StringP("output", "o", "table", "Output format: json, yaml or table")
	flags.BoolP("quiet", "q", false, "Suppress summaries")
	flags.Bool("no-color", false, "Disable coloured output")

	config.BindFlags(flags)

	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands"})
	cmd.AddGroup(&cobra.Group{ID: "workspace", Title: "Workspace Commands"})

	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newNormalizeCommand())
	cmd.AddCommand(newIDCommand())
	cmd.AddCommand(newReportsCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand(cliExecutable))

	return cmd
}

// exactArgs is cobra.ExactArgs with the error marked as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return bind.InvalidFlag(cobra.ExactArgs(n)(cmd, args))
	}
}

// noArgs is cobra.NoArgs with the error marked as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	return bind.InvalidFlag(cobra.NoArgs(cmd, args))
}

// reportedError marks an error whose summary was already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by its command.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

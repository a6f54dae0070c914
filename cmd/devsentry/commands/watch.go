package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/watch"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Analyse dumps dropped into the workspace inbox",
		GroupID: "workspace",
		Long: `Watch the workspace inbox and analyse every dump dropped into it.

*.txt and *.dump files are analysed as native dumps, *.json files as
platform dumps. Each result is journaled and the file is moved to the
processed directory; files that cannot be analysed are moved there with a
".failed" suffix. Runs until interrupted.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			const op = "watch inbox"

			cfg, err := loadedConfig(cmd.Context())
			if err != nil {
				return fail(f, op, err)
			}

			j, ws, err := openJournal(cmd.Context())
			if err != nil {
				return fail(f, op, err)
			}

			w, err := watch.New(ws, newAnalyzer(cfg), j, log.Logger,
				watch.WithDebounce(cfg.Watch.Debounce),
				watch.WithNotify(func(res watch.Result) { printWatchResult(f, res) }),
			)
			if err != nil {
				return fail(f, op, err)
			}

			_ = f.PrintSummary(fmt.Sprintf("Watching %s (Ctrl+C to stop)", ws.Inbox()))

			if err := w.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return fail(f, op, err)
			}
			return nil
		},
	}

	return cmd
}

// printWatchResult reports one processed inbox file. Structured modes
// emit one document per file.
func printWatchResult(f format.Formatter, res watch.Result) {
	name := filepath.Base(res.Path)

	if f.Mode() != format.ModeTable {
		entry := map[string]any{"file": name}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		} else {
			entry["record_id"] = res.Record.ID
			entry["tier"] = res.Record.Tier
			entry["device_id"] = res.Record.DeviceID
		}
		_ = f.PrintData(entry)
		return
	}

	if res.Err != nil {
		_ = f.PrintError(fmt.Errorf("%s: %w", name, res.Err))
		return
	}
	_ = f.PrintSummary(fmt.Sprintf("✓ %s → %s (%s, score %s)", name, res.Record.ID, res.Record.Tier, scoreCell(res.Record.RiskScore)))
}

package commands

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/appctx"
	"github.com/devsentry/devsentry/pkg/config"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/workspace"
)

const stdinPath = "-"

// readInput reads a dump from path, or from stdin when path is "-". It
// returns the data and the label used for error messages and records.
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	var (
		data   []byte
		err    error
		source = path
	)
	if path == stdinPath {
		source = "stdin"
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, source, analysis.WrapUnreadable(source, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, source, analysis.NewEmptyInputError(source)
	}
	return data, source, nil
}

// loadedConfig returns the configuration loaded by the root command.
func loadedConfig(ctx context.Context) (config.Config, error) {
	cfg, ok := appctx.Settings(ctx)
	if !ok {
		return config.Config{}, ErrConfigMissing
	}
	return cfg, nil
}

// newAnalyzer builds an Analyzer with the configured category weights.
func newAnalyzer(cfg config.Config) *analysis.Analyzer {
	return analysis.New(analysis.WithWeights(cfg.Analysis.Weights()))
}

// openJournal opens the journal of the prepared workspace.
func openJournal(ctx context.Context) (*journal.Journal, workspace.Workspace, error) {
	ws, ok := workspace.FromContext(ctx)
	if !ok {
		return nil, workspace.Workspace{}, ErrWorkspaceRequired
	}
	j, err := journal.Open(ws.Journal())
	if err != nil {
		return nil, ws, err
	}
	return j, ws, nil
}

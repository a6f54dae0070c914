// Package bind reads command flags into validated option structs.
package bind

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/config"
)

// ErrInvalidFlag marks a usage error: a flag or argument the command
// cannot accept.
var ErrInvalidFlag = errors.New("invalid flag value")

// InvalidFlag wraps err as a usage error.
func InvalidFlag(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidFlag, err)
}

// AnalyzeOptions holds the options shared by the analyze commands.
type AnalyzeOptions struct {
	Output format.OutputMode
	Save   bool
	// Source labels journaled records; defaults to the input path.
	Source string
	// FailAbove turns a native score above it into an error. Negative
	// disables the check.
	FailAbove int
}

// BindAnalyzeOptions extracts and validates analyze command flags.
//
// Flags read:
//   - --output: json, yaml or table
//   - --save: journal the result in the workspace
//   - --source: label stored with the journaled record
//   - --fail-above: native score limit (only registered on analyze native)
//
// The --fail-above default comes from analysis.fail_above in the loaded
// configuration.
func BindAnalyzeOptions(cmd *cobra.Command, defaults config.AnalysisConfig) (AnalyzeOptions, error) {
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	source, _ := cmd.Flags().GetString("source")

	if err := format.ValidateMode(output); err != nil {
		return AnalyzeOptions{}, InvalidFlag(err)
	}

	failAbove := defaults.FailAbove
	if f := cmd.Flags().Lookup("fail-above"); f != nil && f.Changed {
		failAbove, _ = cmd.Flags().GetInt("fail-above")
	}
	if failAbove < -1 || failAbove > 100 {
		return AnalyzeOptions{}, InvalidFlag(fmt.Errorf("--fail-above %d: must be between -1 and 100", failAbove))
	}

	return AnalyzeOptions{
		Output:    format.ParseMode(output),
		Save:      save,
		Source:    source,
		FailAbove: failAbove,
	}, nil
}

// ListOptions holds options for reports list.
type ListOptions struct {
	// Limit caps the number of records; zero lists everything.
	Limit int
}

// BindListOptions extracts and validates reports list flags.
func BindListOptions(cmd *cobra.Command) (ListOptions, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return ListOptions{}, InvalidFlag(fmt.Errorf("--limit %d: must not be negative", limit))
	}
	return ListOptions{Limit: limit}, nil
}

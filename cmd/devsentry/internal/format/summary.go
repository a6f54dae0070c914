package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/server"
)

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Saved analysis 3f0c..."
//   - "✓ Watch completed successfully"
func (f *formatter) PrintSuccessSummary(operation, detail string) error {
	if f.quiet {
		if detail != "" {
			_, err := fmt.Fprintln(f.stdout, detail)
			return err
		}
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":   true,
			"operation": operation,
			"detail":    detail,
		})
	}

	message := fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	if detail != "" {
		message = fmt.Sprintf("✓ %s %s", capitalize(operation), detail)
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintTotalFailureSummary prints total failure with error and suggestions
// Example output:
//
//	✗ Failed to analyze dump: empty input: dump.txt
//
//	💡 Suggestions:
//	  → Check the collector produced output before uploading
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string) error {
	if f.quiet {
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		})
	}

	var sb strings.Builder

	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	if suggestions := GetSuggestions(err, errorCode); len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	// Failures go to stderr so piped stdout stays clean.
	_, writeErr := f.stderr.Write([]byte(sb.String()))
	return writeErr
}

// GetSuggestions returns actionable hints for err. Server codes resolve
// through the server vocabulary, everything else through analysis.
func GetSuggestions(err error, errorCode string) []string {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(errorCode, "SERVER_") {
		return server.Suggestions(err)
	}
	return analysis.Suggestions(err)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/bind"
	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/server/api"
)

const analyzeOperation = "analyze dump"

// analysisRun is one analysed dump in both printable forms.
type analysisRun struct {
	tier     analysis.Tier
	record   journal.Record
	response api.AnalyzeResponse
	failed   bool
}

func (r analysisRun) report() format.Report {
	return recordReport(r.record)
}

func recordReport(rec journal.Record) format.Report {
	return format.Report{
		Tier:     string(rec.Tier),
		DeviceID: rec.DeviceID,
		Score:    rec.RiskScore,
		Flags:    rec.Flags,
		Text:     rec.Report,
		RecordID: rec.ID,
	}
}

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Analyse a dump and print its risk verdict",
		GroupID: "analysis",
		Long: `Analyse a native or platform dump: build the canonical document, derive
the device ID and run every risk detector.

Exit codes:
  0  analysis completed (and the score is within --fail-above)
  2  usage error
  3  the input was empty or could not be read
  4  the native risk score is above --fail-above`,
	}

	cmd.AddCommand(newAnalyzeTierCommand(analysis.TierNative))
	cmd.AddCommand(newAnalyzeTierCommand(analysis.TierPlatform))

	return cmd
}

func newAnalyzeTierCommand(tier analysis.Tier) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(tier) + " <file|->",
		Short: fmt.Sprintf("Analyse a %s dump", tier),
		Example: fmt.Sprintf(`  %[1]s analyze %[2]s dump.txt
  cat dump.txt | %[1]s analyze %[2]s - --output json
  %[1]s analyze %[2]s dump.txt --save`, cliExecutable, tier),
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)

			cfg, err := loadedConfig(cmd.Context())
			if err != nil {
				return fail(f, analyzeOperation, err)
			}

			opts, err := bind.BindAnalyzeOptions(cmd, cfg.Analysis)
			if err != nil {
				return fail(f, analyzeOperation, err)
			}

			data, source, err := readInput(cmd, args[0])
			if err != nil {
				return fail(f, analyzeOperation, err)
			}
			if opts.Source != "" {
				source = opts.Source
			}

			run, err := analyzeDump(newAnalyzer(cfg), tier, source, data)
			if err != nil {
				return fail(f, analyzeOperation, err)
			}

			if opts.Save {
				j, _, err := openJournal(cmd.Context())
				if err != nil {
					return fail(f, analyzeOperation, err)
				}
				if err := j.Append(cmd.Context(), &run.record); err != nil {
					return fail(f, analyzeOperation, fmt.Errorf("save analysis: %w", err))
				}
				run.response.RecordID = run.record.ID
			}

			if err := printRun(f, run); err != nil {
				return err
			}

			return fail(f, analyzeOperation, checkVerdict(run, opts.FailAbove))
		},
	}

	cmd.Flags().Bool("save", false, "Journal the result in the workspace")
	cmd.Flags().String("source", "", "Label stored with the journaled record (default: input path)")
	if tier == analysis.TierNative {
		cmd.Flags().Int("fail-above", -1, "Exit with code 4 when the risk score is above this value (-1 disables; default from analysis.fail_above)")
	}

	return cmd
}

// analyzeDump runs the pipeline for tier and prepares the journal record.
func analyzeDump(a *analysis.Analyzer, tier analysis.Tier, source string, data []byte) (analysisRun, error) {
	switch tier {
	case analysis.TierNative:
		out := a.AnalyzeNative(string(data))
		rec, err := journal.NativeRecord(source, out)
		if err != nil {
			return analysisRun{}, err
		}
		return analysisRun{
			tier:     tier,
			record:   rec,
			response: api.AnalyzeResponse{Document: out.Document, Result: out.Result},
			failed:   out.Result.Failed(),
		}, nil

	case analysis.TierPlatform:
		raw, err := document.DecodePlatformDump(data)
		if err != nil {
			return analysisRun{}, analysis.WrapUnreadable(source, err)
		}
		out := a.AnalyzePlatform(raw)
		rec, err := journal.PlatformRecord(source, out)
		if err != nil {
			return analysisRun{}, err
		}
		return analysisRun{
			tier:     tier,
			record:   rec,
			response: api.AnalyzeResponse{Document: out.Document, Result: out.Result},
			failed:   out.Failed(),
		}, nil

	default:
		_, err := analysis.ParseTier(string(tier))
		return analysisRun{}, err
	}
}

func printRun(f format.Formatter, run analysisRun) error {
	if f.Mode() == format.ModeTable {
		return f.PrintReport(run.report())
	}
	return f.PrintData(run.response)
}

// checkVerdict turns a degraded analysis or a native score above
// failAbove into an error. A negative failAbove disables the score check.
func checkVerdict(run analysisRun, failAbove int) error {
	if run.failed {
		reason, _, _ := strings.Cut(run.record.Report, "\n")
		return fmt.Errorf("%s analysis degraded: %s", run.tier, reason)
	}
	if failAbove < 0 || run.tier != analysis.TierNative || run.record.RiskScore == nil {
		return nil
	}
	if score := *run.record.RiskScore; score > failAbove {
		return analysis.NewRiskThresholdError(score, failAbove)
	}
	return nil
}

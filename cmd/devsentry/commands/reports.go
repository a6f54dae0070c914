package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/bind"
	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/stringutil"
)

const maxSourceWidth = 32

func newReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Short:   "Inspect journaled analyses",
		GroupID: "workspace",
	}

	cmd.AddCommand(newReportsListCommand())
	cmd.AddCommand(newReportsShowCommand())

	return cmd
}

func newReportsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled analyses, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			const op = "list reports"

			opts, err := bind.BindListOptions(cmd)
			if err != nil {
				return fail(f, op, err)
			}

			j, _, err := openJournal(cmd.Context())
			if err != nil {
				return fail(f, op, err)
			}

			records, err := j.List(cmd.Context(), opts.Limit)
			if err != nil {
				return fail(f, op, err)
			}

			if f.Mode() != format.ModeTable {
				return f.PrintData(summaries(records))
			}

			if len(records) == 0 {
				return f.PrintSummary("No reports journaled yet")
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ID,
					string(rec.Tier),
					shortID(rec.DeviceID),
					scoreCell(rec.RiskScore),
					rec.AnalyzedAt.Local().Format(time.DateTime),
					stringutil.Ellipsis(rec.Source, maxSourceWidth),
				})
			}
			if err := f.PrintTable([]string{"id", "tier", "device", "score", "analyzed", "source"}, rows); err != nil {
				return err
			}
			return f.PrintSummary(fmt.Sprintf("\n%d report(s)", len(records)))
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of reports to list (0 lists all)")

	return cmd
}

func newReportsShowCommand() *cobra.Command {
	var withDocument bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journaled analysis",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			const op = "show report"

			j, _, err := openJournal(cmd.Context())
			if err != nil {
				return fail(f, op, err)
			}

			rec, err := j.Get(cmd.Context(), args[0])
			if err != nil {
				return fail(f, op, err)
			}

			if f.Mode() != format.ModeTable {
				if withDocument {
					return f.PrintData(recordView{Record: *rec, Document: rawDocument(rec.Document)})
				}
				rec.Document = nil
				return f.PrintData(rec)
			}

			if err := f.PrintReport(recordReport(*rec)); err != nil {
				return err
			}
			if withDocument && len(rec.Document) > 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", rec.Document)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDocument, "document", false, "Include the canonical document")

	return cmd
}

// recordView exposes the stored document as data so YAML renders it as
// a mapping rather than raw bytes.
type recordView struct {
	journal.Record `yaml:",inline"`
	Document       any `json:"document,omitempty" yaml:"document,omitempty"`
}

func rawDocument(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return string(raw)
	}
	return doc
}

// summaries strips stored documents from a listing.
func summaries(records []journal.Record) []journal.Record {
	out := make([]journal.Record, len(records))
	for i, rec := range records {
		rec.Document = nil
		out[i] = rec
	}
	return out
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func scoreCell(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}

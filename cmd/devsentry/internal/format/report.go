package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Score bands used to colour the risk score.
const (
	highRiskScore   = 70
	mediumRiskScore = 30
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Report is the printable form of one analysis verdict.
type Report struct {
	Tier     string          `json:"tier" yaml:"tier"`
	DeviceID string          `json:"device_id" yaml:"device_id"`
	Score    *int            `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
	Flags    map[string]bool `json:"flags" yaml:"flags"`
	Text     string          `json:"risk_report" yaml:"risk_report"`
	RecordID string          `json:"record_id,omitempty" yaml:"record_id,omitempty"`
}

// PrintReport prints a boxed banner with the device ID and score, a flag
// table and the report lines. Structured modes print r as data.
func (f *formatter) PrintReport(r Report) error {
	if f.mode != ModeTable {
		return f.PrintData(r)
	}

	if _, err := fmt.Fprintln(f.stdout, f.banner(r)); err != nil {
		return err
	}

	if len(r.Flags) > 0 {
		if err := f.PrintTable([]string{"check", "detected"}, f.flagRows(r.Flags)); err != nil {
			return err
		}
	}

	if r.Text != "" {
		if _, err := fmt.Fprintf(f.stdout, "\n%s\n", r.Text); err != nil {
			return err
		}
	}

	if r.RecordID != "" {
		return f.PrintSummary("Saved as record " + r.RecordID)
	}
	return nil
}

func (f *formatter) banner(r Report) string {
	caser := cases.Title(language.English)
	title := caser.String(r.Tier) + " analysis"

	lines := []string{title, "Device  " + valueOr(r.DeviceID, "-")}
	if r.Score != nil {
		lines = append(lines, "Score   "+f.score(*r.Score))
	}

	style := bannerStyle
	if f.color {
		lines[0] = titleStyle.Render(lines[0])
		style = style.BorderForeground(lipgloss.Color(bandColor(r)))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (f *formatter) score(score int) string {
	if score < 0 {
		text := "failed"
		if f.color {
			return color.RedString(text)
		}
		return text
	}

	text := fmt.Sprintf("%d/100", score)
	if !f.color {
		return text
	}
	switch {
	case score >= highRiskScore:
		return color.RedString(text)
	case score >= mediumRiskScore:
		return color.YellowString(text)
	default:
		return color.GreenString(text)
	}
}

// flagRows renders flags sorted by key. Colour codes would break the
// tabwriter alignment, so cells stay plain.
func (f *formatter) flagRows(flags map[string]bool) [][]string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		state := "no"
		if flags[k] {
			state = "yes"
		}
		rows = append(rows, []string{FlagLabel(k), state})
	}
	return rows
}

// FlagLabel turns a result flag key into a title-cased label, e.g.
// "is_debug_mode" into "Debug Mode".
func FlagLabel(key string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(key, "is_"), "has_")
	return cases.Title(language.English).String(strings.ReplaceAll(trimmed, "_", " "))
}

func bandColor(r Report) string {
	flagged := false
	for _, v := range r.Flags {
		flagged = flagged || v
	}
	switch {
	case r.Score != nil && (*r.Score < 0 || *r.Score >= highRiskScore):
		return "9"
	case flagged:
		return "11"
	default:
		return "10"
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

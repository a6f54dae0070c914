package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/server"
)

func newTestFormatter(mode OutputMode, quiet bool) (Formatter, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return New(&stdout, &stderr, mode, quiet, false), &stdout, &stderr
}

func TestPrintJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name:     "simple object",
			data:     map[string]string{"device_id": "a1b2", "tier": "native"},
			expected: "{\n  \"device_id\": \"a1b2\",\n  \"tier\": \"native\"\n}\n",
		},
		{
			name:     "array",
			data:     []string{"root", "debug"},
			expected: "[\n  \"root\",\n  \"debug\"\n]\n",
		},
		{
			name:     "nil",
			data:     nil,
			expected: "null\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, stdout, _ := newTestFormatter(ModeJSON, false)
			require.NoError(t, f.PrintJSON(tt.data))
			require.Equal(t, tt.expected, stdout.String())
		})
	}
}

func TestPrintData_FollowsMode(t *testing.T) {
	data := map[string]any{"device_id": "a1b2", "risk_score": 60}

	f, stdout, _ := newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintData(data))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Equal(t, "a1b2", decoded["device_id"])

	for _, mode := range []OutputMode{ModeYAML, ModeTable} {
		f, stdout, _ := newTestFormatter(mode, false)
		require.NoError(t, f.PrintData(data))
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got), "mode %s", mode)
		require.Equal(t, 60, got["risk_score"])
	}
}

func TestPrintTable(t *testing.T) {
	headers := []string{"id", "tier"}
	rows := [][]string{{"r-1", "native"}, {"r-2", "platform"}}

	f, stdout, _ := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintTable(headers, rows))
	out := stdout.String()
	require.Contains(t, out, "ID")
	require.Contains(t, out, "TIER")
	require.Contains(t, out, "r-2  platform")

	f, stdout, _ = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintTable(headers, rows))
	var items []map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))
	require.Len(t, items, 2)
	require.Equal(t, "platform", items[1]["tier"])
}

func TestPrintSummary(t *testing.T) {
	f, stdout, stderr := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintSummary("3 records"))
	require.Equal(t, "3 records\n", stdout.String())
	require.Empty(t, stderr.String())

	f, stdout, stderr = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintSummary("3 records"))
	require.Empty(t, stdout.String())
	require.Equal(t, "3 records\n", stderr.String())

	f, stdout, stderr = newTestFormatter(ModeTable, true)
	require.NoError(t, f.PrintSummary("3 records"))
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

func TestPrintError(t *testing.T) {
	f, stdout, stderr := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintError(errors.New("boom")))
	require.Empty(t, stdout.String())
	require.Equal(t, "Error: boom\n", stderr.String())

	f, stdout, _ = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintError(errors.New("boom")))
	require.Contains(t, stdout.String(), `"success": false`)

	require.NoError(t, f.PrintError(nil))
}

func TestModes(t *testing.T) {
	for _, m := range []string{"json", "yaml", "table", "JSON"} {
		require.NoError(t, ValidateMode(m), m)
	}
	require.Error(t, ValidateMode("xml"))

	require.Equal(t, ModeJSON, ParseMode("json"))
	require.Equal(t, ModeYAML, ParseMode("YAML"))
	require.Equal(t, ModeTable, ParseMode("table"))
	require.Equal(t, ModeTable, ParseMode("unknown"))
}

func TestFromCommand(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("output", "table", "")
	cmd.Flags().Bool("quiet", false, "")
	require.NoError(t, cmd.Flags().Set("output", "yaml"))

	var out bytes.Buffer
	cmd.SetOut(&out)

	f := FromCommand(cmd)
	require.Equal(t, ModeYAML, f.Mode())
	require.NoError(t, f.PrintData(map[string]int{"n": 1}))
	require.Equal(t, "n: 1\n", out.String())
}

func TestFlagLabel(t *testing.T) {
	tests := map[string]string{
		"is_emulator":          "Emulator",
		"is_debug_mode":        "Debug Mode",
		"has_zygisk_injection": "Zygisk Injection",
		"rooted":               "Rooted",
	}
	for key, want := range tests {
		require.Equal(t, want, FlagLabel(key), key)
	}
}

func TestPrintReport_Table(t *testing.T) {
	score := 60
	r := Report{
		Tier:     "native",
		DeviceID: "4f1c9a",
		Score:    &score,
		Flags:    map[string]bool{"is_rooted": true, "is_emulator": false},
		Text:     "⚠️ Native risks found (risk score: 60/100):\n[HIGH] bootloader unlocked",
		RecordID: "rec-1",
	}

	f, stdout, _ := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintReport(r))
	out := stdout.String()

	require.Contains(t, out, "Native analysis")
	require.Contains(t, out, "Device  4f1c9a")
	require.Contains(t, out, "Score   60/100")
	require.Contains(t, out, "Rooted")
	require.Contains(t, out, "yes")
	require.Contains(t, out, "[HIGH] bootloader unlocked")
	require.Contains(t, out, "Saved as record rec-1")
}

func TestPrintReport_FailedScore(t *testing.T) {
	score := -1
	f, stdout, _ := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintReport(Report{Tier: "native", Score: &score}))
	require.Contains(t, stdout.String(), "Score   failed")
	require.Contains(t, stdout.String(), "Device  -")
}

func TestPrintReport_Structured(t *testing.T) {
	f, stdout, _ := newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintReport(Report{Tier: "platform", DeviceID: "d1", Flags: map[string]bool{"is_emulator": true}}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Equal(t, "platform", got["tier"])
	require.NotContains(t, got, "risk_score")
}

func TestPrintSuccessSummary(t *testing.T) {
	f, stdout, _ := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintSuccessSummary("watch", ""))
	require.Equal(t, "✓ Watch completed successfully\n", stdout.String())

	f, stdout, _ = newTestFormatter(ModeTable, true)
	require.NoError(t, f.PrintSuccessSummary("save", "rec-1"))
	require.Equal(t, "rec-1\n", stdout.String())

	f, stdout, _ = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintSuccessSummary("save", "rec-1"))
	require.Contains(t, stdout.String(), `"success": true`)
}

func TestPrintTotalFailureSummary(t *testing.T) {
	err := analysis.NewEmptyInputError("dump.txt")

	f, stdout, stderr := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintTotalFailureSummary("analyze dump", err, analysis.ErrorCode(err)))
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "✗ Failed to analyze dump: empty input: dump.txt")
	require.Contains(t, stderr.String(), "Suggestions")

	f, stdout, _ = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintTotalFailureSummary("analyze dump", err, analysis.ErrorCode(err)))
	require.Contains(t, stdout.String(), `"error_code": "ANALYSIS_EMPTY_INPUT"`)

	f, stdout, stderr = newTestFormatter(ModeTable, true)
	require.NoError(t, f.PrintTotalFailureSummary("analyze dump", err, analysis.ErrorCode(err)))
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

func TestGetSuggestions(t *testing.T) {
	portErr := server.NewInvalidPortError(0)
	require.NotEmpty(t, GetSuggestions(portErr, server.ErrorCode(portErr)))

	tierErr := errors.Join(analysis.ErrUnknownTier)
	require.NotEmpty(t, GetSuggestions(tierErr, analysis.ErrorCode(tierErr)))

	plain := errors.New("disk full")
	require.Empty(t, GetSuggestions(plain, analysis.ErrorCode(plain)))
	require.Nil(t, GetSuggestions(nil, ""))
}

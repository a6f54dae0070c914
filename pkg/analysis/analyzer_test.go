package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/risk"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestAnalyzeNative_CleanDevice(t *testing.T) {
	out := New().AnalyzeNative(string(readFixture(t, "native_pixel.txt")))

	require.NotNil(t, out.Document)
	assert.False(t, out.Document.IsEmpty())
	assert.Len(t, out.Result.NativeDeviceID, 64)
	assert.Equal(t, 0, out.Result.RiskScore)
	assert.Equal(t, "✅ Native environment clean (risk score: 0/100)", out.Result.RiskReport)
	assert.False(t, out.Result.IsEmulator)
	assert.False(t, out.Result.IsRooted)
	assert.False(t, out.Result.IsDebugMode)
	assert.False(t, out.Result.HasZygiskInjection)
}

func TestAnalyzeNative_RootedDevice(t *testing.T) {
	out := New().AnalyzeNative(string(readFixture(t, "native_rooted.txt")))

	r := out.Result
	assert.True(t, r.IsRooted)
	assert.True(t, r.IsDebugMode)
	assert.True(t, r.HasZygiskInjection)
	assert.False(t, r.IsEmulator)
	assert.Equal(t, risk.MaxScore, r.RiskScore)
	assert.True(t, strings.HasPrefix(r.RiskReport, "⚠️ Native risks found (risk score: 100/100):"))
	assert.Contains(t, out.Document.RiskTags, document.TagZygiskDetected)
	// libmagisk.so only appears in the non-system listing.
	assert.NotContains(t, out.Document.RiskTags, document.TagMagiskDetected)
}

func TestAnalyzeNative_Deterministic(t *testing.T) {
	raw := string(readFixture(t, "native_rooted.txt"))
	a := New()

	first := a.AnalyzeNative(raw)
	second := a.AnalyzeNative(raw)

	assert.Equal(t, first.Result, second.Result)
	d1, err := document.Marshal(first.Document)
	require.NoError(t, err)
	d2, err := document.Marshal(second.Document)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestAnalyzeNative_EmptyInput(t *testing.T) {
	out := New().AnalyzeNative("")

	assert.True(t, out.Document.IsEmpty())
	assert.Equal(t, 0, out.Result.RiskScore)
	assert.False(t, out.Result.IsEmulator || out.Result.IsRooted || out.Result.IsDebugMode || out.Result.HasZygiskInjection)
	assert.False(t, out.Result.Failed())
}

func TestAnalyzeNative_WithWeights(t *testing.T) {
	a := New(WithWeights(risk.Weights{
		risk.CategoryRoot:      1,
		risk.CategoryDebug:     1,
		risk.CategoryInjection: 1,
		risk.CategoryTags:      1,
	}))

	out := a.AnalyzeNative(string(readFixture(t, "native_rooted.txt")))

	assert.Equal(t, 4, out.Result.RiskScore)
}

func TestAnalyzeNativeDocument(t *testing.T) {
	a := New()
	out := a.AnalyzeNative(string(readFixture(t, "native_rooted.txt")))
	data, err := document.Marshal(out.Document)
	require.NoError(t, err)

	res := a.AnalyzeNativeDocument(data)

	assert.Equal(t, out.Result, res)
}

func TestAnalyzeNativeDocument_Malformed(t *testing.T) {
	res := New().AnalyzeNativeDocument([]byte("{not json"))

	assert.True(t, res.Failed())
	assert.Equal(t, FailedScore, res.RiskScore)
	assert.True(t, strings.HasPrefix(res.RiskReport, "❌ Native analysis failed: decode native document:"))
	assert.Empty(t, res.NativeDeviceID)
}

func TestAnalyzePlatform(t *testing.T) {
	raw, err := document.DecodePlatformDump(readFixture(t, "platform_pixel.json"))
	require.NoError(t, err)

	out := New().AnalyzePlatform(raw)

	assert.Len(t, out.Result.DeviceID, 64)
	assert.False(t, out.Result.IsEmulator)
	assert.False(t, out.Result.IsDebugMode)
	assert.True(t, strings.HasPrefix(out.Result.RiskReport, "✅ Device environment clean"))
}

func TestAnalyzePlatform_Emulator(t *testing.T) {
	raw := document.PlatformDump{
		GLRendererInfo: "Renderer: Android Emulator OpenGL ES Translator (Google SwiftShader) llvmpipe | Vendor: Google",
		SensorInfo:     "Sensor: {Sensor name=\"Goldfish 3-axis Accelerometer\", vendor=\"The Android Open Source Project\", type=1}",
	}

	out := New().AnalyzePlatform(raw)

	assert.True(t, out.Result.IsEmulator)
	assert.True(t, strings.HasPrefix(out.Result.RiskReport, "⚠️ Device risks found:"))
}

func TestAnalyzePlatform_Empty(t *testing.T) {
	out := New().AnalyzePlatform(document.PlatformDump{})

	assert.True(t, out.Document.IsEmpty())
	assert.False(t, out.Failed())
	assert.Equal(t, "✅ Device environment clean", out.Result.RiskReport)
}

func TestPlatformOutcome_FailedWithoutAssessment(t *testing.T) {
	assert.True(t, PlatformOutcome{}.Failed())
}

func TestNativeResult_JSONShape(t *testing.T) {
	data, err := json.Marshal(NativeResult{NativeDeviceID: "abc", RiskScore: 10})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"native_device_id", "risk_report", "is_emulator", "is_rooted", "is_debug_mode", "has_zygisk_injection", "risk_score"} {
		assert.Contains(t, m, key)
	}
}

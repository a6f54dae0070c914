package api

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/risk"
)

func TestMetrics_ObserveNative(t *testing.T) {
	m := NewMetrics()

	m.ObserveNative(analysis.NativeOutcome{
		Result: analysis.NativeResult{RiskScore: 40},
		Assessment: risk.Assessment{
			Score: 40,
			Flags: map[risk.Category]bool{risk.CategoryRoot: true, risk.CategoryTags: true},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("native")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detections.WithLabelValues("root")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detections.WithLabelValues("tags")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("native")))

	count, err := testutil.GatherAndCount(m.Registry, "devsentry_risk_score")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ObserveNativeFailure(t *testing.T) {
	m := NewMetrics()

	m.ObserveNative(analysis.NativeOutcome{Result: analysis.NativeResult{RiskScore: analysis.FailedScore}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("native")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("native")))
}

func TestMetrics_ObservePlatform(t *testing.T) {
	m := NewMetrics()

	out := analysis.New().AnalyzePlatform(document.PlatformDump{
		GLRendererInfo: "Renderer: llvmpipe | Vendor: Mesa",
	})
	m.ObservePlatform(out)
	m.ObservePlatform(analysis.PlatformOutcome{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("platform")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("platform")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detections.WithLabelValues("emulator")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveNative(analysis.NativeOutcome{})
		m.ObservePlatform(analysis.PlatformOutcome{})
	})
}

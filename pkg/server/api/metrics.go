package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/risk"
)

const metricsNamespace = "devsentry"

// Metrics instruments analyses served by the API. Each instance owns its
// registry so servers and tests never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	analyses   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	detections *prometheus.CounterVec
	riskScore  prometheus.Histogram
}

// NewMetrics creates and registers the analysis collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "analyses_total", Help: "Analyses performed by tier."},
			[]string{"tier"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "analysis_failures_total", Help: "Analyses that degraded to a failure report, by tier."},
			[]string{"tier"},
		),
		detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "detections_total", Help: "Flagged risk categories."},
			[]string{"category"},
		),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "risk_score",
			Help:      "Native risk score distribution.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
	m.Registry.MustRegister(m.analyses, m.failures, m.detections, m.riskScore)
	return m
}

// ObserveNative records a native outcome.
func (m *Metrics) ObserveNative(out analysis.NativeOutcome) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(string(analysis.TierNative)).Inc()
	if out.Result.Failed() {
		m.failures.WithLabelValues(string(analysis.TierNative)).Inc()
		return
	}
	m.observeCategories(out.Assessment)
	m.riskScore.Observe(float64(out.Result.RiskScore))
}

// ObservePlatform records a platform outcome. Platform analyses carry no
// score.
func (m *Metrics) ObservePlatform(out analysis.PlatformOutcome) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(string(analysis.TierPlatform)).Inc()
	if out.Failed() {
		m.failures.WithLabelValues(string(analysis.TierPlatform)).Inc()
		return
	}
	m.observeCategories(out.Assessment)
}

func (m *Metrics) observeCategories(a risk.Assessment) {
	for _, c := range a.FlaggedCategories() {
		m.detections.WithLabelValues(string(c)).Inc()
	}
}

package httpx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devsentry/devsentry/pkg/server/api"
	v1 "github.com/devsentry/devsentry/pkg/server/api/v1"
)

// NewRouter creates the main HTTP router with health, analysis, report
// and metrics endpoints mounted.
//
// Health endpoints are always enabled. /metrics is mounted only when
// deps.Metrics is set.
func NewRouter(deps *api.Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	mux.HandleFunc("POST /api/v1/analyze/native", v1.AnalyzeNativeHandler(deps))
	mux.HandleFunc("POST /api/v1/analyze/platform", v1.AnalyzePlatformHandler(deps))
	mux.HandleFunc("GET /api/v1/reports", v1.ListReportsHandler(deps))
	mux.HandleFunc("GET /api/v1/reports/{id}", v1.GetReportHandler(deps))

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
// It does not check dependencies; use /readyz for that.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

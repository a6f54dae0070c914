package v1

import (
	"net/http"

	"github.com/devsentry/devsentry/pkg/server/api"
)

// ListReportsHandler handles GET /api/v1/reports
//
// Returns journaled analyses, newest first.
//
// Response format:
//
//	{
//	  "reports": [{"id": "…", "tier": "native", "risk_score": 40, …}],
//	  "count": 1
//	}
func ListReportsHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseListReportsQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		if deps.Reports == nil {
			api.WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "report journal not configured")
			return
		}

		ctx, cancel := handlerContext(r, deps.Config)
		defer cancel()

		records, err := deps.Reports.List(ctx, query.Limit)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusOK, api.ReportListResponse{Reports: records, Count: len(records)})
	}
}

// GetReportHandler handles GET /api/v1/reports/{id}
//
// Returns 404 if no record has the id.
func GetReportHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := ValidateReportID(id); err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		if deps.Reports == nil {
			api.WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "report journal not configured")
			return
		}

		ctx, cancel := handlerContext(r, deps.Config)
		defer cancel()

		rec, err := deps.Reports.Get(ctx, id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusOK, rec)
	}
}

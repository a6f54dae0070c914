package v1

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/server/api"
)

const bodySource = "request body"

// AnalyzeNativeHandler handles POST /api/v1/analyze/native
//
// The body is the raw text dump. The response carries the canonical
// document and the native result; a degraded analysis still answers 200
// with risk_score -1.
//
// Query parameters:
//   - save: journal the result (default true)
//   - source: label stored on the journal record (default "api")
func AnalyzeNativeHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseAnalyzeQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		ctx, cancel := handlerContext(r, deps.Config)
		defer cancel()

		body, err := readBody(w, r, deps.Config.MaxBodyBytes)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		out := deps.Analyzer.AnalyzeNative(string(body))
		deps.Metrics.ObserveNative(out)

		resp := api.AnalyzeResponse{Document: out.Document, Result: out.Result}
		if query.Save {
			rec, err := journal.NativeRecord(query.Source, out)
			if err == nil {
				resp.RecordID, err = save(ctx, deps, &rec)
			}
			if err != nil {
				api.WriteError(w, r, err)
				return
			}
		}

		log.Debug().
			Str("component", "api").
			Str("tier", string(analysis.TierNative)).
			Int("risk_score", out.Result.RiskScore).
			Msg("Native dump analysed")

		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// AnalyzePlatformHandler handles POST /api/v1/analyze/platform
//
// The body is the platform dump as a JSON object. A body that is not a
// JSON object answers 400.
func AnalyzePlatformHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseAnalyzeQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		ctx, cancel := handlerContext(r, deps.Config)
		defer cancel()

		body, err := readBody(w, r, deps.Config.MaxBodyBytes)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		raw, err := document.DecodePlatformDump(body)
		if err != nil {
			api.WriteError(w, r, analysis.WrapUnreadable(bodySource, err))
			return
		}

		out := deps.Analyzer.AnalyzePlatform(raw)
		deps.Metrics.ObservePlatform(out)

		resp := api.AnalyzeResponse{Document: out.Document, Result: out.Result}
		if query.Save {
			rec, err := journal.PlatformRecord(query.Source, out)
			if err == nil {
				resp.RecordID, err = save(ctx, deps, &rec)
			}
			if err != nil {
				api.WriteError(w, r, err)
				return
			}
		}

		log.Debug().
			Str("component", "api").
			Str("tier", string(analysis.TierPlatform)).
			Bool("is_emulator", out.Result.IsEmulator).
			Msg("Platform dump analysed")

		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// readBody reads at most limit bytes and rejects blank bodies.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, analysis.WrapUnreadable(bodySource, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, analysis.NewEmptyInputError(bodySource)
	}
	return body, nil
}

// save journals rec when a report store is configured.
func save(ctx context.Context, deps *api.Deps, rec *journal.Record) (string, error) {
	if deps.Reports == nil {
		return "", nil
	}
	if err := deps.Reports.Append(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// handlerContext applies the handler timeout unless the request context
// already has a deadline.
func handlerContext(r *http.Request, cfg api.Config) (context.Context, context.CancelFunc) {
	ctx := r.Context()
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && cfg.HandlerTimeout > 0 {
		return context.WithTimeout(ctx, cfg.HandlerTimeout)
	}
	return context.WithCancel(ctx)
}

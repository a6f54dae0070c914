package api

import (
	"context"
	"sync/atomic"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/journal"
)

// Deps holds dependencies for API handlers.
type Deps struct {
	// Analyzer runs the dump pipeline.
	Analyzer *analysis.Analyzer

	// Reports persists analyses. When nil, analyses are not journaled and
	// the report endpoints answer 503.
	Reports ReportStore

	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics

	Config Config

	// Ready flag for readiness check
	Ready *atomic.Bool
}

// ReportStore is the subset of the journal the API needs. Defined here
// to ease mocking.
type ReportStore interface {
	Append(ctx context.Context, rec *journal.Record) error
	List(ctx context.Context, limit int) ([]journal.Record, error)
	Get(ctx context.Context, id string) (*journal.Record, error)
}

// AnalyzeResponse is returned by the analyze endpoints and printed by the
// CLI in structured output modes.
type AnalyzeResponse struct {
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Document any    `json:"document" yaml:"document"`
	Result   any    `json:"result" yaml:"result"`
}

// ReportListResponse wraps a page of journal records.
type ReportListResponse struct {
	Reports []journal.Record `json:"reports"`
	Count   int              `json:"count"`
}

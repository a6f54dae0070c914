package app

import (
	"github.com/rs/zerolog"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/server/jobs"
)

// Deps holds dependencies for the server application.
type Deps struct {
	Analyzer *analysis.Analyzer

	// Journal backs the report endpoints. Optional.
	Journal *journal.Journal

	// Tasks run in the background while the server is up, e.g. the inbox
	// watcher.
	Tasks []jobs.Task

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}

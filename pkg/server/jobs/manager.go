// Package jobs runs background work alongside the HTTP server.
package jobs

import "context"

// Manager runs background tasks for the lifetime of the server.
type Manager interface {
	// Start launches every task and returns immediately.
	Start(ctx context.Context) error

	// Stop cancels the tasks and waits for them to return or for ctx to
	// expire.
	Stop(ctx context.Context) error
}

// Task is a named unit of background work. Run blocks until ctx is
// cancelled; returning context.Canceled is a clean exit.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Status holds task runner statistics.
type Status struct {
	Running  int
	Finished int
	Failed   int
}

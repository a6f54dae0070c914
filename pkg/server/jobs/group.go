package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Group is an in-process Manager that runs each task in its own
// goroutine.
type Group struct {
	tasks []Task

	wg         sync.WaitGroup
	cancelFunc context.CancelFunc

	mu      sync.RWMutex
	started bool
	status  Status
}

// NewGroup creates a Group for tasks.
func NewGroup(tasks ...Task) *Group {
	return &Group{tasks: tasks}
}

// Start launches every task with a context derived from ctx.
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return fmt.Errorf("job group already started")
	}

	taskCtx, cancel := context.WithCancel(ctx)
	g.cancelFunc = cancel

	for _, task := range g.tasks {
		g.wg.Add(1)
		g.status.Running++
		go g.run(taskCtx, task)
	}

	g.started = true
	log.Info().
		Str("component", "jobs").
		Int("tasks", len(g.tasks)).
		Msg("Background jobs started")

	return nil
}

// Stop cancels every task and waits for them to return. It respects the
// deadline of ctx.
func (g *Group) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return nil
	}
	if g.cancelFunc != nil {
		g.cancelFunc()
	}
	g.started = false
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().
			Str("component", "jobs").
			Msg("Background jobs stopped")
		return nil
	case <-ctx.Done():
		log.Warn().
			Str("component", "jobs").
			Msg("Background jobs shutdown timed out")
		return ctx.Err()
	}
}

// Status returns a snapshot of task counters.
func (g *Group) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

func (g *Group) run(ctx context.Context, task Task) {
	defer g.wg.Done()

	log.Debug().
		Str("component", "jobs").
		Str("task", task.Name).
		Msg("Task started")

	err := task.Run(ctx)

	g.mu.Lock()
	g.status.Running--
	if err != nil && !errors.Is(err, context.Canceled) {
		g.status.Failed++
	} else {
		g.status.Finished++
	}
	g.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().
			Str("component", "jobs").
			Str("task", task.Name).
			Err(err).
			Msg("Task failed")
		return
	}
	log.Debug().
		Str("component", "jobs").
		Str("task", task.Name).
		Msg("Task stopped")
}

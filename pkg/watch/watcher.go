// Package watch analyses dumps dropped into the workspace inbox.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/journal"
	"github.com/devsentry/devsentry/pkg/workspace"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

const failedSuffix = ".failed"

// Result describes one processed inbox file.
type Result struct {
	Path   string
	Record journal.Record
	Err    error
}

// Option configures an InboxWatcher.
type Option func(*InboxWatcher)

// WithDebounce sets the quiet period a file must see before it is
// processed.
func WithDebounce(d time.Duration) Option {
	return func(w *InboxWatcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithNotify registers a callback invoked after each file is handled.
func WithNotify(fn func(Result)) Option {
	return func(w *InboxWatcher) {
		w.notify = fn
	}
}

// InboxWatcher watches the inbox directory. A file is analysed once it
// has been quiet for the debounce delay, journaled, and moved to the
// processed directory. Files that cannot be analysed are moved with a
// ".failed" suffix so they are not retried.
//
// Errors from a move after a successful journal append are only logged.
type InboxWatcher struct {
	inbox     string
	processed string

	analyzer *analysis.Analyzer
	journal  *journal.Journal
	watcher  *fsnotify.Watcher

	debounceDelay time.Duration
	logger        zerolog.Logger
	notify        func(Result)

	mu     sync.Mutex
	timers map[string]*time.Timer
	// journaled holds inbox paths that were recorded but could not be moved.
	journaled map[string]struct{}
	ready  chan string
	done   chan struct{}
}

// New creates an InboxWatcher for ws.
func New(ws workspace.Workspace, a *analysis.Analyzer, j *journal.Journal, logger zerolog.Logger, opts ...Option) (*InboxWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &InboxWatcher{
		inbox:         ws.Inbox(),
		processed:     ws.Processed(),
		analyzer:      a,
		journal:       j,
		watcher:       watcher,
		debounceDelay: DefaultDebounce,
		logger:        logger.With().Str("component", "watch").Logger(),
		timers:        make(map[string]*time.Timer),
		journaled:     make(map[string]struct{}),
		ready:         make(chan string, 16),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// TierFor maps an inbox file name to the tier it is analysed as.
func TierFor(name string) (analysis.Tier, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".dump":
		return analysis.TierNative, true
	case ".json":
		return analysis.TierPlatform, true
	default:
		return "", false
	}
}

// Start processes files already in the inbox, then watches for new ones.
// It blocks until ctx is cancelled.
func (w *InboxWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.inbox); err != nil {
		w.logger.Error().Err(err).Str("dir", w.inbox).Msg("Failed to watch inbox")
		return fmt.Errorf("watch inbox: %w", err)
	}

	w.logger.Info().
		Str("dir", w.inbox).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching inbox")

	defer func() {
		close(w.done)
		w.stopTimers()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching inbox")
	}()

	if err := w.sweep(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-w.ready:
			w.handle(ctx, path)

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if _, ok := TierFor(event.Name); !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected inbox change")
				w.schedule(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// Close releases the underlying watcher when Start was never called.
func (w *InboxWatcher) Close() error {
	return w.watcher.Close()
}

func (w *InboxWatcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := TierFor(e.Name()); ok && e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.handle(ctx, filepath.Join(w.inbox, name))
	}
	return nil
}

// schedule (re)arms the debounce timer for path.
func (w *InboxWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *InboxWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *InboxWatcher) handle(ctx context.Context, path string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return
	}
	if w.isJournaled(path) {
		return
	}

	rec, err := w.ProcessFile(ctx, path)
	res := Result{Path: path, Record: rec, Err: err}

	if err != nil {
		w.logger.Warn().Err(err).Str("file", path).Msg("Inbox file rejected")
		if moveErr := w.move(path, filepath.Base(path)+failedSuffix); moveErr != nil {
			w.logger.Error().Err(moveErr).Str("file", path).Msg("Failed to move rejected file")
		}
	} else {
		w.logger.Info().
			Str("file", path).
			Str("id", rec.ID).
			Str("tier", string(rec.Tier)).
			Msg("Inbox file analysed")
	}

	if w.notify != nil {
		w.notify(res)
	}
}

func (w *InboxWatcher) isJournaled(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.journaled[path]
	return ok
}

// ProcessFile analyses path, journals the result and moves the file to
// the processed directory. A file whose record is written but which
// cannot be moved is remembered and never journaled again.
func (w *InboxWatcher) ProcessFile(ctx context.Context, path string) (journal.Record, error) {
	tier, ok := TierFor(path)
	if !ok {
		_, err := analysis.ParseTier(filepath.Ext(path))
		return journal.Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return journal.Record{}, analysis.WrapUnreadable(path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return journal.Record{}, analysis.NewEmptyInputError(path)
	}

	source := filepath.Base(path)
	var rec journal.Record
	switch tier {
	case analysis.TierNative:
		rec, err = journal.NativeRecord(source, w.analyzer.AnalyzeNative(string(data)))
	case analysis.TierPlatform:
		raw, decodeErr := document.DecodePlatformDump(data)
		if decodeErr != nil {
			return journal.Record{}, analysis.WrapUnreadable(path, decodeErr)
		}
		rec, err = journal.PlatformRecord(source, w.analyzer.AnalyzePlatform(raw))
	}
	if err != nil {
		return journal.Record{}, err
	}

	if err := w.journal.Append(ctx, &rec); err != nil {
		return journal.Record{}, fmt.Errorf("journal %s: %w", source, err)
	}
	if err := w.move(path, source); err != nil {
		w.logger.Error().Err(err).Str("file", path).Str("id", rec.ID).Msg("Journaled file left in inbox")
		w.mu.Lock()
		w.journaled[path] = struct{}{}
		w.mu.Unlock()
	}
	return rec, nil
}

// move renames path into the processed directory, disambiguating name
// collisions with a timestamp.
func (w *InboxWatcher) move(path, name string) error {
	target := filepath.Join(w.processed, name)
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(w.processed, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	}
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	return nil
}

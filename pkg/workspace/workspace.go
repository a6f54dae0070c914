// Package workspace resolves and prepares the on-disk workspace that holds
// the analysis journal and the watcher inbox.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnvVar overrides the default workspace root.
const EnvVar = "DEVSENTRY_WORKSPACE"

const (
	JournalDir   = "journal"
	InboxDir     = "inbox"
	ProcessedDir = "processed"
)

// Workspace is a prepared workspace root.
type Workspace struct {
	Root string
}

// Journal returns the journal directory.
func (w Workspace) Journal() string { return filepath.Join(w.Root, JournalDir) }

// Inbox returns the directory the watcher consumes.
func (w Workspace) Inbox() string { return filepath.Join(w.Root, InboxDir) }

// Processed returns the directory analysed inbox files are moved to.
func (w Workspace) Processed() string { return filepath.Join(w.Root, ProcessedDir) }

// Dirs lists the directories Prepare creates under the root.
func (w Workspace) Dirs() []string {
	return []string{w.Journal(), w.Inbox(), w.Processed()}
}

// Prepare ensures the workspace root and its subdirectories exist. An
// empty root resolves to the default location.
func Prepare(root string) (Workspace, error) {
	if root == "" {
		var err error
		root, err = hostLocator().root()
		if err != nil {
			return Workspace{}, err
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workspace path: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o750); err != nil {
		return Workspace{}, fmt.Errorf("create workspace root: %w", err)
	}

	ws := Workspace{Root: absRoot}
	for _, dir := range ws.Dirs() {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return Workspace{}, fmt.Errorf("create workspace dir %s: %w", filepath.Base(dir), err)
		}
	}
	return ws, nil
}

type ctxKey string

const workspaceKey ctxKey = "workspace"

// WithContext stores the prepared workspace on ctx.
func WithContext(ctx context.Context, ws Workspace) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, workspaceKey, ws)
}

// FromContext extracts the workspace from ctx.
func FromContext(ctx context.Context) (Workspace, bool) {
	if ctx == nil {
		return Workspace{}, false
	}
	if ws, ok := ctx.Value(workspaceKey).(Workspace); ok && ws.Root != "" {
		return ws, true
	}
	return Workspace{}, false
}

// locator resolves the default root from the host environment.
type locator struct {
	goos   string
	home   func() (string, error)
	getenv func(string) string
}

func hostLocator() locator {
	return locator{goos: runtime.GOOS, home: os.UserHomeDir, getenv: os.Getenv}
}

func (l locator) root() (string, error) {
	if dir := l.getenv(EnvVar); dir != "" {
		return dir, nil
	}

	home, err := l.home()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if home == "" {
		return "", errors.New("cannot determine workspace directory")
	}

	switch l.goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "devsentry"), nil
	case "windows":
		if appData := l.getenv("AppData"); appData != "" {
			return filepath.Join(appData, "devsentry"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "devsentry"), nil
	default:
		if xdg := l.getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "devsentry"), nil
		}
		return filepath.Join(home, ".local", "share", "devsentry"), nil
	}
}

// Package appctx carries process-wide values, such as the loaded
// configuration, on a context between the root command and its
// subcommands.
package appctx

import (
	"context"

	"github.com/devsentry/devsentry/pkg/config"
)

type ctxKey struct{ name string }

var configKey = ctxKey{name: "config"}

// WithConfig returns a copy of ctx carrying manager. A nil ctx is
// treated as context.Background().
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config returns the manager stored by WithConfig.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// Settings returns the configuration currently held by the stored
// manager.
func Settings(ctx context.Context) (config.Config, bool) {
	mgr, ok := Config(ctx)
	if !ok {
		return config.Config{}, false
	}
	return mgr.Get(), true
}

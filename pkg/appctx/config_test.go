package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/config"
)

func TestWithConfig_RoundTrip(t *testing.T) {
	manager := config.NewManager()

	//nolint:staticcheck // nil context is part of the contract
	for _, parent := range []context.Context{context.Background(), nil} {
		got, ok := Config(WithConfig(parent, manager))
		require.True(t, ok)
		assert.Same(t, manager, got)
	}
}

func TestConfig_Missing(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"nil context", nil},
		{"empty context", context.Background()},
		{"nil manager", WithConfig(context.Background(), nil)},
		{"wrong type under a string key", context.WithValue(context.Background(), "config", "not a manager")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Config(tt.ctx)
			assert.False(t, ok)
		})
	}
}

func TestSettings(t *testing.T) {
	manager := config.NewManager()
	require.NoError(t, manager.Load(nil, ""))

	cfg, ok := Settings(WithConfig(context.Background(), manager))
	require.True(t, ok)
	assert.Equal(t, config.DefaultConfig().Server.Port, cfg.Server.Port)

	_, ok = Settings(context.Background())
	assert.False(t, ok)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/risk"
)

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, -1, cfg.Analysis.FailAbove)
	assert.Equal(t, risk.DefaultWeights(), cfg.Analysis.Weights())
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "none", cfg.Server.Auth.Mode)
	require.NoError(t, Validate(cfg))
}

func TestDefaultConfigAsMap_CoversEveryKey(t *testing.T) {
	m := DefaultConfigAsMap()

	for _, key := range []string{
		"log.level", "log.format",
		"analysis.emulator_weight", "analysis.root_weight", "analysis.debug_weight",
		"analysis.injection_weight", "analysis.tags_weight", "analysis.fail_above",
		"workspace.dir", "watch.debounce",
		"server.addr", "server.port", "server.max_body_bytes",
		"server.read_timeout", "server.write_timeout",
		"server.auth.mode", "server.auth.token",
	} {
		assert.Contains(t, m, key)
	}
}

func TestManager_LoadDefaults(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Load(nil, ""))

	assert.Equal(t, DefaultConfig(), manager.Get())
	assert.Equal(t, "info", manager.Koanf().String("log.level"))
}

func TestManager_LoadPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "devsentry.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
log:
  level: warn
analysis:
  debug_weight: 25
server:
  port: 7000
`), 0o644))
	t.Setenv("DEVSENTRY_SERVER_PORT", "7100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	BindServerFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log.level=error"}))

	manager := NewManager()
	require.NoError(t, manager.Load(flags, configPath))
	cfg := manager.Get()

	assert.Equal(t, "error", cfg.Log.Level, "flag beats file")
	assert.Equal(t, 7100, cfg.Server.Port, "env beats file")
	assert.Equal(t, 25, cfg.Analysis.DebugWeight, "file beats defaults")
	assert.Equal(t, "127.0.0.1", cfg.Server.Addr, "unchanged flags keep defaults")
}

func TestManager_LoadDebugFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--debug"}))

	manager := NewManager()
	require.NoError(t, manager.Load(flags, ""))

	assert.Equal(t, "debug", manager.Get().Log.Level)
}

func TestManager_LoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad format", map[string]string{"DEVSENTRY_LOG_FORMAT": "xml"}},
		{"weight above cap", map[string]string{"DEVSENTRY_ANALYSIS_ROOT_WEIGHT": "150"}},
		{"token mode without token", map[string]string{"DEVSENTRY_SERVER_AUTH_MODE": "token"}},
		{"unknown auth mode", map[string]string{"DEVSENTRY_SERVER_AUTH_MODE": "oidc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			manager := NewManager()

			err := manager.Load(nil, "")

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Equal(t, Config{}, manager.Get(), "failed load keeps the previous config")
		})
	}
}

func TestManager_TokenModeWithToken(t *testing.T) {
	t.Setenv("DEVSENTRY_SERVER_AUTH_MODE", "token")
	t.Setenv("DEVSENTRY_SERVER_AUTH_TOKEN", "abc")

	manager := NewManager()
	require.NoError(t, manager.Load(nil, ""))

	assert.Equal(t, "abc", manager.Get().Server.Auth.Token)
}

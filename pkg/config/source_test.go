package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSource_Load(t *testing.T) {
	k := koanf.New(".")
	src := &DefaultSource{}

	require.NoError(t, src.Load(k))

	assert.Equal(t, 10, src.Priority())
	assert.Equal(t, "info", k.String("log.level"))
	assert.Equal(t, "console", k.String("log.format"))
	assert.Equal(t, 50, k.Int("analysis.injection_weight"))
}

func TestFileSource_Load_SkipsMissing(t *testing.T) {
	k := koanf.New(".")

	require.NoError(t, (&FileSource{Path: ""}).Load(k), "empty path should skip silently")
	require.NoError(t, (&FileSource{Path: "/nonexistent/path/config.yaml"}).Load(k), "missing file should skip silently")
}

func TestFileSource_Load_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: warn
  format: json
analysis:
  root_weight: 35
server:
  port: 9999
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	k := koanf.New(".")
	src := &FileSource{Path: configPath}
	require.NoError(t, src.Load(k))

	assert.Equal(t, "file:"+configPath, src.Name())
	assert.Equal(t, "warn", k.String("log.level"))
	assert.Equal(t, "json", k.String("log.format"))
	assert.Equal(t, 35, k.Int("analysis.root_weight"))
	assert.Equal(t, 9999, k.Int("server.port"))
}

func TestFileSource_Load_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log: [unterminated"), 0o644))

	err := (&FileSource{Path: configPath}).Load(koanf.New("."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
}

func TestEnvSource_Load(t *testing.T) {
	t.Setenv("DEVSENTRY_LOG_LEVEL", "error")
	t.Setenv("DEVSENTRY_SERVER_PORT", "8888")
	t.Setenv("DEVSENTRY_SERVER_AUTH_TOKEN", "s3cret")
	t.Setenv("DEVSENTRY_ANALYSIS_FAIL_ABOVE", "60")

	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))

	assert.Equal(t, "error", k.String("log.level"))
	assert.Equal(t, 8888, k.Int("server.port"))
	assert.Equal(t, "s3cret", k.String("server.auth.token"))
	assert.Equal(t, 60, k.Int("analysis.fail_above"))
}

func TestEnvSource_IgnoresUnknownVariables(t *testing.T) {
	t.Setenv("DEVSENTRY_WORKSPACE", "/tmp/ws")
	t.Setenv("DEVSENTRY_NOT_A_KEY", "x")

	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))

	assert.Empty(t, k.Keys())
}

func TestFlagSource_Load(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log.level", "info", "")
	require.NoError(t, flags.Set("log.level", "debug"))

	k := koanf.New(".")
	src := &FlagSource{Flags: flags}
	require.NoError(t, src.Load(k))

	assert.Equal(t, 40, src.Priority())
	assert.Equal(t, "debug", k.String("log.level"))
}

func TestFlagSource_Load_DebugFlag(t *testing.T) {
	k := koanf.New(".")

	require.NoError(t, (&FlagSource{Debug: true}).Load(k))

	assert.Equal(t, "debug", k.String("log.level"))
}

func TestDefaultSources_Order(t *testing.T) {
	sources := DefaultSources("/tmp/config.yaml", nil, false)

	require.Len(t, sources, 4)
	names := []string{"defaults", "file:/tmp/config.yaml", "env", "flags"}
	for i, src := range sources {
		assert.Equal(t, names[i], src.Name())
		if i > 0 {
			assert.Greater(t, src.Priority(), sources[i-1].Priority())
		}
	}
}

func TestLoadWithSources_CustomSource(t *testing.T) {
	custom := &mockConfigSource{
		name:     "custom",
		priority: 25,
		loadFunc: func(k *koanf.Koanf) error {
			return k.Set("watch.debounce", "2s")
		},
	}

	manager := NewManager()
	require.NoError(t, manager.LoadWithSources([]ConfigSource{&DefaultSource{}, custom, &EnvSource{}}))

	assert.Equal(t, 2*time.Second, manager.Get().Watch.Debounce)
}

func TestLoadWithSources_PriorityOrdering(t *testing.T) {
	t.Setenv("DEVSENTRY_LOG_LEVEL", "warn")

	manager := NewManager()
	sources := []ConfigSource{
		&EnvSource{},     // priority 30
		&DefaultSource{}, // priority 10, loaded first despite order
	}
	require.NoError(t, manager.LoadWithSources(sources))

	assert.Equal(t, "warn", manager.Get().Log.Level)
}

func TestLoadWithSources_SourceError(t *testing.T) {
	failing := &mockConfigSource{
		name:     "broken",
		priority: 15,
		loadFunc: func(*koanf.Koanf) error { return errors.New("boom") },
	}

	manager := NewManager()
	err := manager.LoadWithSources([]ConfigSource{&DefaultSource{}, failing})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config source broken")
}

type mockConfigSource struct {
	name     string
	priority int
	loadFunc func(k *koanf.Koanf) error
}

func (m *mockConfigSource) Name() string  { return m.name }
func (m *mockConfigSource) Priority() int { return m.priority }
func (m *mockConfigSource) Load(k *koanf.Koanf) error {
	if m.loadFunc != nil {
		return m.loadFunc(k)
	}
	return nil
}

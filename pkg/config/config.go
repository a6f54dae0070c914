// Package config loads devsentry configuration from defaults, a YAML
// file, DEVSENTRY_* environment variables and command-line flags.
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/devsentry/devsentry/pkg/risk"
)

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with its own koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	weights := risk.DefaultWeights()
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Analysis: AnalysisConfig{
			EmulatorWeight:  weights[risk.CategoryEmulator],
			RootWeight:      weights[risk.CategoryRoot],
			DebugWeight:     weights[risk.CategoryDebug],
			InjectionWeight: weights[risk.CategoryInjection],
			TagsWeight:      weights[risk.CategoryTags],
			FailAbove:       -1,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Server: DefaultServerConfig(),
	}
}

// Load loads configuration with the default source chain.
func (m *Manager) Load(flags *pflag.FlagSet, configPath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(configPath, flags, debug))
}

// LoadWithSources loads sources in ascending priority, unmarshals the
// merged result and validates it. The previous configuration is kept when
// any step fails.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]ConfigSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = cfg
	return nil
}

// Validate checks field constraints declared on the config structs.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Koanf exposes the merged key space, mainly for diagnostics.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// DefaultConfigAsMap flattens DefaultConfig for the confmap provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"analysis.emulator_weight":  def.Analysis.EmulatorWeight,
		"analysis.root_weight":      def.Analysis.RootWeight,
		"analysis.debug_weight":     def.Analysis.DebugWeight,
		"analysis.injection_weight": def.Analysis.InjectionWeight,
		"analysis.tags_weight":      def.Analysis.TagsWeight,
		"analysis.fail_above":       def.Analysis.FailAbove,

		"workspace.dir": def.Workspace.Dir,

		"watch.debounce": def.Watch.Debounce,

		"server.addr":            def.Server.Addr,
		"server.port":            def.Server.Port,
		"server.max_body_bytes":  def.Server.MaxBodyBytes,
		"server.read_timeout":    def.Server.ReadTimeout,
		"server.write_timeout":   def.Server.WriteTimeout,
		"server.handler_timeout": def.Server.HandlerTimeout,
		"server.watch_inbox":     def.Server.WatchInbox,
		"server.auth.mode":       def.Server.Auth.Mode,
		"server.auth.token":      def.Server.Auth.Token,
	}
}

// BindFlags defines the global flags shared by every command.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log.level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log.format", defaults.Log.Format, "Log format (console, json)")
	flags.String("workspace.dir", "", "Workspace root directory")
}

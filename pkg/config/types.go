package config

import (
	"time"

	"github.com/devsentry/devsentry/pkg/risk"
)

// Config is the root configuration structure for devsentry.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Analysis  AnalysisConfig  `description:"Risk analysis configuration" koanf:"analysis"`
	Workspace WorkspaceConfig `description:"Workspace configuration" koanf:"workspace"`
	Watch     WatchConfig     `description:"Inbox watcher configuration" koanf:"watch"`
	Server    ServerConfig    `description:"HTTP API configuration" koanf:"server"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level: trace|debug|info|warn|error" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `description:"Log format: console|json" koanf:"format" validate:"oneof=console json"`
}

// AnalysisConfig holds the per-category risk weights and the CLI failure
// threshold.
type AnalysisConfig struct {
	EmulatorWeight  int `description:"Score added when the emulator category fires" koanf:"emulator_weight" validate:"min=0,max=100"`
	RootWeight      int `description:"Score added when the root category fires" koanf:"root_weight" validate:"min=0,max=100"`
	DebugWeight     int `description:"Score added when the debug category fires" koanf:"debug_weight" validate:"min=0,max=100"`
	InjectionWeight int `description:"Score added when the injection category fires" koanf:"injection_weight" validate:"min=0,max=100"`
	TagsWeight      int `description:"Score added when unconsumed risk tags are present" koanf:"tags_weight" validate:"min=0,max=100"`
	// FailAbove makes analyze exit non-zero when the native score is
	// higher. Negative disables the check.
	FailAbove int `description:"Fail when the native risk score exceeds this value (-1 disables)" koanf:"fail_above" validate:"min=-1,max=100"`
}

// Weights converts the configured weights for the risk engine.
func (c AnalysisConfig) Weights() risk.Weights {
	return risk.Weights{
		risk.CategoryEmulator:  c.EmulatorWeight,
		risk.CategoryRoot:      c.RootWeight,
		risk.CategoryDebug:     c.DebugWeight,
		risk.CategoryInjection: c.InjectionWeight,
		risk.CategoryTags:      c.TagsWeight,
	}
}

// WorkspaceConfig locates the workspace root.
type WorkspaceConfig struct {
	Dir string `description:"Workspace root (default $DEVSENTRY_WORKSPACE or ~/.local/share/devsentry)" koanf:"dir"`
}

// WatchConfig tunes the inbox watcher.
type WatchConfig struct {
	Debounce time.Duration `description:"Quiet period before an inbox file is processed" koanf:"debounce" validate:"min=0"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr string `description:"Server listen address" koanf:"addr" validate:"required"`
	Port int    `description:"Server listen port" koanf:"port" validate:"min=1,max=65535"`

	MaxBodyBytes int64 `description:"Maximum accepted request body size in bytes" koanf:"max_body_bytes" validate:"min=1"`

	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout"`

	HandlerTimeout time.Duration `description:"Maximum time an API handler may run" koanf:"handler_timeout" validate:"min=0"`

	WatchInbox bool `description:"Process the workspace inbox in the background while serving" koanf:"watch_inbox"`

	Auth AuthConfig `description:"Authentication configuration" koanf:"auth"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode  string `description:"Authentication mode: none|token" koanf:"mode" validate:"oneof=none token"`
	Token string `description:"Static bearer token (required for token mode)" koanf:"token" validate:"required_if=Mode token"`
}

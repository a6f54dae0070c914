package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "127.0.0.1",
		Port:           8080,
		MaxBodyBytes:   4 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		HandlerTimeout: 30 * time.Second,
		Auth: AuthConfig{
			Mode: "none",
		},
	}
}

// BindServerFlags binds server flags to the provided FlagSet. Flags are
// namespaced under 'server.' so posflag maps them straight onto config
// keys, e.g. --server.addr, --server.port.
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Int64("server.max_body_bytes", defaults.MaxBodyBytes, "Maximum accepted request body size in bytes")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Duration("server.handler_timeout", defaults.HandlerTimeout, "Maximum time an API handler may run")
	flags.Bool("server.watch_inbox", defaults.WatchInbox, "Process the workspace inbox in the background")
	flags.String("server.auth.mode", defaults.Auth.Mode, "Authentication mode: none|token")
	flags.String("server.auth.token", "", "Static bearer token for token mode")
}

// Validate checks a server configuration assembled outside the Manager,
// e.g. after command-line overrides.
func (c ServerConfig) Validate() error {
	return validate.Struct(c)
}

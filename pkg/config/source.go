package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Load priorities of the built-in sources. A custom source slots between
// them, e.g. a secrets file at 25 overrides the config file but not env.
const (
	PriorityDefaults = 10
	PriorityFile     = 20
	PriorityEnv      = 30
	PriorityFlags    = 40
)

// DefaultEnvPrefix is the environment variable prefix for config keys.
const DefaultEnvPrefix = "DEVSENTRY_"

// ConfigSource is one configuration layer. Manager loads layers in
// ascending Priority, so later layers override earlier ones key by key.
type ConfigSource interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSource seeds every known key from DefaultConfig.
type DefaultSource struct{}

func (*DefaultSource) Name() string  { return "defaults" }
func (*DefaultSource) Priority() int { return PriorityDefaults }

func (*DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}
	return nil
}

// FileSource reads a YAML config file. An empty Path or a missing file
// contributes nothing.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return PriorityFile }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("parse config file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource maps PREFIX_SECTION_KEY variables onto known keys:
//
//	DEVSENTRY_LOG_LEVEL         -> log.level
//	DEVSENTRY_SERVER_AUTH_TOKEN -> server.auth.token
//
// Variables that name no known key are dropped, so DEVSENTRY_WORKSPACE
// (read by the workspace package) never leaks into the config tree.
type EnvSource struct {
	Prefix string
}

func (*EnvSource) Name() string  { return "env" }
func (*EnvSource) Priority() int { return PriorityEnv }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	keys := DefaultConfigAsMap()
	byEnvName := make(map[string]string, len(keys))
	for key := range keys {
		byEnvName[strings.ReplaceAll(key, ".", "_")] = key
	}

	cb := func(name string) string {
		return byEnvName[strings.ToLower(strings.TrimPrefix(name, prefix))]
	}
	if err := k.Load(env.Provider(prefix, ".", cb), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}

// FlagSource applies command-line flags. Flags the user did not set only
// fill keys no lower layer provided. Debug forces log.level=debug.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool
}

func (*FlagSource) Name() string  { return "flags" }
func (*FlagSource) Priority() int { return PriorityFlags }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		if err := k.Load(posflag.Provider(s.Flags, ".", k), nil); err != nil {
			return fmt.Errorf("load flags: %w", err)
		}
	}
	if s.Debug {
		return k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources is the CLI stack: defaults, file, env, flags.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	return []ConfigSource{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&EnvSource{Prefix: DefaultEnvPrefix},
		&FlagSource{Flags: flags, Debug: debug},
	}
}

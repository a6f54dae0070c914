// Package paths resolves per-user locations outside the workspace.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the file read from ConfigDir when --config is not
// given.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory for devsentry.
// Order: XDG_CONFIG_HOME/devsentry, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devsentry")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "devsentry")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "devsentry")
}

// ConfigFile returns the default configuration file path. The file is
// optional; a missing file is skipped by the loader.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

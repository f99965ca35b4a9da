package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/goodvibes/internal/core/config"
)

// Flags holds the global flag values shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is set by the root Before hook.
	Config *config.Config
}

// DefaultConfigPath is $XDG_CONFIG_HOME/goodvibes/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgHome("XDG_CONFIG_HOME", ".config"), "goodvibes", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/goodvibes.
func DefaultDataDir() string {
	return filepath.Join(xdgHome("XDG_DATA_HOME", ".local", "share"), "goodvibes")
}

// xdgHome returns $env, or ~/<fallback...> when unset.
func xdgHome(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Application directory name used across all platforms.
const appName = "gallery-cli"

// Config file name.
const configFileName = "config.toml"

// Session and ledger file names inside the data directory.
const (
	sessionFileName = "session.json"
	historyDBName   = "history.db"
)

// DefaultConfigDir returns the platform-specific directory for config
// files. On Linux, respects XDG_CONFIG_HOME (defaults to
// ~/.config/gallery-cli). On macOS, uses ~/Library/Application Support
// per Apple guidelines.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}

		return filepath.Join(home, ".config", appName)
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), configFileName)
}

// DefaultDataDir returns the platform-specific directory for mutable
// state (session file, import history). On Linux, respects
// XDG_DATA_HOME (defaults to ~/.local/share/gallery-cli).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}

		return filepath.Join(home, ".local", "share", appName)
	}
}

// SessionPath returns the session file location inside the data dir.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, sessionFileName)
}

// HistoryDBPath returns the import-history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, historyDBName)
}

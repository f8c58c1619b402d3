// Package config loads and resolves gallery-cli configuration from the
// override chain: defaults -> TOML config file -> environment variables
// -> CLI flags. CLI flags always win.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Default values: layer 0 of the override chain. Chosen so the client
// works against a local development server with no config file at all.
const (
	defaultServerURL   = "http://localhost:5000"
	defaultTimeoutSecs = 30
	defaultLogLevel    = "info"

	// defaultPasswordKey matches the key the server ships with. It is a
	// default rather than a constant wired into the client code paths,
	// so deployments can rotate it via config file or environment.
	defaultPasswordKey = "Kedhareswarmatha"
)

// Config is the on-disk TOML configuration.
type Config struct {
	ServerURL   string `toml:"server_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
	PasswordKey string `toml:"password_key"`
	LogLevel    string `toml:"log_level"`
	DataDir     string `toml:"data_dir"`
}

// DefaultConfig returns a Config populated with all default values.
// Used both as the starting point for TOML decoding (unset fields keep
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   defaultServerURL,
		TimeoutSecs: defaultTimeoutSecs,
		PasswordKey: defaultPasswordKey,
		LogLevel:    defaultLogLevel,
		DataDir:     DefaultDataDir(),
	}
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate checks a fully resolved Config.
func Validate(cfg *Config) error {
	if cfg.ServerURL == "" {
		return errors.New("server_url must not be empty")
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not a valid URL", cfg.ServerURL)
	}

	if cfg.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout_secs must be positive, got %d", cfg.TimeoutSecs)
	}

	if cfg.PasswordKey == "" {
		return errors.New("password_key must not be empty")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel)
	}

	return nil
}

package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "GALLERY_CLI_CONFIG"
	EnvServerURL   = "GALLERY_CLI_SERVER_URL"
	EnvPasswordKey = "GALLERY_CLI_PASSWORD_KEY"
	EnvDataDir     = "GALLERY_CLI_DATA_DIR"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath  string // GALLERY_CLI_CONFIG: override config file path
	ServerURL   string // GALLERY_CLI_SERVER_URL: server base URL
	PasswordKey string // GALLERY_CLI_PASSWORD_KEY: password envelope key
	DataDir     string // GALLERY_CLI_DATA_DIR: session/history location
}

// CLIOverrides holds values from command-line flags, the highest
// priority layer.
type CLIOverrides struct {
	ConfigPath string
	ServerURL  string
	DataDir    string
}

// ReadEnvOverrides reads environment variables and returns any
// overrides found. This does not modify a Config; Resolve applies the
// relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:  os.Getenv(EnvConfig),
		ServerURL:   os.Getenv(EnvServerURL),
		PasswordKey: os.Getenv(EnvPasswordKey),
		DataDir:     os.Getenv(EnvDataDir),
	}
}

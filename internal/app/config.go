package app

import (
	"io"

	"stratus/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Custom configuration directory (config.yaml and .env)
	ConfigPath string

	// LogLevel overrides log_level from the configuration when set
	LogLevel string

	// NoBrowser forces the console anchor for interactive sign-in
	NoBrowser bool

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Settings is filled in by NewApplication
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(configPath, logLevel string, noBrowser bool) *Config {
	return &Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		NoBrowser:  noBrowser,
	}
}

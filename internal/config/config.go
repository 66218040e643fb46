// Package config loads plugin configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config validation errors
var (
	ErrInvalidLogFormat   = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidSyncTimeout = errors.New("sync_timeout must be positive")
	ErrInvalidDropTimeout = errors.New("drop_timeout must be positive")
)

// Config holds the pack's environment-driven settings. All variables carry
// the RECLAIM_ prefix, e.g. RECLAIM_LOG_LEVEL.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Bounds for the POSIX cache-clearing sub-commands
	SyncTimeout time.Duration `envconfig:"SYNC_TIMEOUT" default:"30s"`
	DropTimeout time.Duration `envconfig:"DROP_TIMEOUT" default:"10s"`

	// MetricsAddr enables the debug Prometheus listener when non-empty
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

// Load reads .env if present, then the RECLAIM_* environment, then validates.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RECLAIM", &cfg); err != nil {
		return Config{}, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	if cfg.SyncTimeout <= 0 {
		return ErrInvalidSyncTimeout
	}
	if cfg.DropTimeout <= 0 {
		return ErrInvalidDropTimeout
	}
	return nil
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		LogFormat:   "json",
		LogLevel:    "info",
		SyncTimeout: 30 * time.Second,
		DropTimeout: 10 * time.Second,
	}
}

package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, ValidateConfig(&cfg))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"zero sync timeout", func(c *Config) { c.SyncTimeout = 0 }, ErrInvalidSyncTimeout},
		{"negative drop timeout", func(c *Config) { c.DropTimeout = -time.Second }, ErrInvalidDropTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, ValidateConfig(&cfg), tt.wantErr)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RECLAIM_LOG_LEVEL", "debug")
	t.Setenv("RECLAIM_SYNC_TIMEOUT", "5s")
	t.Setenv("RECLAIM_METRICS_ADDR", "127.0.0.1:9090")

	var cfg Config
	require.NoError(t, envconfig.Process("RECLAIM", &cfg))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.SyncTimeout)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)

	// Untouched fields keep their struct-tag defaults
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.DropTimeout)
}

func TestLoad(t *testing.T) {
	t.Setenv("RECLAIM_LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("RECLAIM_LOG_LEVEL", "shouting")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

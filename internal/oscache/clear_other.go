//go:build !linux && !darwin && !windows

package oscache

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmswth/reclaim/internal/errors"
)

// noopClearer covers OS families with no cache-clearing implementation.
type noopClearer struct {
	logger zerolog.Logger
}

// New returns a no-op clearer for unsupported OS families.
func New(logger zerolog.Logger) Clearer {
	return &noopClearer{logger: logger}
}

// NewWithTimeouts matches the POSIX constructor signature.
func NewWithTimeouts(logger zerolog.Logger, _, _ time.Duration) Clearer {
	return New(logger)
}

func (c *noopClearer) Clear(_ context.Context) []*errors.Warning {
	c.logger.Info().Str("os", runtime.GOOS).Msg("system cache clearing not implemented on this OS")
	return nil
}

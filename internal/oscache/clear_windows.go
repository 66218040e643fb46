//go:build windows

package oscache

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmswth/reclaim/internal/errors"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	psapi                 = syscall.NewLazyDLL("psapi.dll")
	procGetCurrentProcess = kernel32.NewProc("GetCurrentProcess")
	procEmptyWorkingSet   = psapi.NewProc("EmptyWorkingSet")
)

// WindowsClearer trims the current process working set via psapi
// EmptyWorkingSet. Trimmed pages move to the standby list; touching them
// again faults them back in.
type WindowsClearer struct {
	logger zerolog.Logger
}

// New returns the Windows cache clearer.
func New(logger zerolog.Logger) Clearer {
	return &WindowsClearer{logger: logger}
}

// NewWithTimeouts matches the POSIX constructor; the working-set trim is a
// single in-process call and has no timeouts to configure.
func NewWithTimeouts(logger zerolog.Logger, _, _ time.Duration) Clearer {
	return New(logger)
}

func (c *WindowsClearer) Clear(_ context.Context) []*errors.Warning {
	c.logger.Debug().Msg("emptying process working set")

	handle, _, _ := procGetCurrentProcess.Call()
	if handle == 0 {
		w := errors.NewCommandWarning("empty_working_set", "GetCurrentProcess returned a null handle")
		c.logger.Warn().Err(w).Msg("working set trim failed")
		return []*errors.Warning{w}
	}

	ret, _, callErr := procEmptyWorkingSet.Call(handle)
	if ret == 0 {
		w := errors.WrapCommandWarning(
			fmt.Errorf("EmptyWorkingSet failed: %w", callErr),
			"empty_working_set", "working set trim rejected by the OS")
		c.logger.Warn().Err(w).Msg("working set trim failed")
		return []*errors.Warning{w}
	}

	c.logger.Info().Bool("success", true).Msg("process working set emptied")
	return nil
}

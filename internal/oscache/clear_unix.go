//go:build linux || darwin

package oscache

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmswth/reclaim/internal/errors"
)

const (
	defaultSyncTimeout = 30 * time.Second
	defaultDropTimeout = 10 * time.Second

	// Writing "3" frees page cache plus dentries and inodes.
	dropCachesValue = "3"
	dropCachesPath  = "/proc/sys/vm/drop_caches"
)

// CommandRunner interfaces external command execution for testing
type CommandRunner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return strings.TrimSpace(errBuf.String()), err
}

// UnixClearer flushes dirty buffers with sync(1) and then writes to the
// kernel's drop_caches control file through tee(1). tee keeps the write
// working under sudo even when this process lacks direct write permission on
// the control file.
type UnixClearer struct {
	SyncTimeout time.Duration
	DropTimeout time.Duration

	logger   zerolog.Logger
	runner   CommandRunner
	dropPath string
	euid     func() int
}

// New returns the POSIX cache clearer.
func New(logger zerolog.Logger) Clearer {
	return &UnixClearer{
		SyncTimeout: defaultSyncTimeout,
		DropTimeout: defaultDropTimeout,
		logger:      logger,
		runner:      execRunner{},
		dropPath:    dropCachesPath,
		euid:        os.Geteuid,
	}
}

// NewWithTimeouts returns the POSIX cache clearer with custom bounds for the
// sync and drop-caches sub-commands.
func NewWithTimeouts(logger zerolog.Logger, syncTimeout, dropTimeout time.Duration) Clearer {
	c := New(logger).(*UnixClearer)
	if syncTimeout > 0 {
		c.SyncTimeout = syncTimeout
	}
	if dropTimeout > 0 {
		c.DropTimeout = dropTimeout
	}
	return c
}

// Clear runs sync then the drop-caches write. Both need elevated privilege;
// running unprivileged produces warnings, never a hard failure.
func (c *UnixClearer) Clear(ctx context.Context) []*errors.Warning {
	var warnings []*errors.Warning

	if c.euid() != 0 {
		w := errors.NewPrivilegeWarning("drop_caches",
			"not running as root; clearing system caches requires elevated privileges and will likely fail")
		c.logger.Warn().Str("operation", w.Operation).Msg(w.Message)
		warnings = append(warnings, w)
	}

	if w := c.runSync(ctx); w != nil {
		warnings = append(warnings, w)
	}
	if w := c.runDropCaches(ctx); w != nil {
		warnings = append(warnings, w)
	}

	return warnings
}

func (c *UnixClearer) runSync(ctx context.Context) *errors.Warning {
	c.logger.Debug().Msg("running sync to flush dirty buffers")

	syncCtx, cancel := context.WithTimeout(ctx, c.SyncTimeout)
	defer cancel()

	stderr, err := c.runner.Run(syncCtx, "", "sync")
	if err != nil {
		w := c.classify(syncCtx, err, "run_sync", "sync", stderr)
		c.logger.Warn().Err(w).Str("stderr", stderr).Msg("sync failed")
		return w
	}

	c.logger.Debug().Msg("sync completed")
	return nil
}

func (c *UnixClearer) runDropCaches(ctx context.Context) *errors.Warning {
	c.logger.Debug().Str("path", c.dropPath).Msg("writing drop-caches request")

	dropCtx, cancel := context.WithTimeout(ctx, c.DropTimeout)
	defer cancel()

	stderr, err := c.runner.Run(dropCtx, dropCachesValue, "tee", c.dropPath)
	if err != nil {
		w := c.classify(dropCtx, err, "drop_caches", "tee", stderr)
		c.logger.Warn().Err(w).Str("stderr", stderr).
			Msg("drop-caches write failed; run with elevated privileges to clear system caches")
		return w
	}

	// tee can succeed while still writing diagnostics to stderr.
	if stderr != "" {
		c.logger.Debug().Str("stderr", stderr).Msg("tee produced stderr output")
	}

	c.logger.Debug().Msg("drop-caches request written")
	return nil
}

func (c *UnixClearer) classify(ctx context.Context, err error, operation, command, stderr string) *errors.Warning {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return errors.WrapTimeoutWarning(err, operation, command+" timed out")
	case isNotFound(err):
		return errors.NewCommandWarning(operation, command+" command not found")
	default:
		return errors.WrapCommandWarning(err, operation, command+" exited with an error").
			WithContext("stderr", stderr)
	}
}

func isNotFound(err error) bool {
	var execErr *exec.Error
	if stderrors.As(err, &execErr) {
		return stderrors.Is(execErr.Err, exec.ErrNotFound)
	}
	return false
}

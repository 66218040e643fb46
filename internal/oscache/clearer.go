// Package oscache asks the operating system to give back cached memory.
// Dropping caches is machine-wide: it evicts page cache shared with every
// other process on the host, not just the caller's.
package oscache

import (
	"context"

	"github.com/jmswth/reclaim/internal/errors"
)

// Clearer performs the OS-specific cache clearing step. Implementations never
// return a hard error; every failure is downgraded to a warning so the
// reclamation sequence always continues.
type Clearer interface {
	Clear(ctx context.Context) []*errors.Warning
}

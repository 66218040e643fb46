package reclaim

import (
	"time"

	"github.com/jmswth/reclaim/internal/errors"
	"github.com/jmswth/reclaim/internal/memstat"
)

// Report summarizes a single reclamation run. It exists for logging and
// inspection only and is never persisted.
type Report struct {
	Aggressive bool

	Before memstat.Snapshot
	After  memstat.Snapshot
	Delta  memstat.Delta

	// ReclaimedObjects is the total heap-object delta across the GC passes
	// of this run. Negative values mean the heap grew during the run.
	ReclaimedObjects int64

	Warnings []*errors.Warning
	Duration time.Duration
}

// HasWarnings reports whether any sub-step was downgraded to a warning.
func (r Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

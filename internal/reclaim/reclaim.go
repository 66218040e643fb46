// Package reclaim implements the memory reclamation routine behind the
// passthrough nodes: garbage-collect, empty the accelerator cache, optionally
// unload resident models and drop OS caches, and report before/after counters.
package reclaim

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmswth/reclaim/internal/accel"
	"github.com/jmswth/reclaim/internal/errors"
	"github.com/jmswth/reclaim/internal/memstat"
	"github.com/jmswth/reclaim/internal/metrics"
	"github.com/jmswth/reclaim/internal/oscache"
)

// ModelManager is the host's model registry. Aggressive runs ask it to evict
// everything it has resident.
type ModelManager interface {
	UnloadAllModels() error
}

// Reclaimer runs the fixed reclamation sequence. It is synchronous and
// blocking; the host's execution goroutine waits for it.
type Reclaimer struct {
	device  accel.Device
	models  ModelManager
	system  memstat.SystemReader
	clearer oscache.Clearer
	logger  zerolog.Logger

	memReader MemStatsReader
}

// MemStatsReader interfaces runtime.ReadMemStats for testing
type MemStatsReader interface {
	ReadMemStats(m *runtime.MemStats)
}

type defaultMemStatsReader struct{}

func (defaultMemStatsReader) ReadMemStats(m *runtime.MemStats) {
	runtime.ReadMemStats(m)
}

// New creates a Reclaimer with explicit collaborators. device and models may
// be nil; the corresponding steps are skipped.
func New(device accel.Device, models ModelManager, system memstat.SystemReader, clearer oscache.Clearer, logger zerolog.Logger) *Reclaimer {
	return &Reclaimer{
		device:    device,
		models:    models,
		system:    system,
		clearer:   clearer,
		logger:    logger,
		memReader: defaultMemStatsReader{},
	}
}

// NewDefault wires the default collaborators: detected accelerator, gopsutil
// system reader, and the OS cache clearer for this platform.
func NewDefault(models ModelManager, logger zerolog.Logger) *Reclaimer {
	device, err := accel.Detect()
	if err != nil {
		logger.Info().Err(err).Msg("no accelerator detected; accelerator steps will be skipped")
	}
	return New(device, models, memstat.NewSystemReader(), oscache.New(logger), logger)
}

// Reclaim runs the full sequence. It never returns an error: every sub-step
// failure is recorded on the report as a warning and the sequence continues.
func (r *Reclaimer) Reclaim(ctx context.Context, aggressive bool) Report {
	start := time.Now()
	report := Report{Aggressive: aggressive}

	mode := "normal"
	if aggressive {
		mode = "aggressive"
	}
	metrics.ReclaimInvocationsTotal.WithLabelValues(mode).Inc()

	r.logger.Info().Bool("aggressive", aggressive).Msg("memory reclamation starting")

	report.Before = r.snapshot(&report)
	r.logSnapshot("before", report.Before)

	report.ReclaimedObjects += r.collectGarbage()
	r.emptyAcceleratorCache(&report)

	if aggressive {
		r.unloadModels(&report)
		report.ReclaimedObjects += r.collectGarbage()
		r.emptyAcceleratorCache(&report)

		if r.clearer != nil {
			for _, w := range r.clearer.Clear(ctx) {
				r.record(&report, w)
			}
		}
	} else {
		r.logger.Debug().Msg("non-aggressive mode: models kept loaded, system caches untouched")
	}

	report.After = r.snapshot(&report)
	report.Delta = report.After.Sub(report.Before)
	report.Duration = time.Since(start)

	r.logSnapshot("after", report.After)
	r.logDelta(report)
	r.updateGauges(report)
	metrics.ReclaimDurationSeconds.Observe(report.Duration.Seconds())

	return report
}

// snapshot captures accelerator counters (when a device is present) and
// system memory accounting. Failures downgrade to warnings with zeroed
// counters.
func (r *Reclaimer) snapshot(report *Report) memstat.Snapshot {
	var snap memstat.Snapshot

	if accel.Available(r.device) {
		snap.AcceleratorPresent = true

		allocated, err := r.device.MemoryAllocated()
		if err != nil {
			r.record(report, errors.WrapAcceleratorWarning(err, "memory_allocated", "could not read allocated bytes"))
		}
		snap.AllocatedBytes = allocated

		reserved, err := r.device.MemoryReserved()
		if err != nil {
			r.record(report, errors.WrapAcceleratorWarning(err, "memory_reserved", "could not read reserved bytes"))
		}
		snap.ReservedBytes = reserved
	}

	if r.system != nil {
		usedPercent, available, err := r.system.ReadSystemMemory()
		if err != nil {
			r.record(report, errors.Wrap(err, errors.WarningTypeCommand, "system_memory", "could not read system memory accounting"))
		} else {
			snap.UsagePercent = usedPercent
			snap.AvailableBytes = available
		}
	}

	return snap
}

// collectGarbage forces a GC cycle and returns pages to the OS. The returned
// count is the heap-object delta across the cycle, the closest the runtime
// gets to "objects collected".
func (r *Reclaimer) collectGarbage() int64 {
	var before, after runtime.MemStats
	r.memReader.ReadMemStats(&before)

	runtime.GC()
	debug.FreeOSMemory()

	r.memReader.ReadMemStats(&after)

	reclaimed := int64(before.HeapObjects) - int64(after.HeapObjects)
	r.logger.Debug().Int64("reclaimed_objects", reclaimed).Msg("garbage collection finished")
	return reclaimed
}

func (r *Reclaimer) emptyAcceleratorCache(report *Report) {
	if !accel.Available(r.device) {
		r.logger.Debug().Msg("accelerator not available; skipping cache empty")
		return
	}

	if err := r.device.EmptyCache(); err != nil {
		r.record(report, errors.WrapAcceleratorWarning(err, "empty_cache", "accelerator cache release failed"))
		return
	}
	r.logger.Debug().Str("device", r.device.Name()).Msg("accelerator cache emptied")
}

// unloadModels asks the host to evict everything resident. A panicking host
// collaborator is contained here; the sequence must always continue.
func (r *Reclaimer) unloadModels(report *Report) {
	if r.models == nil {
		r.logger.Debug().Msg("no model manager wired; skipping unload")
		return
	}

	metrics.ModelUnloadsTotal.Inc()
	r.logger.Info().Msg("aggressive mode: unloading all resident models")

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("model manager panicked: %v", rec)
			}
		}()
		return r.models.UnloadAllModels()
	}()

	if err != nil {
		r.record(report, errors.WrapModelsWarning(err, "unload_all_models", "host model unload failed"))
	}
}

func (r *Reclaimer) record(report *Report, w *errors.Warning) {
	report.Warnings = append(report.Warnings, w)
	metrics.ReclaimWarningsTotal.WithLabelValues(string(w.Type)).Inc()
	r.logger.Warn().Err(w).Str("operation", w.Operation).Msg(w.Message)
}

func (r *Reclaimer) logSnapshot(stage string, snap memstat.Snapshot) {
	ev := r.logger.Info().
		Str("stage", stage).
		Float64("system_usage_percent", snap.UsagePercent).
		Float64("system_available_gib", memstat.BytesToGiB(snap.AvailableBytes))
	if snap.AcceleratorPresent {
		ev = ev.
			Float64("accelerator_allocated_gib", memstat.BytesToGiB(snap.AllocatedBytes)).
			Float64("accelerator_reserved_gib", memstat.BytesToGiB(snap.ReservedBytes))
	}
	ev.Msg("memory snapshot")
}

func (r *Reclaimer) logDelta(report Report) {
	ev := r.logger.Info().
		Float64("system_usage_delta_points", report.Delta.UsagePoints).
		Float64("system_available_delta_gib", memstat.SignedBytesToGiB(report.Delta.AvailableBytes)).
		Int64("reclaimed_objects", report.ReclaimedObjects).
		Dur("duration", report.Duration).
		Int("warnings", len(report.Warnings))
	if report.Before.AcceleratorPresent {
		ev = ev.
			Float64("accelerator_allocated_delta_gib", memstat.SignedBytesToGiB(report.Delta.AllocatedBytes)).
			Float64("accelerator_reserved_delta_gib", memstat.SignedBytesToGiB(report.Delta.ReservedBytes))
	}
	ev.Msg("memory reclamation finished")
}

func (r *Reclaimer) updateGauges(report Report) {
	if report.Before.AcceleratorPresent {
		metrics.AcceleratorFreedBytes.Set(float64(-report.Delta.AllocatedBytes))
	}
	metrics.SystemAvailableDeltaBytes.Set(float64(report.Delta.AvailableBytes))
}

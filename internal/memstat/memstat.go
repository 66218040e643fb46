// Package memstat captures point-in-time accelerator and system memory
// counters and computes the deltas reported after a reclamation run.
package memstat

// Snapshot is a point-in-time view of accelerator and system memory.
// Accelerator counters are only meaningful when AcceleratorPresent is set.
type Snapshot struct {
	AcceleratorPresent bool
	AllocatedBytes     uint64
	ReservedBytes      uint64

	UsagePercent   float64
	AvailableBytes uint64
}

// Delta is the signed difference between two snapshots (after minus before).
type Delta struct {
	AllocatedBytes int64
	ReservedBytes  int64
	UsagePoints    float64
	AvailableBytes int64
}

// Sub computes after minus before. Sign is preserved: a negative
// AllocatedBytes means memory was released, a positive AvailableBytes means
// more memory became available.
func (after Snapshot) Sub(before Snapshot) Delta {
	return Delta{
		AllocatedBytes: int64(after.AllocatedBytes) - int64(before.AllocatedBytes),
		ReservedBytes:  int64(after.ReservedBytes) - int64(before.ReservedBytes),
		UsagePoints:    after.UsagePercent - before.UsagePercent,
		AvailableBytes: int64(after.AvailableBytes) - int64(before.AvailableBytes),
	}
}

// BytesToGiB converts a byte count to GiB for human-readable log output.
func BytesToGiB(b uint64) float64 {
	return float64(b) / (1 << 30)
}

// SignedBytesToGiB converts a signed byte delta to GiB.
func SignedBytesToGiB(b int64) float64 {
	return float64(b) / (1 << 30)
}

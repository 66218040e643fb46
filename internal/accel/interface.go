package accel

// Device defines the interface to the accelerator runtime the reclamation
// routine talks to.
type Device interface {
	// Name identifies the runtime for log output.
	Name() string

	// MemoryAllocated returns bytes currently allocated on the device.
	MemoryAllocated() (uint64, error)

	// MemoryReserved returns bytes held by the runtime's caching allocator.
	MemoryReserved() (uint64, error)

	// EmptyCache asks the runtime to release cached allocations back to the
	// device.
	EmptyCache() error
}

// Available reports whether dev is a usable accelerator. A nil device means
// the build has no accelerator support or detection failed.
func Available(dev Device) bool {
	return dev != nil
}

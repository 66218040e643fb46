//go:build cuda

package accel

import (
	"errors"
	"os"
	"runtime"
)

var ErrAcceleratorNotAvailable = errors.New("no CUDA device detected")

// nvml shared object locations probed before touching the driver
var nvmlPaths = []string{
	"/usr/lib/libnvidia-ml.so",
	"/usr/lib/x86_64-linux-gnu/libnvidia-ml.so.1",
	"/usr/lib64/libnvidia-ml.so.1",
}

func nvmlAvailable() bool {
	if runtime.GOOS == "darwin" {
		return false
	}
	for _, p := range nvmlPaths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// CUDADevice is a placeholder for the actual CGO-backed implementation.
type CUDADevice struct {
	// e.g. handle *C.nvmlDevice_t
	deviceID int
}

// Detect probes for a usable CUDA device.
func Detect() (Device, error) {
	if !nvmlAvailable() {
		return nil, ErrAcceleratorNotAvailable
	}
	return &CUDADevice{deviceID: 0}, nil
}

func (d *CUDADevice) Name() string {
	return "cuda"
}

func (d *CUDADevice) MemoryAllocated() (uint64, error) {
	// CGO calls would go here
	return 0, nil
}

func (d *CUDADevice) MemoryReserved() (uint64, error) {
	// CGO calls would go here
	return 0, nil
}

func (d *CUDADevice) EmptyCache() error {
	// CGO calls would go here
	return nil
}

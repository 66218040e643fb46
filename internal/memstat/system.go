package memstat

import "github.com/shirou/gopsutil/v3/mem"

// SystemReader interfaces system memory accounting for testing
type SystemReader interface {
	ReadSystemMemory() (usedPercent float64, availableBytes uint64, err error)
}

type gopsutilReader struct{}

func (gopsutilReader) ReadSystemMemory() (float64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.UsedPercent, vm.Available, nil
}

// NewSystemReader returns the default reader backed by gopsutil.
func NewSystemReader() SystemReader {
	return gopsutilReader{}
}

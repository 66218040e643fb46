package reclaim

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmswth/reclaim/internal/errors"
)

type mockDevice struct {
	allocated []uint64
	reserved  []uint64
	allocIdx  int
	resIdx    int

	emptyCacheCalls int
	emptyCacheErr   error
	readErr         error
}

func (m *mockDevice) Name() string { return "mock" }

func (m *mockDevice) MemoryAllocated() (uint64, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	v := m.allocated[min(m.allocIdx, len(m.allocated)-1)]
	m.allocIdx++
	return v, nil
}

func (m *mockDevice) MemoryReserved() (uint64, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	v := m.reserved[min(m.resIdx, len(m.reserved)-1)]
	m.resIdx++
	return v, nil
}

func (m *mockDevice) EmptyCache() error {
	m.emptyCacheCalls++
	return m.emptyCacheErr
}

type mockModels struct {
	calls int
	err   error
	panic bool
}

func (m *mockModels) UnloadAllModels() error {
	m.calls++
	if m.panic {
		panic("registry corrupted")
	}
	return m.err
}

type mockSystem struct {
	usedPercent []float64
	available   []uint64
	idx         int
	err         error
}

func (m *mockSystem) ReadSystemMemory() (float64, uint64, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	i := min(m.idx, len(m.usedPercent)-1)
	m.idx++
	return m.usedPercent[i], m.available[i], nil
}

type mockClearer struct {
	calls    int
	warnings []*errors.Warning
}

func (m *mockClearer) Clear(_ context.Context) []*errors.Warning {
	m.calls++
	return m.warnings
}

func steadySystem() *mockSystem {
	return &mockSystem{usedPercent: []float64{50.0}, available: []uint64{8 << 30}}
}

func TestReclaim_NoAccelerator(t *testing.T) {
	sys := steadySystem()
	clearer := &mockClearer{}
	r := New(nil, nil, sys, clearer, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.False(t, report.Before.AcceleratorPresent)
	assert.False(t, report.After.AcceleratorPresent)
	assert.Empty(t, report.Warnings)
}

func TestReclaim_NonAggressiveSkipsUnloadAndOSClear(t *testing.T) {
	dev := &mockDevice{allocated: []uint64{1 << 30}, reserved: []uint64{2 << 30}}
	models := &mockModels{}
	clearer := &mockClearer{}
	r := New(dev, models, steadySystem(), clearer, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.Equal(t, 0, models.calls)
	assert.Equal(t, 0, clearer.calls)
	assert.Equal(t, 1, dev.emptyCacheCalls)
	assert.False(t, report.Aggressive)
}

func TestReclaim_AggressiveUnloadsAndClears(t *testing.T) {
	dev := &mockDevice{allocated: []uint64{8 << 30, 1 << 30}, reserved: []uint64{10 << 30, 2 << 30}}
	models := &mockModels{}
	clearer := &mockClearer{}
	r := New(dev, models, steadySystem(), clearer, zerolog.Nop())

	report := r.Reclaim(context.Background(), true)

	assert.Equal(t, 1, models.calls)
	assert.Equal(t, 1, clearer.calls)
	// Cache emptied once in the basic pass and once after the unload
	assert.Equal(t, 2, dev.emptyCacheCalls)
	assert.True(t, report.Aggressive)
}

func TestReclaim_ModelUnloadErrorDoesNotAbort(t *testing.T) {
	models := &mockModels{err: stderrors.New("registry busy")}
	clearer := &mockClearer{}
	r := New(nil, models, steadySystem(), clearer, zerolog.Nop())

	report := r.Reclaim(context.Background(), true)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, errors.WarningTypeModels, report.Warnings[0].Type)
	// OS cache clearing still happened after the failed unload
	assert.Equal(t, 1, clearer.calls)
}

func TestReclaim_ModelUnloadPanicContained(t *testing.T) {
	models := &mockModels{panic: true}
	r := New(nil, models, steadySystem(), &mockClearer{}, zerolog.Nop())

	var report Report
	assert.NotPanics(t, func() {
		report = r.Reclaim(context.Background(), true)
	})

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, errors.WarningTypeModels, report.Warnings[0].Type)
	assert.Contains(t, report.Warnings[0].Error(), "panicked")
}

func TestReclaim_ClearerWarningsPropagate(t *testing.T) {
	clearer := &mockClearer{warnings: []*errors.Warning{
		errors.NewPrivilegeWarning("drop_caches", "not running as root"),
		errors.NewCommandWarning("drop_caches", "tee exited with an error"),
	}}
	r := New(nil, &mockModels{}, steadySystem(), clearer, zerolog.Nop())

	report := r.Reclaim(context.Background(), true)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, errors.WarningTypePrivilege, report.Warnings[0].Type)
	assert.Equal(t, errors.WarningTypeCommand, report.Warnings[1].Type)
}

func TestReclaim_DeltaIsExactDifference(t *testing.T) {
	dev := &mockDevice{
		allocated: []uint64{8 << 30, 2 << 30},
		reserved:  []uint64{10 << 30, 3 << 30},
	}
	sys := &mockSystem{
		usedPercent: []float64{81.5, 60.0},
		available:   []uint64{4 << 30, 9 << 30},
	}
	r := New(dev, nil, sys, &mockClearer{}, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.Equal(t, int64(-6<<30), report.Delta.AllocatedBytes)
	assert.Equal(t, int64(-7<<30), report.Delta.ReservedBytes)
	assert.InDelta(t, -21.5, report.Delta.UsagePoints, 1e-9)
	assert.Equal(t, int64(5<<30), report.Delta.AvailableBytes)
}

func TestReclaim_DeltaSignPreservedWhenUsageGrows(t *testing.T) {
	sys := &mockSystem{
		usedPercent: []float64{40.0, 55.0},
		available:   []uint64{8 << 30, 6 << 30},
	}
	r := New(nil, nil, sys, &mockClearer{}, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.InDelta(t, 15.0, report.Delta.UsagePoints, 1e-9)
	assert.Equal(t, int64(-2<<30), report.Delta.AvailableBytes)
}

func TestReclaim_AcceleratorReadFailureDowngraded(t *testing.T) {
	dev := &mockDevice{readErr: stderrors.New("driver wedged")}
	r := New(dev, nil, steadySystem(), &mockClearer{}, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.True(t, report.Before.AcceleratorPresent)
	assert.Zero(t, report.Before.AllocatedBytes)
	assert.True(t, report.HasWarnings())
	for _, w := range report.Warnings {
		assert.Equal(t, errors.WarningTypeAccelerator, w.Type)
	}
}

func TestReclaim_SystemReaderFailureDowngraded(t *testing.T) {
	sys := &mockSystem{err: stderrors.New("procfs unreadable")}
	r := New(nil, nil, sys, &mockClearer{}, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	assert.True(t, report.HasWarnings())
	assert.Zero(t, report.Before.UsagePercent)
}

func TestReclaim_EmptyCacheFailureDowngraded(t *testing.T) {
	dev := &mockDevice{
		allocated:     []uint64{1 << 30},
		reserved:      []uint64{1 << 30},
		emptyCacheErr: stderrors.New("cache pinned"),
	}
	r := New(dev, nil, steadySystem(), &mockClearer{}, zerolog.Nop())

	report := r.Reclaim(context.Background(), false)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "empty_cache", report.Warnings[0].Operation)
}

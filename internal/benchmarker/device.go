package benchmarker

import (
	"context"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// Device is the accelerator the timed work runs on. Synchronize blocks until
// all previously queued device work has completed.
type Device interface {
	Available() bool
	Synchronize(ctx context.Context) error
	// PeakAllocatedBytes is the maximum simultaneous allocation observed by
	// the device allocator since process start or the last stats reset.
	PeakAllocatedBytes() (int64, error)
}

// NoDevice is the CPU-only default: no barriers, no allocator statistics.
type NoDevice struct{}

func (NoDevice) Available() bool                  { return false }
func (NoDevice) Synchronize(context.Context) error { return nil }
func (NoDevice) PeakAllocatedBytes() (int64, error) {
	return 0, errors.NoAccelerator()
}

// FuncDevice adapts plain functions (typically cgo bindings to a CUDA or
// Metal runtime) to Device. A nil SyncFunc makes the device unavailable.
type FuncDevice struct {
	SyncFunc func(ctx context.Context) error
	PeakFunc func() (int64, error)
}

func (d FuncDevice) Available() bool { return d.SyncFunc != nil }

func (d FuncDevice) Synchronize(ctx context.Context) error {
	if d.SyncFunc == nil {
		return nil
	}
	return d.SyncFunc(ctx)
}

func (d FuncDevice) PeakAllocatedBytes() (int64, error) {
	if d.PeakFunc == nil {
		return 0, errors.NoAccelerator()
	}
	return d.PeakFunc()
}

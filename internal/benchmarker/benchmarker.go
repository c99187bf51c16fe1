// Package benchmarker records labeled wall-clock timings of instrumented code,
// optionally fenced by accelerator synchronization barriers, and persists the
// samples and peak device memory as JSON.
//
// A Benchmarker is an explicit value owned by one measurement session; there
// is no package-level instance. Scopes opened on it may run concurrently:
// a single mutex guards the record and each scope appends its samples in one
// critical section.
package benchmarker

import (
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/splatbench/internal/metrics"
)

// Benchmarker accumulates per-tag timing samples.
type Benchmarker struct {
	mu      sync.Mutex
	timings *Timings

	device   Device
	clock    clockwork.Clock
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Benchmarker.
type Option func(*Benchmarker)

// WithDevice sets the accelerator used for barriers and memory statistics.
func WithDevice(d Device) Option {
	return func(b *Benchmarker) {
		if d != nil {
			b.device = d
		}
	}
}

// WithClock replaces the wall clock (tests use clockwork.NewFakeClock).
func WithClock(c clockwork.Clock) Option {
	return func(b *Benchmarker) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithRecorder mirrors scopes into a metrics backend.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Benchmarker) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithLogger sets the logger used for debug records of each scope.
func WithLogger(l *slog.Logger) Option {
	return func(b *Benchmarker) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates an empty Benchmarker. Without options it runs on the real
// clock with NoDevice and a NoopRecorder.
func New(opts ...Option) *Benchmarker {
	b := &Benchmarker{
		timings:  NewTimings(),
		device:   NoDevice{},
		clock:    clockwork.NewRealClock(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Device returns the configured accelerator.
func (b *Benchmarker) Device() Device { return b.device }

// Snapshot returns a deep copy of the current record.
func (b *Benchmarker) Snapshot() *Timings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timings.clone()
}

// Samples returns a copy of the samples recorded for tag.
func (b *Benchmarker) Samples(tag string) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timings.Get(tag)
}

// Merge appends every sample of t, tag by tag, to the record.
func (b *Benchmarker) Merge(t *Timings) {
	if t == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tag := range t.order {
		b.timings.Append(tag, t.samples[tag]...)
	}
}

// ClearHistory discards all accumulated samples. Files already written by
// Dump are left alone.
func (b *Benchmarker) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timings = NewTimings()
}

package benchmarker

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/metrics"
)

type timeConfig struct {
	numCalls int
	sync     bool
}

// TimeOption configures a single timing scope.
type TimeOption func(*timeConfig)

// WithNumCalls declares that the scope stands for n logical calls; the
// elapsed time is split into n equal samples. n must be positive.
func WithNumCalls(n int) TimeOption {
	return func(c *timeConfig) { c.numCalls = n }
}

// WithSync toggles the device barriers around the scope (on by default).
func WithSync(enabled bool) TimeOption {
	return func(c *timeConfig) { c.sync = enabled }
}

// Scope is an open timing region returned by Start. Stop must be called on
// every exit path; only the first call has any effect.
type Scope struct {
	bench    *Benchmarker
	tag      string
	numCalls int
	sync     bool
	start    time.Time

	once sync.Once
	err  error
}

// Tag returns the tag the scope records under.
func (s *Scope) Tag() string { return s.tag }

// Start opens a timing scope: it waits for queued device work (when sync is
// on and a device is available) and then takes the start timestamp.
func (b *Benchmarker) Start(ctx context.Context, tag string, opts ...TimeOption) (*Scope, error) {
	cfg := timeConfig{numCalls: 1, sync: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.numCalls <= 0 {
		return nil, errors.InvalidNumCalls(tag, cfg.numCalls)
	}

	if err := b.barrier(ctx, tag, cfg.sync, metrics.SyncPhaseEnter); err != nil {
		return nil, err
	}

	return &Scope{
		bench:    b,
		tag:      tag,
		numCalls: cfg.numCalls,
		sync:     cfg.sync,
		start:    b.clock.Now(),
	}, nil
}

// Stop closes the scope: device barrier, end timestamp, then numCalls
// samples of elapsed/numCalls. A failing barrier aborts the scope without
// recording. Repeated calls return the first result.
func (s *Scope) Stop(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.bench.finish(ctx, s)
	})
	return s.err
}

// Time runs fn inside a scope. The scope is closed whether fn returns
// normally, returns an error, or panics; a panic is re-raised after the
// sample is recorded. Errors from fn and from the exit barrier are joined.
func (b *Benchmarker) Time(ctx context.Context, tag string, fn func(ctx context.Context) error, opts ...TimeOption) (err error) {
	scope, err := b.Start(ctx, tag, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := scope.Stop(ctx); stopErr != nil {
			err = stdErrors.Join(err, stopErr)
		}
	}()
	return fn(ctx)
}

func (b *Benchmarker) barrier(ctx context.Context, tag string, enabled bool, phase metrics.SyncPhase) *errors.BenchError {
	if !enabled || !b.device.Available() {
		return nil
	}
	if err := b.device.Synchronize(ctx); err != nil {
		b.recorder.IncSyncFailure(phase)
		b.logger.LogAttrs(ctx, slog.LevelWarn, "Device barrier failed, scope not recorded",
			logfields.Tag(tag), logfields.Phase(string(phase)), logfields.Error(err))
		return errors.DeviceSyncFailed(string(phase), err).WithContext("tag", tag)
	}
	return nil
}

func (b *Benchmarker) finish(ctx context.Context, s *Scope) error {
	if err := b.barrier(ctx, s.tag, s.sync, metrics.SyncPhaseExit); err != nil {
		return err
	}

	elapsed := b.clock.Since(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	perCall := elapsed.Seconds() / float64(s.numCalls)

	b.mu.Lock()
	b.timings.appendRepeated(s.tag, perCall, s.numCalls)
	b.mu.Unlock()

	b.recorder.ObserveScopeDuration(s.tag, elapsed)
	b.recorder.AddCalls(s.tag, s.numCalls)
	b.logger.LogAttrs(ctx, slog.LevelDebug, "Timing scope recorded",
		logfields.Tag(s.tag),
		logfields.NumCalls(s.numCalls),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000.0))
	return nil
}

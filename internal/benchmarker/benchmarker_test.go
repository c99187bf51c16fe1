package benchmarker

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/metrics"
)

// fakeDevice counts barriers and can be told to fail a specific one.
type fakeDevice struct {
	mu        sync.Mutex
	available bool
	syncs     int
	failOn    int // 1-based barrier index to fail, 0 = never
	peak      int64
	peakErr   error
	onSync    func()
}

func (d *fakeDevice) Available() bool { return d.available }

func (d *fakeDevice) Synchronize(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncs++
	if d.onSync != nil {
		d.onSync()
	}
	if d.failOn == d.syncs {
		return stdErrors.New("invalid device context")
	}
	return nil
}

func (d *fakeDevice) PeakAllocatedBytes() (int64, error) { return d.peak, d.peakErr }

type countingRecorder struct {
	metrics.NoopRecorder
	scopes   int
	calls    int
	failures []metrics.SyncPhase
}

func (r *countingRecorder) ObserveScopeDuration(string, time.Duration) { r.scopes++ }
func (r *countingRecorder) AddCalls(_ string, n int)                  { r.calls += n }
func (r *countingRecorder) IncSyncFailure(p metrics.SyncPhase)        { r.failures = append(r.failures, p) }

func newFakeBench(opts ...Option) (*Benchmarker, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return New(append([]Option{WithClock(clock)}, opts...)...), clock
}

func TestTimeSplitsElapsedAcrossCalls(t *testing.T) {
	tests := []struct {
		name     string
		numCalls int
		elapsed  time.Duration
	}{
		{"single call", 1, 40 * time.Millisecond},
		{"batched calls", 4, 200 * time.Millisecond},
		{"many calls", 10, time.Second},
		{"zero duration", 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bench, clock := newFakeBench()

			err := bench.Time(context.Background(), "encoder", func(context.Context) error {
				clock.Advance(tt.elapsed)
				return nil
			}, WithNumCalls(tt.numCalls))
			require.NoError(t, err)

			samples := bench.Samples("encoder")
			require.Len(t, samples, tt.numCalls)
			want := tt.elapsed.Seconds() / float64(tt.numCalls)
			for _, s := range samples {
				assert.InDelta(t, want, s, 1e-12)
				assert.GreaterOrEqual(t, s, 0.0)
			}
		})
	}
}

func TestTimeAppendsAcrossScopes(t *testing.T) {
	bench, clock := newFakeBench()
	ctx := context.Background()

	for _, d := range []time.Duration{10 * time.Millisecond, 30 * time.Millisecond} {
		require.NoError(t, bench.Time(ctx, "decoder", func(context.Context) error {
			clock.Advance(d)
			return nil
		}))
	}

	assert.InDeltaSlice(t, []float64{0.01, 0.03}, bench.Samples("decoder"), 1e-12)
}

func TestTimeRecordsWhenWorkFails(t *testing.T) {
	bench, clock := newFakeBench()
	workErr := stdErrors.New("out of memory")

	err := bench.Time(context.Background(), "encoder", func(context.Context) error {
		clock.Advance(20 * time.Millisecond)
		return workErr
	}, WithNumCalls(2))

	require.ErrorIs(t, err, workErr)
	assert.InDeltaSlice(t, []float64{0.01, 0.01}, bench.Samples("encoder"), 1e-12)
}

func TestTimeRecordsWhenWorkPanics(t *testing.T) {
	device := &fakeDevice{available: true}
	bench, clock := newFakeBench(WithDevice(device))

	assert.PanicsWithValue(t, "kernel crashed", func() {
		_ = bench.Time(context.Background(), "encoder", func(context.Context) error {
			clock.Advance(5 * time.Millisecond)
			panic("kernel crashed")
		})
	})

	assert.Equal(t, 2, device.syncs, "exit barrier must still run")
	assert.InDeltaSlice(t, []float64{0.005}, bench.Samples("encoder"), 1e-12)
}

func TestTimeRejectsNonPositiveNumCalls(t *testing.T) {
	bench, _ := newFakeBench()
	ran := false

	err := bench.Time(context.Background(), "encoder", func(context.Context) error {
		ran = true
		return nil
	}, WithNumCalls(0))

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.False(t, ran)
	assert.Equal(t, 0, bench.Snapshot().Len())
}

func TestSyncBarriers(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		opts      []TimeOption
		wantSyncs int
	}{
		{"available device syncs twice", true, nil, 2},
		{"sync disabled", true, []TimeOption{WithSync(false)}, 0},
		{"no device available", false, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &fakeDevice{available: tt.available}
			bench, _ := newFakeBench(WithDevice(device))

			require.NoError(t, bench.Time(context.Background(), "encoder", func(context.Context) error { return nil }, tt.opts...))
			assert.Equal(t, tt.wantSyncs, device.syncs)
		})
	}
}

func TestExitBarrierCoversQueuedWork(t *testing.T) {
	device := &fakeDevice{available: true}
	bench, clock := newFakeBench(WithDevice(device))
	// The second barrier models waiting for asynchronous kernels to drain.
	device.onSync = func() {
		if device.syncs == 2 {
			clock.Advance(30 * time.Millisecond)
		}
	}

	require.NoError(t, bench.Time(context.Background(), "decoder", func(context.Context) error {
		clock.Advance(10 * time.Millisecond)
		return nil
	}))
	assert.InDeltaSlice(t, []float64{0.04}, bench.Samples("decoder"), 1e-12)
}

func TestEnterBarrierFailureSkipsWork(t *testing.T) {
	device := &fakeDevice{available: true, failOn: 1}
	recorder := &countingRecorder{}
	bench, _ := newFakeBench(WithDevice(device), WithRecorder(recorder))
	ran := false

	err := bench.Time(context.Background(), "encoder", func(context.Context) error {
		ran = true
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDevice))
	assert.False(t, ran)
	assert.Empty(t, bench.Samples("encoder"))
	assert.Equal(t, []metrics.SyncPhase{metrics.SyncPhaseEnter}, recorder.failures)
}

func TestExitBarrierFailureAbortsScope(t *testing.T) {
	device := &fakeDevice{available: true, failOn: 2}
	recorder := &countingRecorder{}
	bench, _ := newFakeBench(WithDevice(device), WithRecorder(recorder))
	workErr := stdErrors.New("bad input")

	err := bench.Time(context.Background(), "encoder", func(context.Context) error {
		return workErr
	})

	require.ErrorIs(t, err, workErr)
	assert.True(t, errors.IsCategory(err, errors.CategoryDevice))
	assert.Empty(t, bench.Samples("encoder"))
	assert.Equal(t, 0, recorder.scopes)
	assert.Equal(t, []metrics.SyncPhase{metrics.SyncPhaseExit}, recorder.failures)
}

func TestBarrierFailureIsLoggedWithPhase(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	device := &fakeDevice{available: true, failOn: 1}
	bench, _ := newFakeBench(WithDevice(device), WithLogger(logger))

	err := bench.Time(context.Background(), "decoder", func(context.Context) error { return nil })
	require.Error(t, err)

	be, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "decoder", be.Context["tag"])
	assert.Contains(t, logs.String(), "phase=enter")
	assert.Contains(t, logs.String(), "tag=decoder")
}

func TestScopeStopRunsOnce(t *testing.T) {
	device := &fakeDevice{available: true}
	recorder := &countingRecorder{}
	bench, clock := newFakeBench(WithDevice(device), WithRecorder(recorder))
	ctx := context.Background()

	scope, err := bench.Start(ctx, "encoder", WithNumCalls(3))
	require.NoError(t, err)
	assert.Equal(t, "encoder", scope.Tag())
	clock.Advance(30 * time.Millisecond)

	require.NoError(t, scope.Stop(ctx))
	require.NoError(t, scope.Stop(ctx))

	assert.Len(t, bench.Samples("encoder"), 3)
	assert.Equal(t, 2, device.syncs)
	assert.Equal(t, 1, recorder.scopes)
	assert.Equal(t, 3, recorder.calls)
}

func TestConcurrentScopesDoNotInterleave(t *testing.T) {
	bench := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bench.Time(ctx, "encoder", func(context.Context) error { return nil }, WithNumCalls(5))
		}()
	}
	wg.Wait()

	samples := bench.Samples("encoder")
	require.Len(t, samples, 80)
	// Each scope writes five equal values in one run.
	for i := 0; i < len(samples); i += 5 {
		for j := 1; j < 5; j++ {
			assert.Equal(t, samples[i], samples[i+j])
		}
	}
}

func TestDumpRoundTrip(t *testing.T) {
	bench, clock := newFakeBench()
	ctx := context.Background()
	for _, tag := range []string{"encoder", "decoder", "encoder"} {
		require.NoError(t, bench.Time(ctx, tag, func(context.Context) error {
			clock.Advance(12 * time.Millisecond)
			return nil
		}, WithNumCalls(2)))
	}

	path := filepath.Join(t.TempDir(), "outputs", "run-1", "timings.json")
	require.NoError(t, bench.Dump(path))

	loaded, err := LoadTimings(path)
	require.NoError(t, err)
	assert.Equal(t, bench.Snapshot().Map(), loaded.Map())
	assert.Equal(t, []string{"encoder", "decoder"}, loaded.Tags())

	var raw map[string][]float64
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw["encoder"], 4)
}

func TestDumpOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stale":[1,2,3]}`), 0o644))

	bench, _ := newFakeBench()
	require.NoError(t, bench.Time(context.Background(), "encoder", func(context.Context) error { return nil }))
	require.NoError(t, bench.Dump(path))

	loaded, err := LoadTimings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"encoder"}, loaded.Tags())
}

func TestDumpMemory(t *testing.T) {
	device := &fakeDevice{available: true, peak: 3_221_225_472}
	recorder := &countingRecorder{}
	bench := New(WithDevice(device), WithRecorder(recorder))

	path := filepath.Join(t.TempDir(), "mem", "peak_memory.json")
	require.NoError(t, bench.DumpMemory(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var peak int64
	require.NoError(t, json.Unmarshal(data, &peak))
	assert.Equal(t, int64(3_221_225_472), peak)
}

func TestDumpMemoryWithoutAccelerator(t *testing.T) {
	bench := New()
	path := filepath.Join(t.TempDir(), "peak_memory.json")

	err := bench.DumpMemory(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDevice))
	assert.NoFileExists(t, path)
}

func TestDumpMemoryWrapsPlainDeviceErrors(t *testing.T) {
	device := &fakeDevice{available: true, peakErr: stdErrors.New("allocator stats unavailable")}
	err := New(WithDevice(device)).DumpMemory(filepath.Join(t.TempDir(), "m.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDevice))
}

func TestSummarize(t *testing.T) {
	bench, clock := newFakeBench()
	ctx := context.Background()
	require.NoError(t, bench.Time(ctx, "encoder", func(context.Context) error {
		clock.Advance(500 * time.Millisecond)
		return nil
	}, WithNumCalls(4)))
	require.NoError(t, bench.Time(ctx, "decoder", func(context.Context) error {
		clock.Advance(250 * time.Millisecond)
		return nil
	}))

	var out bytes.Buffer
	bench.Summarize(&out)
	assert.Equal(t,
		"encoder: 4 calls, avg. 0.125 seconds per call\n"+
			"decoder: 1 calls, avg. 0.25 seconds per call\n",
		out.String())
}

func TestSummarizeKeepsTagsWithoutSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"encoder": [], "decoder": [0.5]}`), 0o644))

	loaded, err := LoadTimings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"encoder", "decoder"}, loaded.Tags())

	bench := New()
	bench.Merge(loaded)
	var out bytes.Buffer
	bench.Summarize(&out)
	assert.Equal(t,
		"encoder: 0 calls, avg. 0 seconds per call\n"+
			"decoder: 1 calls, avg. 0.5 seconds per call\n",
		out.String())

	require.NoError(t, bench.Dump(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"encoder": [], "decoder": [0.5]}`, string(data))
}

func TestClearHistoryEmptiesSummary(t *testing.T) {
	bench, _ := newFakeBench()
	require.NoError(t, bench.Time(context.Background(), "encoder", func(context.Context) error { return nil }))

	bench.ClearHistory()

	var out bytes.Buffer
	bench.Summarize(&out)
	assert.Empty(t, out.String())
	assert.Equal(t, 0, bench.Snapshot().Len())
}

func TestClearHistoryKeepsDumpedFile(t *testing.T) {
	bench, _ := newFakeBench()
	require.NoError(t, bench.Time(context.Background(), "encoder", func(context.Context) error { return nil }))
	path := filepath.Join(t.TempDir(), "timings.json")
	require.NoError(t, bench.Dump(path))

	bench.ClearHistory()

	loaded, err := LoadTimings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"encoder"}, loaded.Tags())
}

func TestMergeAndStats(t *testing.T) {
	loaded := NewTimings()
	loaded.Append("encoder", 0.04, 0.01, 0.03, 0.02)

	bench := New()
	bench.Merge(loaded)
	bench.Merge(nil)

	stats := bench.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "encoder", stats[0].Tag)
	assert.Equal(t, 4, stats[0].Count)
	assert.InDelta(t, 0.025, stats[0].Mean, 1e-12)
	assert.Equal(t, 0.01, stats[0].Min)
	assert.Equal(t, 0.04, stats[0].Max)
	assert.Equal(t, 0.03, stats[0].P50)
	assert.Equal(t, 0.04, stats[0].P95)
}

func TestLoadTimingsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTimings(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"encoder": [0.1,`), 0o644))
	_, err = LoadTimings(bad)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryParse))
}

func TestFuncDevice(t *testing.T) {
	assert.False(t, FuncDevice{}.Available())
	_, err := FuncDevice{}.PeakAllocatedBytes()
	assert.Error(t, err)

	synced := false
	d := FuncDevice{
		SyncFunc: func(context.Context) error { synced = true; return nil },
		PeakFunc: func() (int64, error) { return 7, nil },
	}
	assert.True(t, d.Available())
	require.NoError(t, d.Synchronize(context.Background()))
	assert.True(t, synced)
	peak, err := d.PeakAllocatedBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(7), peak)
}

package metrics

import "time"

// SyncPhase identifies which device barrier of a timing scope failed.
type SyncPhase string

const (
	SyncPhaseEnter SyncPhase = "enter"
	SyncPhaseExit  SyncPhase = "exit"
)

// Recorder defines observability hooks for timing scopes. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	// ObserveScopeDuration records the wall-clock time of one whole scope.
	ObserveScopeDuration(tag string, d time.Duration)
	// AddCalls counts the logical calls a scope stood for.
	AddCalls(tag string, n int)
	IncSyncFailure(phase SyncPhase)
	SetPeakAllocatedBytes(n int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScopeDuration(string, time.Duration) {}
func (NoopRecorder) AddCalls(string, int)                      {}
func (NoopRecorder) IncSyncFailure(SyncPhase)                  {}
func (NoopRecorder) SetPeakAllocatedBytes(int64)               {}

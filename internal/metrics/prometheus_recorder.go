package metrics

import (
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

const namespace = "splatbench"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	scopeDuration *prom.HistogramVec
	calls         *prom.CounterVec
	syncFailures  *prom.CounterVec
	peakAllocated prom.Gauge
}

// NewPrometheusRecorder constructs and registers the recorder's collectors on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		scopeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "scope_duration_seconds",
			Help:      "Wall-clock duration of timing scopes, including device barriers",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 12),
		}, []string{"tag"}),
		calls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Logical calls recorded per tag",
		}, []string{"tag"}),
		syncFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Device synchronization failures by scope phase",
		}, []string{"phase"}),
		peakAllocated: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_allocated_bytes",
			Help:      "Peak allocated accelerator memory observed by the process",
		}),
	}
	reg.MustRegister(pr.scopeDuration, pr.calls, pr.syncFailures, pr.peakAllocated)
	return pr
}

// Registry returns the registry the collectors live in.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

func (p *PrometheusRecorder) ObserveScopeDuration(tag string, d time.Duration) {
	if p == nil || p.scopeDuration == nil {
		return
	}
	p.scopeDuration.WithLabelValues(tag).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddCalls(tag string, n int) {
	if p == nil || p.calls == nil {
		return
	}
	p.calls.WithLabelValues(tag).Add(float64(n))
}

func (p *PrometheusRecorder) IncSyncFailure(phase SyncPhase) {
	if p == nil || p.syncFailures == nil {
		return
	}
	p.syncFailures.WithLabelValues(string(phase)).Inc()
}

func (p *PrometheusRecorder) SetPeakAllocatedBytes(n int64) {
	if p == nil || p.peakAllocated == nil {
		return
	}
	p.peakAllocated.Set(float64(n))
}

// WriteTextfile writes the registry contents to path in the Prometheus text
// exposition format, creating parent directories as needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("create metrics directory", filepath.Dir(path), err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return errors.FileSystemError("write metrics textfile", path, err)
	}
	return nil
}

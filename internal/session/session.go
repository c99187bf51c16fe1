// Package session owns the lifecycle of one measurement session: it creates
// the Benchmarker, threads it to instrumented code, and finalizes the
// session by writing dumps, a Prometheus textfile and an archive entry.
package session

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/splatbench/internal/archive"
	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/config"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/metrics"
	"git.home.luguber.info/inful/splatbench/internal/observability"
)

// Default dump file names inside the output directory.
const (
	TimingsFile = "timings.json"
	MemoryFile  = "memory.json"
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	ID        string
	Label     string
	OutputDir string
	// TimingsPath overrides OutputDir/timings.json.
	TimingsPath string
	Device      benchmarker.Device
	Clock       clockwork.Clock
	// MetricsTextfile enables Prometheus metrics and names the textfile
	// written by Finalize.
	MetricsTextfile string
	Archive         archive.Store
	Logger          *slog.Logger
}

// Session is one measurement session.
type Session struct {
	ID        string
	Label     string
	StartedAt time.Time
	Bench     *benchmarker.Benchmarker

	outputDir   string
	timingsPath string
	textfile    string
	recorder    *metrics.PrometheusRecorder
	store       archive.Store
	ownsStore   bool
	logger      *slog.Logger

	finalizeOnce sync.Once
	result       *Result
	finalizeErr  error
}

// Result lists what Finalize wrote.
type Result struct {
	TimingsPath  string `json:"timings_path"`
	MemoryPath   string `json:"memory_path,omitempty"`
	TextfilePath string `json:"textfile_path,omitempty"`
	Archived     bool   `json:"archived"`
}

// New creates a session and its Benchmarker.
func New(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}
	if opts.TimingsPath == "" {
		opts.TimingsPath = filepath.Join(opts.OutputDir, TimingsFile)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With(logfields.SessionID(opts.ID))

	s := &Session{
		ID:          opts.ID,
		Label:       opts.Label,
		StartedAt:   opts.Clock.Now(),
		outputDir:   opts.OutputDir,
		timingsPath: opts.TimingsPath,
		textfile:    opts.MetricsTextfile,
		store:       opts.Archive,
		logger:      logger,
	}

	benchOpts := []benchmarker.Option{
		benchmarker.WithDevice(opts.Device),
		benchmarker.WithClock(opts.Clock),
		benchmarker.WithLogger(logger),
	}
	if opts.MetricsTextfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
		benchOpts = append(benchOpts, benchmarker.WithRecorder(s.recorder))
	}
	s.Bench = benchmarker.New(benchOpts...)
	return s
}

// FromConfig builds a session from configuration, opening the archive when
// enabled. Fields already set in base (device, logger, timings path, id)
// are kept. The session owns the archive and closes it in Close.
func FromConfig(cfg *config.Config, base Options) (*Session, error) {
	opts := base
	if opts.Label == "" {
		opts.Label = cfg.Session.Label
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Session.OutputDir
	}
	if cfg.Metrics.Enabled && opts.MetricsTextfile == "" {
		opts.MetricsTextfile = cfg.Metrics.Textfile
	}
	ownsStore := false
	if cfg.Archive.Enabled && opts.Archive == nil {
		store, err := archive.NewSQLiteStore(cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		opts.Archive = store
		ownsStore = true
	}
	s := New(opts)
	s.ownsStore = ownsStore
	return s, nil
}

// Context returns ctx annotated with the session id for context-aware logging.
func (s *Session) Context(ctx context.Context) context.Context {
	return observability.WithSessionID(ctx, s.ID)
}

// TimingsPath is where Finalize writes the timing dump.
func (s *Session) TimingsPath() string { return s.timingsPath }

// Recorder returns the Prometheus recorder, or nil when metrics are off.
func (s *Session) Recorder() *metrics.PrometheusRecorder { return s.recorder }

// Finalize ends the session. Every step is attempted even if an earlier one
// fails; the errors are joined. Only the first call does any work.
func (s *Session) Finalize(ctx context.Context) (*Result, error) {
	s.finalizeOnce.Do(func() {
		s.result, s.finalizeErr = s.finalize(ctx)
	})
	return s.result, s.finalizeErr
}

func (s *Session) finalize(ctx context.Context) (*Result, error) {
	ctx = s.Context(ctx)
	s.logger.Debug("Finalizing session", "tags", s.Bench.Snapshot().Len(), "elapsed", time.Since(s.StartedAt))
	res := &Result{TimingsPath: s.timingsPath}
	var errs []error

	if err := s.Bench.Dump(s.timingsPath); err != nil {
		errs = append(errs, err)
	}

	if s.Bench.Device().Available() {
		res.MemoryPath = filepath.Join(s.outputDir, MemoryFile)
		if err := s.Bench.DumpMemory(res.MemoryPath); err != nil {
			res.MemoryPath = ""
			errs = append(errs, err)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.WriteTextfile(s.textfile); err != nil {
			errs = append(errs, err)
		} else {
			res.TextfilePath = s.textfile
		}
	}

	if s.store != nil {
		info := archive.SessionInfo{ID: s.ID, Label: s.Label, CreatedAt: s.StartedAt}
		if err := s.store.SaveSession(ctx, info, s.Bench.Snapshot()); err != nil {
			errs = append(errs, err)
		} else {
			res.Archived = true
		}
	}

	observability.InfoContext(ctx, "Session finalized",
		logfields.Path(res.TimingsPath),
		slog.Bool("archived", res.Archived),
		slog.Int("errors", len(errs)))
	return res, stdErrors.Join(errs...)
}

// Close releases the archive if the session opened it.
func (s *Session) Close() error {
	if s.ownsStore && s.store != nil {
		return s.store.Close()
	}
	return nil
}

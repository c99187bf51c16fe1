package config

import (
	"path/filepath"
	"time"
)

// Default values.
const (
	DefaultOutputDir = "outputs"
	DefaultDebounce  = 250 * time.Millisecond
)

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	if cfg.Report.NameA == "" {
		cfg.Report.NameA = "baseline"
	}
	if cfg.Report.NameB == "" {
		cfg.Report.NameB = "candidate"
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = ReportFormatText
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}

	if cfg.Session.OutputDir == "" {
		cfg.Session.OutputDir = DefaultOutputDir
	}

	// The textfile and archive live next to the dumps unless set explicitly.
	if cfg.Metrics.Enabled && cfg.Metrics.Textfile == "" {
		cfg.Metrics.Textfile = filepath.Join(cfg.Session.OutputDir, "splatbench.prom")
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = filepath.Join(cfg.Session.OutputDir, "history.db")
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}

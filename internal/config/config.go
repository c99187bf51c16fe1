package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// CurrentVersion is the only configuration schema version understood.
const CurrentVersion = "1"

// Config represents the splatbench configuration file.
type Config struct {
	Version string        `yaml:"version"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ReportConfig holds defaults for the compare command.
type ReportConfig struct {
	NameA   string       `yaml:"name_a"`
	NameB   string       `yaml:"name_b"`
	Dataset string       `yaml:"dataset,omitempty"`
	Format  ReportFormat `yaml:"format"`
	Strict  bool         `yaml:"strict"` // exit non-zero when an input file is missing
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// SessionConfig controls where measurement sessions write their dumps.
type SessionConfig struct {
	OutputDir string `yaml:"output_dir"`
	// SyncDevice toggles device barriers around timed scopes. Nil means on.
	SyncDevice *bool  `yaml:"sync_device,omitempty"`
	Label      string `yaml:"label,omitempty"`
}

// Sync reports whether device barriers are enabled.
func (s SessionConfig) Sync() bool {
	return s.SyncDevice == nil || *s.SyncDevice
}

// MetricsConfig controls the Prometheus textfile written at session end.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile,omitempty"`
}

// ArchiveConfig controls the SQLite session archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig controls compare --watch.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load loads a configuration file. An empty path yields the defaults (after
// .env loading) so every command can run without a file.
func Load(configPath string) (*Config, error) {
	if loaded, err := LoadEnv(".env", ".env.local"); err != nil {
		slog.Warn("Failed to load environment file", "error", err)
	} else if len(loaded) > 0 {
		slog.Debug("Loaded environment variables", "files", loaded)
	}

	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(configPath)
		}
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file").
			WithContext("path", configPath)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes, normalizes, defaults and validates a configuration document.
// ${VAR} references are expanded from the process environment first.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config")
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, errors.New(errors.CategoryConfig, errors.SeverityFatal,
			fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion))
	}

	for _, w := range Normalize(&cfg) {
		slog.Warn("Config normalization", "warning", w)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.New(errors.CategoryValidation, errors.SeverityError,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	example := Default()
	example.Report.NameA = "GGN"
	example.Report.NameB = "SparseSplat"
	example.Report.Dataset = "dl3dv"
	example.Metrics.Enabled = true
	example.Archive.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to marshal example config", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.FileSystemError("create directory", filepath.Dir(configPath), err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("write config", configPath, err)
	}
	return nil
}

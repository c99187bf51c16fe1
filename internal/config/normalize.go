package config

import (
	"fmt"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

// NormalizeLogLevel returns the canonical level for raw, or "" if unknown.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevels[clean(raw)]
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}

// NormalizeLogFormat returns the canonical format for raw, or "" if unknown.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormats[clean(raw)]
}

// ReportFormat enumerates compare output formats.
type ReportFormat string

const (
	ReportFormatText     ReportFormat = "text"
	ReportFormatMarkdown ReportFormat = "markdown"
	ReportFormatHTML     ReportFormat = "html"
	ReportFormatJSON     ReportFormat = "json"
)

var reportFormats = map[string]ReportFormat{
	"text":     ReportFormatText,
	"txt":      ReportFormatText,
	"markdown": ReportFormatMarkdown,
	"md":       ReportFormatMarkdown,
	"html":     ReportFormatHTML,
	"json":     ReportFormatJSON,
}

// NormalizeReportFormat returns the canonical format for raw, or "" if unknown.
func NormalizeReportFormat(raw string) ReportFormat {
	return reportFormats[clean(raw)]
}

func clean(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Normalize canonicalizes enumerated fields in place. Unknown log settings
// are reset with a warning; an unknown report format is left for Validate.
func Normalize(c *Config) []string {
	var warnings []string

	if raw := string(c.Logging.Level); raw != "" {
		if lvl := NormalizeLogLevel(raw); lvl != "" {
			c.Logging.Level = lvl
		} else {
			warnings = append(warnings, warnUnknown("logging.level", raw, string(LogLevelInfo)))
			c.Logging.Level = LogLevelInfo
		}
	}
	if raw := string(c.Logging.Format); raw != "" {
		if f := NormalizeLogFormat(raw); f != "" {
			c.Logging.Format = f
		} else {
			warnings = append(warnings, warnUnknown("logging.format", raw, string(LogFormatText)))
			c.Logging.Format = LogFormatText
		}
	}
	if f := NormalizeReportFormat(string(c.Report.Format)); f != "" {
		c.Report.Format = f
	}
	if c.Watch.Debounce < 0 {
		c.Watch.Debounce = 0
	}
	return warnings
}

func warnUnknown(field, raw, def string) string {
	return fmt.Sprintf("unknown %s %q, using %q", field, raw, def)
}

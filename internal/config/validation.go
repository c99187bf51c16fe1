package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// Validate checks a normalized, defaulted configuration.
func Validate(cfg *Config) error {
	if NormalizeReportFormat(string(cfg.Report.Format)) == "" {
		return errors.ValidationFailed("report.format",
			fmt.Sprintf("unknown report format %q (want text, markdown, html or json)", cfg.Report.Format))
	}
	if strings.TrimSpace(cfg.Session.OutputDir) == "" {
		return errors.ValidationFailed("session.output_dir", "must not be blank")
	}
	if cfg.Report.NameA == cfg.Report.NameB {
		return errors.ValidationFailed("report.name_b", fmt.Sprintf("must differ from report.name_a (both %q)", cfg.Report.NameA))
	}
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Path) == "" {
		return errors.ValidationFailed("archive.path", "required when the archive is enabled")
	}
	return nil
}

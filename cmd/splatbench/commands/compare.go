package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/splatbench/internal/config"
	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/report"
	"git.home.luguber.info/inful/splatbench/internal/watch"
)

// CompareCmd implements the 'compare' command.
type CompareCmd struct {
	Baseline  string `short:"a" required:"" help:"Result summary JSON of system A (e.g. scores_all_avg.json)"`
	Candidate string `short:"b" required:"" help:"Result summary JSON of system B"`
	NameA     string `name:"name-a" help:"Display name of system A (default: report.name_a)"`
	NameB     string `name:"name-b" help:"Display name of system B (default: report.name_b)"`
	Dataset   string `short:"d" help:"Dataset name shown in the title"`
	Format    string `short:"f" help:"Output format: text, markdown, html or json (default: report.format)"`
	Output    string `short:"o" help:"Write the report to this file instead of stdout"`
	Strict    bool   `help:"Exit non-zero when an input file is missing"`
	Watch     bool   `short:"w" help:"Re-render whenever an input file changes (Ctrl-C to stop)"`
}

func (c *CompareCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.Setup(root, "compare")
	if err != nil {
		return err
	}

	labels := report.Labels{
		A:       firstNonEmpty(c.NameA, cfg.Report.NameA),
		B:       firstNonEmpty(c.NameB, cfg.Report.NameB),
		Dataset: firstNonEmpty(c.Dataset, cfg.Report.Dataset),
	}
	format, err := report.ParseFormat(firstNonEmpty(c.Format, string(cfg.Report.Format)))
	if err != nil {
		return err
	}
	strict := c.Strict || cfg.Report.Strict

	err = c.render(g, labels, format, strict)
	if !c.Watch {
		return err
	}
	if err != nil {
		slog.Error("Failed to render report", logfields.Error(err))
	}
	return c.watch(g, cfg, labels, format)
}

// render loads both summaries and writes one report. Both paths are checked
// before either file is parsed, so a missing input is always reported. A
// missing input stops the run; it is only an error in strict mode.
func (c *CompareCmd) render(g *Global, labels report.Labels, format report.Format, strict bool) error {
	inputs := []struct{ side, label, path string }{
		{"baseline", labels.A, c.Baseline},
		{"candidate", labels.B, c.Candidate},
	}
	for _, in := range inputs {
		if _, err := os.Stat(in.path); os.IsNotExist(err) {
			slog.Debug("Result summary missing", logfields.Side(in.side), logfields.Path(in.path))
			nf := errors.ResultNotFound(in.label, in.path)
			if strict {
				return nf
			}
			_, _ = fmt.Fprintf(g.Out, "Error: %s\n", nf.Message)
			return nil
		}
	}

	a, err := report.Load(labels.A, c.Baseline)
	if err != nil {
		return err
	}
	b, err := report.Load(labels.B, c.Candidate)
	if err != nil {
		return err
	}
	return c.write(g, report.Compare(a, b, labels), format)
}

func (c *CompareCmd) write(g *Global, r *report.Report, format report.Format) error {
	if c.Output == "" {
		return report.Render(g.Out, r, format)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, r, format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Output), 0o750); err != nil {
		return errors.FileSystemError("create directory", filepath.Dir(c.Output), err)
	}
	if err := os.WriteFile(c.Output, buf.Bytes(), 0o644); err != nil {
		return errors.FileSystemError("write report", c.Output, err)
	}
	slog.Info("Report written", logfields.Path(c.Output), logfields.Format(string(format)))
	return nil
}

func (c *CompareCmd) watch(g *Global, cfg *config.Config, labels report.Labels, format report.Format) error {
	w, err := watch.New([]string{c.Baseline, c.Candidate},
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	slog.Info("Watching result summaries", "baseline", c.Baseline, "candidate", c.Candidate)

	return w.Run(g.Ctx, func(_ context.Context, changed []string) {
		slog.Debug("Inputs changed, re-rendering", "files", changed)
		if c.Output == "" && format == report.FormatText {
			_, _ = io.WriteString(g.Out, "\n")
		}
		if err := c.render(g, labels, format, false); err != nil {
			slog.Error("Failed to render report", logfields.Error(err))
		}
	})
}

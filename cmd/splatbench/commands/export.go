package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/report"
)

// ExportCmd implements the 'export' command. It turns a timing dump into the
// [count, avg] entries of a result summary, merging into an existing summary
// when one is given.
type ExportCmd struct {
	Timings string   `short:"t" required:"" help:"Timing dump written by a session (timings.json)"`
	Scores  string   `short:"s" help:"Existing result summary to merge into (quality metrics are kept)"`
	Output  string   `short:"o" help:"Result summary to write (default: --scores)"`
	Keys    []string `short:"k" default:"encoder,decoder" sep:"," help:"Tags to export"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	if _, err := g.Setup(root, "export"); err != nil {
		return err
	}
	out := firstNonEmpty(e.Output, e.Scores)
	if out == "" {
		return errors.ValidationFailed("output", "one of --output or --scores is required")
	}

	timings, err := benchmarker.LoadTimings(e.Timings)
	if err != nil {
		return err
	}

	summary := &report.Summary{}
	if e.Scores != "" {
		loaded, err := report.Load("scores", e.Scores)
		switch {
		case err == nil:
			summary = loaded
		case !errors.IsCategory(err, errors.CategoryNotFound):
			return err
		}
	}

	exported := 0
	for _, key := range e.Keys {
		samples := timings.Get(key)
		if len(samples) == 0 {
			slog.Warn("No samples for tag, skipping", logfields.Tag(key))
			continue
		}
		summary.SetTiming(key, report.TimingMetric{Calls: len(samples), AvgSeconds: timings.Mean(key)})
		exported++
	}

	if err := report.Save(out, summary); err != nil {
		return err
	}
	slog.Info("Result summary written", logfields.Path(out), slog.Int("tags", exported))
	return nil
}

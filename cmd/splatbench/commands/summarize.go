package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/report"
)

// SummarizeCmd implements the 'summarize' command.
type SummarizeCmd struct {
	Timings string `short:"t" required:"" help:"Timing dump written by a session (timings.json)"`
	Stats   bool   `help:"Also print min, max, p50 and p95 per tag"`
}

func (s *SummarizeCmd) Run(g *Global, root *CLI) error {
	if _, err := g.Setup(root, "summarize"); err != nil {
		return err
	}

	timings, err := benchmarker.LoadTimings(s.Timings)
	if err != nil {
		return err
	}
	bench := benchmarker.New(benchmarker.WithLogger(g.Logger))
	bench.Merge(timings)
	bench.Summarize(g.Out)

	if !s.Stats || timings.Len() == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(g.Out)
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TAG\tCALLS\tMEAN\tMIN\tP50\tP95\tMAX\tTOTAL")
	for _, st := range bench.Stats() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			st.Tag, st.Count,
			report.FormatTime(st.Mean), report.FormatTime(st.Min),
			report.FormatTime(st.P50), report.FormatTime(st.P95),
			report.FormatTime(st.Max), report.FormatTime(st.Total))
	}
	return tw.Flush()
}

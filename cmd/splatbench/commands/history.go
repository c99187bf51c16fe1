package commands

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/splatbench/internal/archive"
	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/report"
)

// HistoryCmd groups the archive subcommands.
type HistoryCmd struct {
	Database string `help:"Archive database (default: archive.path)" type:"path"`

	List   HistoryListCmd   `cmd:"" default:"withargs" help:"List archived sessions, newest first"`
	Show   HistoryShowCmd   `cmd:"" help:"Print the summary of one archived session"`
	Import HistoryImportCmd `cmd:"" help:"Archive an existing timing dump"`
}

func (h *HistoryCmd) open(g *Global, root *CLI, command string) (*archive.SQLiteStore, error) {
	cfg, err := g.Setup(root, command)
	if err != nil {
		return nil, err
	}
	return archive.NewSQLiteStore(firstNonEmpty(h.Database, cfg.Archive.Path))
}

// HistoryListCmd implements 'history list'.
type HistoryListCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of sessions (0 = all)"`
}

func (l *HistoryListCmd) Run(parent *HistoryCmd, g *Global, root *CLI) error {
	store, err := parent.open(g, root, "history list")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.ListSessions(g.Ctx, l.Limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No archived sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tLABEL\tCREATED\tTAGS\tSAMPLES")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			s.ID, firstNonEmpty(s.Label, "-"), s.CreatedAt.Local().Format(time.DateTime), s.Tags, s.Samples)
	}
	return tw.Flush()
}

// HistoryShowCmd implements 'history show'.
type HistoryShowCmd struct {
	ID    string `arg:"" help:"Session id"`
	Stats bool   `help:"Also print min, max, p50 and p95 per tag"`
}

func (s *HistoryShowCmd) Run(parent *HistoryCmd, g *Global, root *CLI) error {
	store, err := parent.open(g, root, "history show")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sess, err := store.LoadSession(g.Ctx, s.ID)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.Out, "Session %s (%s, %s)\n",
		sess.ID, firstNonEmpty(sess.Label, "unlabelled"), sess.CreatedAt.Local().Format(time.DateTime))
	bench := benchmarker.New(benchmarker.WithLogger(g.Logger))
	bench.Merge(sess.Timings)
	bench.Summarize(g.Out)

	if !s.Stats {
		return nil
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TAG\tCALLS\tMEAN\tP50\tP95")
	for _, st := range bench.Stats() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", st.Tag, st.Count,
			report.FormatTime(st.Mean), report.FormatTime(st.P50), report.FormatTime(st.P95))
	}
	return tw.Flush()
}

// HistoryImportCmd implements 'history import'.
type HistoryImportCmd struct {
	Timings string `short:"t" required:"" help:"Timing dump to archive"`
	Label   string `short:"l" help:"Label stored with the session"`
	ID      string `help:"Session id (default: a new UUID)"`
}

func (i *HistoryImportCmd) Run(parent *HistoryCmd, g *Global, root *CLI) error {
	timings, err := benchmarker.LoadTimings(i.Timings)
	if err != nil {
		return err
	}
	store, err := parent.open(g, root, "history import")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id := i.ID
	if id == "" {
		id = uuid.NewString()
	}
	info := archive.SessionInfo{ID: id, Label: i.Label, CreatedAt: time.Now()}
	if err := store.SaveSession(g.Ctx, info, timings); err != nil {
		return err
	}
	slog.Info("Session archived", logfields.SessionID(id), logfields.Path(i.Timings))
	_, _ = fmt.Fprintln(g.Out, id)
	return nil
}

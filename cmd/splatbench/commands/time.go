package commands

import (
	"context"
	stdErrors "errors"
	"os/exec"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
	"git.home.luguber.info/inful/splatbench/internal/observability"
	"git.home.luguber.info/inful/splatbench/internal/session"
)

// TimeCmd implements the 'time' command: it runs an external command inside
// a timing scope and appends the samples to the session's timing dump.
type TimeCmd struct {
	Tag      string   `short:"t" required:"" help:"Tag to record the samples under (e.g. encoder)"`
	NumCalls int      `short:"n" default:"1" help:"Number of logical calls one run stands for"`
	Repeat   int      `short:"r" default:"1" help:"Run the command this many times"`
	Timings  string   `help:"Timing dump to append to (default: <session.output_dir>/timings.json)"`
	NoSync   bool     `name:"no-sync" help:"Skip device barriers around each run"`
	Command  []string `arg:"" passthrough:"" help:"Command to run, after --"`
}

func (t *TimeCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.Setup(root, "time")
	if err != nil {
		return err
	}
	if t.Repeat <= 0 {
		return errors.ValidationFailed("repeat", "must be positive")
	}
	if len(t.Command) > 0 && t.Command[0] == "--" {
		t.Command = t.Command[1:]
	}
	if len(t.Command) == 0 {
		return errors.ValidationFailed("command", "no command given")
	}

	sess, err := session.FromConfig(cfg, session.Options{
		Device:      g.Device,
		Logger:      g.Logger,
		TimingsPath: t.Timings,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if previous, err := benchmarker.LoadTimings(sess.TimingsPath()); err == nil {
		sess.Bench.Merge(previous)
	} else if !errors.IsCategory(err, errors.CategoryNotFound) {
		return err
	}

	ctx := observability.WithTag(sess.Context(g.Ctx), t.Tag)
	opts := []benchmarker.TimeOption{
		benchmarker.WithNumCalls(t.NumCalls),
		benchmarker.WithSync(!t.NoSync && cfg.Session.Sync()),
	}

	var runErr error
	for i := 0; i < t.Repeat; i++ {
		runErr = sess.Bench.Time(ctx, t.Tag, func(ctx context.Context) error {
			return t.exec(ctx, g)
		}, opts...)
		if runErr != nil {
			break
		}
	}
	if runErr != nil {
		observability.ErrorContext(ctx, "Timed command failed", logfields.Error(runErr))
	}

	sess.Bench.Summarize(g.Out)
	_, finErr := sess.Finalize(ctx)
	return stdErrors.Join(runErr, finErr)
}

func (t *TimeCmd) exec(ctx context.Context, g *Global) error {
	cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...) // #nosec G204 -- the user names the command to time
	cmd.Stdout = g.Out
	cmd.Stderr = g.errWriter()
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, errors.CategoryRuntime, errors.SeverityError, "timed command failed").
			WithContext("command", t.Command[0])
	}
	return nil
}

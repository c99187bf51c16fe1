package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/config"
	"git.home.luguber.info/inful/splatbench/internal/observability"
	"git.home.luguber.info/inful/splatbench/internal/version"
)

// Global is shared state handed to every subcommand's Run.
type Global struct {
	Ctx    context.Context
	Out    io.Writer // reports and summaries
	Err    io.Writer // logs
	Logger *slog.Logger
	// Device is the accelerator used by the time command. Nil means CPU only.
	Device benchmarker.Device

	cfg *config.Config
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" env:"SPLATBENCH_CONFIG" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compare   CompareCmd   `cmd:"" help:"Compare two result summaries (timing and image quality)"`
	Summarize SummarizeCmd `cmd:"" help:"Print per-tag call counts and averages of a timing dump"`
	Time      TimeCmd      `cmd:"" help:"Time an external command and append the samples to a timing dump"`
	Export    ExportCmd    `cmd:"" help:"Write timing averages from a timing dump into a result summary"`
	History   HistoryCmd   `cmd:"" help:"Inspect the session archive"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; set up verbose logging early so
// configuration loading is already covered by it.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// Execute parses args and runs the selected command.
func Execute(args []string, g *Global, opts ...kong.Option) error {
	var cli CLI
	base := []kong.Option{
		kong.Name("splatbench"),
		kong.Description("Benchmark tooling for Gaussian-splat inference: scoped timers and result comparison."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	}
	if g.Out != nil {
		base = append(base, kong.Writers(g.Out, g.errWriter()))
	}
	parser, err := kong.New(&cli, append(base, opts...)...)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(g)
}

// Setup loads the configuration once and installs the configured logger.
// The --verbose flag overrides the configured level.
func (g *Global) Setup(root *CLI, command string) (*config.Config, error) {
	if g.Ctx == nil {
		g.Ctx = context.Background()
	}
	if g.Out == nil {
		g.Out = os.Stdout
	}
	if g.cfg != nil {
		return g.cfg, nil
	}

	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}

	level := observability.ParseLevel(string(cfg.Logging.Level))
	if root.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = observability.NewLogger(g.errWriter(), level, string(cfg.Logging.Format))
	slog.SetDefault(g.Logger)

	g.Ctx = observability.WithCommand(g.Ctx, command)
	g.cfg = cfg
	return cfg, nil
}

func (g *Global) errWriter() io.Writer {
	if g.Err != nil {
		return g.Err
	}
	return os.Stderr
}

// firstNonEmpty returns the first non-empty value (flag, then config).
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

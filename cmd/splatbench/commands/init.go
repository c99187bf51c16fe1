package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/splatbench/internal/config"
)

// DefaultConfigFile is written by 'init' when no path is given.
const DefaultConfigFile = "splatbench.yaml"

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Output directory for generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := firstNonEmpty(root.Config, DefaultConfigFile)
	if i.Output != "" {
		path = filepath.Join(i.Output, DefaultConfigFile)
	}

	out := g.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}

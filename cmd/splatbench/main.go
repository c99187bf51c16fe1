package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"git.home.luguber.info/inful/splatbench/cmd/splatbench/commands"
	"git.home.luguber.info/inful/splatbench/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g := &commands.Global{Ctx: ctx, Out: os.Stdout, Err: os.Stderr}
	err := commands.Execute(os.Args[1:], g)

	verbose := slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose")
	if err != nil {
		cancel()
		errors.NewCLIErrorAdapter(verbose, slog.Default()).HandleError(err)
	}
}

package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/toolchain"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	App  string   `arg:"" help:"Application key"`
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments passed to the application"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	comp, err := root.compose(ctx)
	if err != nil {
		return err
	}
	return app.RunApp(ctx, comp, r.App, r.Args, toolchain.Stdio{In: g.Stdin, Out: g.Stdout, Err: g.Stderr})
}

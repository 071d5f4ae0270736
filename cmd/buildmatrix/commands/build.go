package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/history"
	"git.home.luguber.info/inful/buildmatrix/internal/render"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Keys   []string `arg:"" optional:"" help:"Package keys to build (default: the default package)"`
	All    bool     `help:"Build every package" xor:"selection"`
	Checks bool     `help:"Build the checks registry" xor:"selection"`
	Format string   `short:"f" help:"Output format for the build report (table, json, yaml)" default:"table"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	format, err := render.ParseFormat(b.Format)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	comp, err := root.compose(ctx)
	if err != nil {
		return err
	}
	keys, err := app.Selection{Keys: b.Keys, All: b.All, Checks: b.Checks}.Resolve(comp.Set)
	if err != nil {
		return err
	}

	store, err := history.NewSQLiteStore(comp.Config.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := app.NewBuildService(app.NewToolchainBuilder(comp.Config.Toolchain), store, nil)
	records, buildErr := svc.Build(ctx, comp, keys)
	if err := render.History(g.Stdout, records, format); err != nil {
		return err
	}
	return buildErr
}

package commands

import (
	"context"

	"git.home.luguber.info/inful/buildmatrix/internal/render"
)

// ComposeCmd implements the 'compose' command.
type ComposeCmd struct {
	Format  string `short:"f" help:"Output format (table, json, yaml)" default:"table"`
	Overlay bool   `help:"Print only the overlay export"`
}

func (c *ComposeCmd) Run(g *Global, root *CLI) error {
	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	comp, err := root.compose(context.Background())
	if err != nil {
		return err
	}
	if c.Overlay {
		return render.Overlay(g.Stdout, comp.Set.Overlay, format)
	}
	return render.Set(g.Stdout, comp.Set, format)
}

package commands

import (
	"context"

	"git.home.luguber.info/inful/buildmatrix/internal/history"
	"git.home.luguber.info/inful/buildmatrix/internal/render"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Key    string `short:"k" help:"Only builds of this package key"`
	Limit  int    `short:"n" help:"Maximum number of records (0 for all)" default:"20"`
	Format string `short:"f" help:"Output format (table, json, yaml)" default:"table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	format, err := render.ParseFormat(h.Format)
	if err != nil {
		return err
	}
	cfg, _, err := root.loadConfig()
	if err != nil {
		return err
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var records []history.Record
	if h.Key != "" {
		records, err = store.ByKey(ctx, h.Key, h.Limit)
	} else {
		records, err = store.Recent(ctx, h.Limit)
	}
	if err != nil {
		return err
	}
	return render.History(g.Stdout, records, format)
}

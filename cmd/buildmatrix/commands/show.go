package commands

import (
	"context"
	"io"

	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/render"
)

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	Registry string `arg:"" enum:"packages,apps,checks,default,overlay" help:"Registry to show (packages, apps, checks, default, overlay)"`
	Key      string `arg:"" optional:"" help:"Exact key of one entry"`
	Format   string `short:"f" help:"Output format (table, json, yaml)" default:"table"`
}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	format, err := render.ParseFormat(s.Format)
	if err != nil {
		return err
	}
	comp, err := root.compose(context.Background())
	if err != nil {
		return err
	}
	return s.show(g.Stdout, comp.Set, format)
}

func (s *ShowCmd) show(w io.Writer, set *compose.Set, format render.Format) error {
	switch s.Registry {
	case "default":
		return render.Package(w, set.Default(), format)
	case "overlay":
		return render.Overlay(w, set.Overlay, format)
	case "apps":
		if s.Key == "" {
			return render.Apps(w, set.Apps, format)
		}
		a, ok := set.Apps.Get(s.Key)
		if !ok {
			return notFound(s.Registry, s.Key, set.Apps.Keys())
		}
		return render.App(w, a, format)
	}

	reg := set.Packages
	if s.Registry == "checks" {
		reg = set.Checks
	}
	if s.Key == "" {
		return render.Packages(w, reg, format)
	}
	p, ok := reg.Get(s.Key)
	if !ok {
		return notFound(s.Registry, s.Key, reg.Keys())
	}
	return render.Package(w, p, format)
}

func notFound(registry, key string, known []string) error {
	return errors.NotFoundError("no such entry").
		WithContext("registry", registry).
		WithContext("key", key).
		WithContext("known", known).
		Build()
}

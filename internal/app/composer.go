// Package app wires configuration into the composition pipeline and the build,
// run and serve flows built on top of it.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/gitversion"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
	"git.home.luguber.info/inful/buildmatrix/internal/matrix"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
	"git.home.luguber.info/inful/buildmatrix/internal/notify"
	"git.home.luguber.info/inful/buildmatrix/internal/render"
	"git.home.luguber.info/inful/buildmatrix/internal/util/sets"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
)

// Composition is one published composition pass and the inputs it came from.
// It is immutable once returned.
type Composition struct {
	ID         string
	Set        *compose.Set
	Config     *config.Config
	Source     string
	Version    string
	ComposedAt time.Time
	Duration   time.Duration
}

// Summary returns the metadata shown alongside the registries.
func (c *Composition) Summary() render.Summary {
	return render.Summary{
		Project:       c.Config.Project.Name,
		Version:       c.Version,
		CompositionID: c.ID,
		Source:        c.Source,
		ComposedAt:    c.ComposedAt,
	}
}

// Event describes the composition for notification subscribers.
func (c *Composition) Event(trigger string) notify.Event {
	return notify.Event{
		CompositionID: c.ID,
		Project:       c.Config.Project.Name,
		Version:       c.Version,
		Source:        c.Source,
		Trigger:       trigger,
		Packages:      c.Set.Packages.Keys(),
		Apps:          c.Set.Apps.Keys(),
		Checks:        c.Set.Checks.Keys(),
		Default:       c.Set.DefaultKey,
		Overlay:       c.Set.Overlay.Namespace,
		ComposedAt:    c.ComposedAt,
	}
}

// Composer runs variant registry -> matrix -> registries for a configuration.
type Composer struct {
	recorder metrics.Recorder
	now      func() time.Time
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) ComposerOption {
	return func(c *Composer) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) { c.now = now }
}

func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{recorder: metrics.NoopRecorder{}, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compose runs one full pass over cfg. source names where cfg came from.
func (c *Composer) Compose(ctx context.Context, cfg *config.Config, source string) (*Composition, error) {
	start := c.now()
	id := uuid.NewString()
	log := slog.With(logfields.CompositionID(id))

	comp, err := c.compose(ctx, cfg, source)
	elapsed := c.now().Sub(start)
	c.recorder.ObserveCompositionDuration(elapsed)
	c.recorder.IncCompositionOutcome(metrics.ResultFor(err == nil))
	if err != nil {
		log.Error("Composition failed", logfields.Error(err))
		return nil, err
	}

	comp.ID = id
	comp.ComposedAt = start
	comp.Duration = elapsed
	c.recorder.SetRegistrySize("packages", comp.Set.Packages.Len())
	c.recorder.SetRegistrySize("apps", comp.Set.Apps.Len())
	c.recorder.SetRegistrySize("checks", comp.Set.Checks.Len())

	log.Info("Composition complete",
		slog.String("source", source),
		slog.String("version", comp.Version),
		slog.Int("packages", comp.Set.Packages.Len()),
		slog.Int("apps", comp.Set.Apps.Len()),
		slog.Int("checks", comp.Set.Checks.Len()),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return comp, nil
}

func (c *Composer) compose(ctx context.Context, cfg *config.Config, source string) (*Composition, error) {
	version := cfg.Project.Version
	if cfg.Project.ResolveVersion {
		v, err := gitversion.Resolve(cfg.Project.SourceRoot, version)
		if err != nil {
			return nil, err
		}
		version = v
	}

	ids := make([]variant.ID, len(cfg.Variants.IDs))
	for i, id := range cfg.Variants.IDs {
		ids[i] = variant.ID(id)
	}
	reg, err := variant.NewRegistry(ids...)
	if err != nil {
		return nil, err
	}

	gen := &artifact.Generator{
		Project:      cfg.Project.Name,
		Version:      version,
		SourceRoot:   cfg.Project.SourceRoot,
		ManifestPath: cfg.Project.ManifestPath,
		ToolName:     cfg.Project.ToolName,
		BaseOptions:  cfg.Project.BuildOptions,
		Normalizer:   artifact.Normalizer{Prefix: cfg.Variants.StripPrefix},
	}
	m, err := matrix.Expand(ctx, reg, gen, matrix.WithConcurrency(cfg.Variants.Concurrency))
	if err != nil {
		return nil, err
	}

	set, err := compose.Compose(m, ComposeOptions(cfg))
	if err != nil {
		return nil, err
	}
	return &Composition{Set: set, Config: cfg, Source: source, Version: version}, nil
}

// ComposeOptions extracts the hand-authored composition inputs from cfg.
func ComposeOptions(cfg *config.Config) compose.Options {
	opts := compose.Options{
		CheckExclusions:  sets.New(cfg.Checks.Exclude...),
		Default:          cfg.Default,
		OverlayNamespace: cfg.Overlay.Namespace,
	}
	for _, e := range cfg.Packages.Auxiliary {
		opts.AuxiliaryPackages = append(opts.AuxiliaryPackages, compose.AuxiliaryTool{
			Name: e.Name, Description: e.Description, Script: e.Script,
		})
	}
	for _, e := range cfg.Apps.Auxiliary {
		opts.AuxiliaryApps = append(opts.AuxiliaryApps, compose.ScriptAction{
			Name: e.Name, Description: e.Description, Script: e.Script,
		})
	}
	return opts
}

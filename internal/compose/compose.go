// Package compose projects an expanded matrix into the registries consumers see:
// packages, applications, checks, a default package and an overlay.
//
// Composition performs no I/O. It either returns a complete Set or an error and
// nothing else; a published Set is never modified.
package compose

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/matrix"
	"git.home.luguber.info/inful/buildmatrix/internal/util/sets"
)

// Options carries the hand-authored parts of a composition.
type Options struct {
	AuxiliaryPackages []AuxiliaryTool
	AuxiliaryApps     []ScriptAction
	CheckExclusions   sets.Set[string]
	Default           string
	OverlayNamespace  string
}

// Set is the result of one composition pass.
type Set struct {
	Packages   *Registry[*Package] `json:"packages" yaml:"packages"`
	Apps       *Registry[*App]     `json:"apps" yaml:"apps"`
	Checks     *Registry[*Package] `json:"checks" yaml:"checks"`
	DefaultKey string              `json:"default" yaml:"default"`
	Overlay    *Overlay            `json:"overlay" yaml:"overlay"`
}

// Default returns the default package. It always exists in a composed Set.
func (s *Set) Default() *Package {
	p, _ := s.Packages.Get(s.DefaultKey)
	return p
}

// Compose builds every registry from m and opts.
func Compose(m *matrix.Matrix, opts Options) (*Set, error) {
	packages, err := composePackages(m, opts.AuxiliaryPackages)
	if err != nil {
		return nil, err
	}
	apps, err := composeApps(packages, opts.AuxiliaryApps)
	if err != nil {
		return nil, err
	}
	checks, err := composeChecks(packages, opts.CheckExclusions)
	if err != nil {
		return nil, err
	}

	if opts.Default == "" {
		return nil, errors.ValidationError("default package is not set").Build()
	}
	if !packages.Has(opts.Default) {
		return nil, errors.ValidationError("default package does not name a package").
			WithContext("default", opts.Default).
			WithContext("packages", packages.Keys()).
			Build()
	}
	if strings.TrimSpace(opts.OverlayNamespace) == "" {
		return nil, errors.ValidationError("overlay namespace is not set").Build()
	}

	return &Set{
		Packages:   packages,
		Apps:       apps,
		Checks:     checks,
		DefaultKey: opts.Default,
		Overlay:    &Overlay{Namespace: opts.OverlayNamespace, Packages: packages},
	}, nil
}

func composePackages(m *matrix.Matrix, tools []AuxiliaryTool) (*Registry[*Package], error) {
	reg := newRegistry[*Package](m.Len() + len(tools))
	m.Each(func(k artifact.Key, d *artifact.Description) {
		reg.add(k.String(), &Package{Key: k.String(), Kind: KindArtifact, Artifact: d})
	})

	for i := range tools {
		tool := tools[i]
		if err := validateHandAuthored("package", tool.Name, tool.Script); err != nil {
			return nil, err
		}
		if !reg.add(tool.Name, &Package{Key: tool.Name, Kind: KindTool, Tool: &tool}) {
			return nil, collision("packages", tool.Name, reg)
		}
	}
	return reg, nil
}

func composeApps(packages *Registry[*Package], actions []ScriptAction) (*Registry[*App], error) {
	reg := newRegistry[*App](packages.Len() + len(actions))
	packages.Each(func(k string, p *Package) {
		if p.Kind != KindArtifact {
			return
		}
		reg.add(k, &App{
			Key:     k,
			Type:    AppType,
			Program: path.Join(k, p.Artifact.EntryPoint),
			Package: p,
		})
	})

	for i := range actions {
		action := actions[i]
		if err := validateHandAuthored("app", action.Name, action.Script); err != nil {
			return nil, err
		}
		if !reg.add(action.Name, &App{Key: action.Name, Type: AppType, Action: &action}) {
			return nil, collision("apps", action.Name, reg)
		}
	}
	return reg, nil
}

func composeChecks(packages *Registry[*Package], exclude sets.Set[string]) (*Registry[*Package], error) {
	for _, k := range sets.Sorted(exclude) {
		if !packages.Has(k) {
			return nil, errors.ValidationError("check exclusion does not name a package").
				WithContext("key", k).
				Build()
		}
	}

	reg := newRegistry[*Package](packages.Len())
	packages.Each(func(k string, p *Package) {
		if exclude.Has(k) {
			return
		}
		reg.add(k, p)
	})
	return reg, nil
}

func validateHandAuthored(kind, name, script string) error {
	if _, err := artifact.ParseKey(name); err != nil {
		return errors.ValidationError("invalid auxiliary "+kind+" name").
			WithCause(err).
			WithContext("name", name).
			Build()
	}
	if strings.TrimSpace(script) == "" {
		return errors.ValidationError("auxiliary " + kind + " has an empty script").
			WithContext("name", name).
			Build()
	}
	return nil
}

func collision[T any](registry, key string, reg *Registry[T]) error {
	return errors.DuplicateKeyError("hand-authored entry collides with an existing key").
		WithContext("registry", registry).
		WithContext("key", key).
		WithContext("keys", reg.Keys()).
		Build()
}

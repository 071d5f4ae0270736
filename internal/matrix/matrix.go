// Package matrix expands a variant registry into the keyed set of artifact
// descriptions every downstream registry is projected from.
package matrix

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
)

// Generator describes the artifact for a single variant.
type Generator interface {
	Generate(id variant.ID) (*artifact.Description, error)
}

// Matrix is the expanded, read-only key -> description map, ordered like the
// registry it came from.
type Matrix struct {
	keys    []artifact.Key
	entries map[artifact.Key]*artifact.Description
}

// Keys returns the artifact keys in registry order.
func (m *Matrix) Keys() []artifact.Key { return slices.Clone(m.keys) }

// Get looks up a description by exact key.
func (m *Matrix) Get(key artifact.Key) (*artifact.Description, bool) {
	d, ok := m.entries[key]
	return d, ok
}

// Len returns the number of artifacts.
func (m *Matrix) Len() int { return len(m.keys) }

// Each calls fn for every artifact in order.
func (m *Matrix) Each(fn func(artifact.Key, *artifact.Description)) {
	for _, k := range m.keys {
		fn(k, m.entries[k])
	}
}

type options struct {
	concurrency int
}

// Option tunes expansion.
type Option func(*options)

// WithConcurrency bounds the number of generations in flight. Values below one
// mean unbounded.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// Expand generates one description per variant and assembles them into a Matrix.
//
// Generation runs concurrently; assembly starts only once every generation has
// finished, so a failure anywhere yields no matrix. Two variants deriving the same
// key fail with a duplicate key error naming both.
func Expand(ctx context.Context, reg *variant.Registry, gen Generator, opts ...Option) (*Matrix, error) {
	cfg := options{}
	for _, o := range opts {
		o(&cfg)
	}

	ids := reg.IDs()
	descs := make([]*artifact.Description, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := gen.Generate(id)
			if err != nil {
				return err
			}
			descs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && !errors.IsClassified(err) {
			return nil, errors.WrapError(err, errors.CategoryRuntime, "matrix expansion canceled").Build()
		}
		return nil, err
	}

	m := &Matrix{
		keys:    make([]artifact.Key, 0, len(descs)),
		entries: make(map[artifact.Key]*artifact.Description, len(descs)),
	}
	for _, d := range descs {
		if prev, dup := m.entries[d.Key]; dup {
			return nil, errors.DuplicateKeyError("variants derive the same artifact key").
				WithContext("key", d.Key.String()).
				WithContext("first_variant", prev.Variant.String()).
				WithContext("second_variant", d.Variant.String()).
				Build()
		}
		m.entries[d.Key] = d
		m.keys = append(m.keys, d.Key)
	}
	return m, nil
}

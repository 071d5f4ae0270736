// Package variant holds the ordered set of build variants a matrix is expanded from.
//
// A variant is one feature configuration of the target project. The registry is
// construction-time data: once built it never changes, and adding a variant is a
// data change that every downstream registry picks up through expansion.
package variant

import (
	"slices"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
)

// ID identifies one build configuration, e.g. a cargo feature name.
type ID string

func (id ID) String() string { return string(id) }

// DefaultIDs returns the dcompass GeoIP backend variants in their canonical order.
func DefaultIDs() []ID {
	return []ID{"geoip-maxmind", "geoip-cn"}
}

// Registry is an ordered, duplicate-free sequence of variant IDs.
type Registry struct {
	ids   []ID
	index map[ID]int
}

// NewRegistry validates and freezes ids. Empty and repeated IDs are rejected.
func NewRegistry(ids ...ID) (*Registry, error) {
	r := &Registry{
		ids:   make([]ID, 0, len(ids)),
		index: make(map[ID]int, len(ids)),
	}
	for pos, id := range ids {
		if id == "" {
			return nil, errors.ValidationError("variant id cannot be empty").
				WithContext("position", pos).
				Build()
		}
		if first, dup := r.index[id]; dup {
			return nil, errors.ValidationError("duplicate variant id").
				WithContext("variant", string(id)).
				WithContext("first_position", first).
				WithContext("position", pos).
				Build()
		}
		r.index[id] = pos
		r.ids = append(r.ids, id)
	}
	return r, nil
}

// IDs returns a copy of the variants in registry order.
func (r *Registry) IDs() []ID {
	return slices.Clone(r.ids)
}

// Len returns the number of variants.
func (r *Registry) Len() int { return len(r.ids) }

// Contains reports whether id is registered.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.index[id]
	return ok
}

// Strings returns the variants as plain strings, in order.
func (r *Registry) Strings() []string {
	out := make([]string, len(r.ids))
	for i, id := range r.ids {
		out[i] = string(id)
	}
	return out
}

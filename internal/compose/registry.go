package compose

import (
	"bytes"
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// Registry is an insertion-ordered, read-only map from key to entry.
// Only this package can populate one; consumers get lookups and iteration.
type Registry[T any] struct {
	keys    []string
	entries map[string]T
}

func newRegistry[T any](capacity int) *Registry[T] {
	return &Registry[T]{
		keys:    make([]string, 0, capacity),
		entries: make(map[string]T, capacity),
	}
}

// add inserts v under key and reports false when the key is already taken.
func (r *Registry[T]) add(key string, v T) bool {
	if _, exists := r.entries[key]; exists {
		return false
	}
	r.entries[key] = v
	r.keys = append(r.keys, key)
	return true
}

// Get looks up an entry by exact key.
func (r *Registry[T]) Get(key string) (T, bool) {
	v, ok := r.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Registry[T]) Has(key string) bool {
	_, ok := r.entries[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Registry[T]) Keys() []string { return slices.Clone(r.keys) }

// Len returns the number of entries.
func (r *Registry[T]) Len() int { return len(r.keys) }

// Each visits every entry in insertion order.
func (r *Registry[T]) Each(fn func(key string, v T)) {
	for _, k := range r.keys {
		fn(k, r.entries[k])
	}
}

// MarshalJSON encodes the registry as an object whose members keep insertion order.
func (r *Registry[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the registry as a mapping node that keeps insertion order.
func (r *Registry[T]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range r.keys {
		var val yaml.Node
		if err := val.Encode(r.entries[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

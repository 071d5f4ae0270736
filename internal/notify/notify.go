// Package notify publishes composition events so downstream consumers can
// react to a changed build matrix.
package notify

import (
	"context"
	"time"
)

// Event announces a newly published composition.
type Event struct {
	CompositionID string    `json:"composition_id"`
	Project       string    `json:"project"`
	Version       string    `json:"version"`
	Source        string    `json:"source"`
	Trigger       string    `json:"trigger"`
	Packages      []string  `json:"packages"`
	Apps          []string  `json:"apps"`
	Checks        []string  `json:"checks"`
	Default       string    `json:"default"`
	Overlay       string    `json:"overlay"`
	ComposedAt    time.Time `json:"composed_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() {}

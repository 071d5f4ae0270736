// Package history keeps a ledger of package builds in SQLite.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of a recorded build.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
)

// Record is one build attempt of one package.
type Record struct {
	BuildID       string        `json:"build_id" yaml:"build_id"`
	CompositionID string        `json:"composition_id" yaml:"composition_id"`
	Key           string        `json:"key" yaml:"key"`
	Name          string        `json:"name" yaml:"name"`
	Version       string        `json:"version" yaml:"version"`
	Result        Result        `json:"result" yaml:"result"`
	Executable    string        `json:"executable,omitempty" yaml:"executable,omitempty"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// NewBuildID returns a fresh build identifier.
func NewBuildID() string { return uuid.NewString() }

// Store persists and lists build records.
type Store interface {
	// Record appends r to the ledger.
	Record(ctx context.Context, r Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// ByKey returns up to limit records for one package key, newest first.
	ByKey(ctx context.Context, key string, limit int) ([]Record, error)

	// Close releases the underlying database.
	Close() error
}

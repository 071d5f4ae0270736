// Package toolchain runs the external build for artifact descriptions and
// materializes hand-authored scripts as executables.
package toolchain

import (
	"context"
	"time"
)

// Request is everything the toolchain needs to build one artifact.
type Request struct {
	Name       string
	Version    string
	SourceRoot string
	Options    []string
	// EntryPoint is the executable path relative to OutputDir, e.g. "bin/dcompass".
	EntryPoint string
	OutputDir  string
}

// Result describes a finished build.
type Result struct {
	Executable string
	Duration   time.Duration
	Output     string
}

// Builder abstracts how an artifact is built. CommandBuilder shells out to the
// configured toolchain; NoopBuilder is used in tests and dry runs.
//
// Errors are build errors (CategoryBuild) wrapping the toolchain's own error
// unchanged. Builders never retry.
type Builder interface {
	Build(ctx context.Context, req Request) (*Result, error)
}

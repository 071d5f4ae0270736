package compose

import (
	"path"

	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
)

// AppType is the type tag every application entry carries.
const AppType = "app"

// AuxiliaryTool is a hand-authored package built from an inline shell script
// instead of through the build toolchain.
type AuxiliaryTool struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Script      string `json:"script" yaml:"script"`
}

// ScriptAction is a hand-authored application that runs an inline shell script.
type ScriptAction struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Script      string `json:"script" yaml:"script"`
}

// PackageKind distinguishes matrix artifacts from auxiliary tools.
type PackageKind string

const (
	KindArtifact PackageKind = "artifact"
	KindTool     PackageKind = "tool"
)

// Package is an entry of the package registry. Exactly one of Artifact and Tool is set.
type Package struct {
	Key      string                `json:"key" yaml:"key"`
	Kind     PackageKind           `json:"kind" yaml:"kind"`
	Artifact *artifact.Description `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Tool     *AuxiliaryTool        `json:"tool,omitempty" yaml:"tool,omitempty"`
}

// Name returns the artifact name, or the tool name for auxiliary entries.
func (p *Package) Name() string {
	if p.Artifact != nil {
		return p.Artifact.Name
	}
	return p.Tool.Name
}

// EntryPoint is the executable path relative to the package's build output.
func (p *Package) EntryPoint() string {
	if p.Artifact != nil {
		return p.Artifact.EntryPoint
	}
	return path.Join("bin", p.Tool.Name)
}

// App is an entry of the application registry.
//
// Program is relative to the build output root: "<package key>/<entry point>".
// Script actions carry their script instead of a package reference.
type App struct {
	Key     string        `json:"key" yaml:"key"`
	Type    string        `json:"type" yaml:"type"`
	Program string        `json:"program,omitempty" yaml:"program,omitempty"`
	Package *Package      `json:"-" yaml:"-"`
	Action  *ScriptAction `json:"action,omitempty" yaml:"action,omitempty"`
}

// IsScript reports whether the app runs an inline script.
func (a *App) IsScript() bool { return a.Action != nil }

// Overlay exposes the package registry under a namespace for consumers that
// extend their own package sets.
type Overlay struct {
	Namespace string             `json:"namespace" yaml:"namespace"`
	Packages  *Registry[*Package] `json:"packages" yaml:"packages"`
}

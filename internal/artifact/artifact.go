// Package artifact maps a build variant to the description of the artifact that
// builds it. Generation is pure: it describes a build and never performs one.
package artifact

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
)

// FeatureFlag is the build option that selects a variant.
const FeatureFlag = "--features"

// ManifestFlag points the toolchain at the project manifest.
const ManifestFlag = "--manifest-path"

// Description is one buildable output of the matrix. It is shared by pointer between
// every registry that exposes it and must not be modified after generation.
type Description struct {
	Key        Key        `json:"key" yaml:"key"`
	Variant    variant.ID `json:"variant" yaml:"variant"`
	Name       string     `json:"name" yaml:"name"`
	Version    string     `json:"version" yaml:"version"`
	SourceRoot string     `json:"source_root" yaml:"source_root"`
	Options    []string   `json:"options" yaml:"options"`
	EntryPoint string     `json:"entry_point" yaml:"entry_point"`
}

// Selectors returns the feature selectors encoded in the build options, accepting
// both "--features x" and "--features=x" spellings.
func (d *Description) Selectors() []string {
	var out []string
	for i := 0; i < len(d.Options); i++ {
		opt := d.Options[i]
		switch {
		case opt == FeatureFlag:
			if i+1 < len(d.Options) {
				out = append(out, d.Options[i+1])
				i++
			}
		case strings.HasPrefix(opt, FeatureFlag+"="):
			out = append(out, strings.TrimPrefix(opt, FeatureFlag+"="))
		}
	}
	return out
}

// ExecutablePath resolves the entry point against a build output directory.
func (d *Description) ExecutablePath(outDir string) string {
	return filepath.Join(outDir, filepath.FromSlash(d.EntryPoint))
}

// Generator holds the project-wide inputs shared by every artifact.
type Generator struct {
	Project      string
	Version      string
	SourceRoot   string
	ManifestPath string
	ToolName     string
	BaseOptions  []string
	Normalizer   Normalizer
}

// Generate describes the artifact for id. Equal inputs always yield equal descriptions.
func (g *Generator) Generate(id variant.ID) (*Description, error) {
	if g.Project == "" {
		return nil, errors.GenerationError("generator has no project name").Build()
	}
	if strings.ContainsAny(string(id), "\"'\n\t ") {
		return nil, errors.GenerationError("malformed variant id").
			WithContext("variant", string(id)).
			Build()
	}
	if hasFeatureFlag(g.BaseOptions) {
		return nil, errors.GenerationError("base build options already select features").
			WithContext("variant", string(id)).
			WithContext("options", slices.Clone(g.BaseOptions)).
			Build()
	}

	key, err := g.Normalizer.Derive(id)
	if err != nil {
		return nil, err
	}

	opts := slices.Clone(g.BaseOptions)
	if g.ManifestPath != "" {
		opts = append(opts, ManifestFlag, g.ManifestPath)
	}
	opts = append(opts, FeatureFlag, string(id))

	tool := g.ToolName
	if tool == "" {
		tool = g.Project
	}

	return &Description{
		Key:        key,
		Variant:    id,
		Name:       g.Project + "-" + string(id),
		Version:    g.Version,
		SourceRoot: g.SourceRoot,
		Options:    opts,
		EntryPoint: path.Join("bin", tool),
	}, nil
}

func hasFeatureFlag(opts []string) bool {
	for _, o := range opts {
		if o == FeatureFlag || strings.HasPrefix(o, FeatureFlag+"=") {
			return true
		}
	}
	return false
}

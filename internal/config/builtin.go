package config

import "git.home.luguber.info/inful/buildmatrix/internal/variant"

const (
	updateScript = `set -e
mkdir -p ./data
wget -N -P ./data "${GEOIP_DATA_URL:-https://github.com/Dreamacro/maxmind-geoip/releases/latest/download/Country.mmdb}"
`
	commitScript = `set -e
cargo fmt --all
git add -A
git commit -m "${1:-chore: update data}"
`
)

// Builtin returns the dcompass matrix: one artifact per GeoIP backend, a commit
// helper package and a data update app.
func Builtin() *Config {
	return &Config{
		Version: CurrentVersion,
		Project: ProjectConfig{
			Name:         "dcompass",
			Version:      "git",
			SourceRoot:   ".",
			ManifestPath: "./dcompass/Cargo.toml",
			ToolName:     "dcompass",
		},
		Variants: VariantsConfig{
			IDs:         defaultVariantIDs(),
			StripPrefix: "geoip-",
		},
		Packages: AuxiliaryConfig{Auxiliary: []AuxiliaryEntry{
			{Name: "commit", Description: "Format and commit the working tree", Script: commitScript},
		}},
		Apps: AuxiliaryConfig{Auxiliary: []AuxiliaryEntry{
			{Name: "update", Description: "Refresh bundled GeoIP data", Script: updateScript},
		}},
		Checks:  ChecksConfig{Exclude: []string{"commit"}},
		Default: "maxmind",
		Overlay: OverlayConfig{Namespace: "dcompass"},
		Toolchain: ToolchainConfig{
			Command: "cargo",
			Args:    []string{"build", "--release"},
		},
	}
}

func defaultVariantIDs() []string {
	ids := variant.DefaultIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// scriptKey names mapping entries whose values are shell bodies and stay opaque.
const scriptKey = "script"

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles populates the process environment from a dotenv file. Variables
// that are already set are left alone.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load environment file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
		return
	}
}

// expandEnv substitutes ${VAR} and $VAR references to variables that are set.
// Anything else, such as ${1:-default}, is kept verbatim.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if isEnvName(name) {
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
		}
		return "${" + name + "}"
	})
}

// expandNode expands environment references in scalar values below n, skipping
// the values of script entries. A plain scalar whose text changed is re-resolved
// so "${N}" can still decode into a number.
func expandNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			expandNode(c)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == scriptKey {
				continue
			}
			expandNode(n.Content[i+1])
		}
	case yaml.ScalarNode:
		expanded := expandEnv(n.Value)
		if expanded == n.Value {
			return
		}
		n.Value = expanded
		if n.Style == 0 {
			n.Tag = ""
		}
	}
}

func isEnvName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

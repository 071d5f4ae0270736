// Package render writes composed registries and build history for people and
// machines: JSON, YAML, tables and an HTML summary page.
package render

import (
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/normalization"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var formatNormalizer = normalization.NewNormalizer(map[string]Format{
	"table": FormatTable,
	"json":  FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
}, FormatTable)

// ParseFormat accepts any case and the "yml" alias.
func ParseFormat(raw string) (Format, error) {
	f, err := formatNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", errors.ValidationError("unknown output format").
			WithCause(err).
			WithContext("format", raw).
			Build()
	}
	return f, nil
}

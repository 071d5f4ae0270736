package artifact

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
)

// Key is the normalized name an artifact is published under in every registry.
// Obtain one through Normalizer.Derive or ParseKey; the zero value is never valid.
type Key string

func (k Key) String() string { return string(k) }

// keys double as URL path segments and file names under the build output.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ParseKey validates a hand-authored registry key.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return "", errors.ValidationError("registry key cannot be empty").Build()
	}
	if !keyPattern.MatchString(s) {
		return "", errors.ValidationError("registry key contains unsupported characters").
			WithContext("key", s).
			Build()
	}
	return Key(s), nil
}

// Normalizer derives keys from variant IDs by stripping a constant prefix.
// IDs without the prefix are used unchanged. Surrounding whitespace is ignored.
type Normalizer struct {
	Prefix string
}

// Derive maps id to its key. An ID that normalizes to nothing, or to something that
// is not a valid key, fails generation.
func (n Normalizer) Derive(id variant.ID) (Key, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(id)), n.Prefix))
	if raw == "" {
		return "", errors.GenerationError("variant normalizes to an empty key").
			WithContext("variant", string(id)).
			WithContext("prefix", n.Prefix).
			Build()
	}
	if !keyPattern.MatchString(raw) {
		return "", errors.GenerationError("variant normalizes to an invalid key").
			WithContext("variant", string(id)).
			WithContext("key", raw).
			Build()
	}
	return Key(raw), nil
}

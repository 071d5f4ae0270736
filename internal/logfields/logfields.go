package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyVariant       = "variant"
	KeyKey           = "key"
	KeyName          = "name"
	KeyRegistry      = "registry"
	KeyCompositionID = "composition_id"
	KeyBuildID       = "build_id"
	KeyDurationMS    = "duration_ms"
	KeyCount         = "count"
	KeyPath          = "path"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Variant(id string) slog.Attr       { return slog.String(KeyVariant, id) }
func Key(k string) slog.Attr            { return slog.String(KeyKey, k) }
func Name(n string) slog.Attr           { return slog.String(KeyName, n) }
func Registry(name string) slog.Attr    { return slog.String(KeyRegistry, name) }
func CompositionID(id string) slog.Attr { return slog.String(KeyCompositionID, id) }
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

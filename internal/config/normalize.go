package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated, bounded and free-text fields before
// defaults are applied. It mutates c in place.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeProject(&c.Project)
	normalizeVariants(&c.Variants, res)
	normalizeAuxiliary(&c.Packages)
	normalizeAuxiliary(&c.Apps)
	c.Checks.Exclude = trimAll(c.Checks.Exclude)
	c.Default = strings.TrimSpace(c.Default)
	c.Overlay.Namespace = strings.TrimSpace(c.Overlay.Namespace)
	normalizeLogging(&c.Logging, res)
	return res, nil
}

func normalizeProject(p *ProjectConfig) {
	p.Name = strings.TrimSpace(p.Name)
	p.Version = strings.TrimSpace(p.Version)
	p.SourceRoot = strings.TrimSpace(p.SourceRoot)
	p.ManifestPath = strings.TrimSpace(p.ManifestPath)
	p.ToolName = strings.TrimSpace(p.ToolName)
}

func normalizeVariants(v *VariantsConfig, res *NormalizationResult) {
	v.IDs = trimAll(v.IDs)
	if v.Concurrency < 0 {
		res.Warnings = append(res.Warnings, warnChanged("variants.concurrency", v.Concurrency, 0))
		v.Concurrency = 0
	}
}

func normalizeAuxiliary(a *AuxiliaryConfig) {
	for i := range a.Auxiliary {
		a.Auxiliary[i].Name = strings.TrimSpace(a.Auxiliary[i].Name)
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); strings.TrimSpace(string(l.Level)) != "" {
		if !logLevelNormalizer.IsKnown(string(l.Level)) {
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		} else if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
		}
		l.Level = lvl
	}
	if f := NormalizeLogFormat(string(l.Format)); strings.TrimSpace(string(l.Format)) != "" {
		if !logFormatNormalizer.IsKnown(string(l.Format)) {
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		} else if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
		}
		l.Format = f
	}
}

func trimAll(in []string) []string {
	for i := range in {
		in[i] = strings.TrimSpace(in[i])
	}
	return in
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// minRefreshInterval keeps periodic recomposition from spinning.
const minRefreshInterval = time.Second

// ValidateConfig validates a normalized, defaulted configuration. Cross-references
// between registries (default package, check exclusions) are checked at composition
// time, where the expanded keys are known.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateProject(); err != nil {
		return err
	}
	if err := cv.validateVariants(); err != nil {
		return err
	}
	if err := cv.validateAuxiliary("packages", cv.config.Packages); err != nil {
		return err
	}
	if err := cv.validateAuxiliary("apps", cv.config.Apps); err != nil {
		return err
	}
	if err := cv.validateChecks(); err != nil {
		return err
	}
	if err := cv.validateToolchain(); err != nil {
		return err
	}
	if err := cv.validateServer(); err != nil {
		return err
	}
	return cv.validateNotify()
}

func (cv *configurationValidator) validateProject() error {
	p := cv.config.Project
	if p.Name == "" {
		return errors.New("project.name is required")
	}
	if strings.ContainsAny(p.ToolName, `/\`) {
		return fmt.Errorf("project.tool_name must be a file name: %s", p.ToolName)
	}
	for _, opt := range p.BuildOptions {
		if opt == "--features" || strings.HasPrefix(opt, "--features=") {
			return errors.New("project.build_options must not select features; variants do that")
		}
	}
	return nil
}

func (cv *configurationValidator) validateVariants() error {
	ids := cv.config.Variants.IDs
	if len(ids) == 0 {
		return errors.New("variants.ids must list at least one variant")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return errors.New("variant id cannot be empty")
		}
		if seen[id] {
			return fmt.Errorf("duplicate variant id: %s", id)
		}
		seen[id] = true
	}
	return nil
}

func (cv *configurationValidator) validateAuxiliary(section string, aux AuxiliaryConfig) error {
	seen := make(map[string]bool, len(aux.Auxiliary))
	for i, e := range aux.Auxiliary {
		if e.Name == "" {
			return fmt.Errorf("%s.auxiliary[%d].name cannot be empty", section, i)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate %s.auxiliary name: %s", section, e.Name)
		}
		seen[e.Name] = true
		if strings.TrimSpace(e.Script) == "" {
			return fmt.Errorf("%s.auxiliary[%s].script cannot be empty", section, e.Name)
		}
	}
	return nil
}

func (cv *configurationValidator) validateChecks() error {
	for _, k := range cv.config.Checks.Exclude {
		if k == "" {
			return errors.New("checks.exclude entries cannot be empty")
		}
	}
	return nil
}

func (cv *configurationValidator) validateToolchain() error {
	if cv.config.Toolchain.Command == "" {
		return errors.New("toolchain.command is required")
	}
	for _, kv := range cv.config.Toolchain.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("toolchain.env entry must be KEY=VALUE: %s", kv)
		}
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	s := cv.config.Server
	if !strings.HasPrefix(s.MetricsPath, "/") {
		return fmt.Errorf("server.metrics_path must start with '/': %s", s.MetricsPath)
	}
	if s.RefreshInterval == "" {
		return nil
	}
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return fmt.Errorf("invalid server.refresh_interval: %w", err)
	}
	if d < minRefreshInterval {
		return fmt.Errorf("server.refresh_interval must be at least %s", minRefreshInterval)
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n == nil {
		return nil
	}
	if n.NATSURL == "" {
		return errors.New("notify.nats_url is required when notify is configured")
	}
	u, err := url.Parse(n.NATSURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("invalid notify.nats_url: %s", n.NATSURL)
	}
	return nil
}

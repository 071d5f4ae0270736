package config

import (
	"git.home.luguber.info/inful/buildmatrix/internal/artifact"
	"git.home.luguber.info/inful/buildmatrix/internal/variant"
)

const (
	DefaultToolchainCommand = "cargo"
	DefaultOutputDir        = "result"
	DefaultServerAddr       = ":8080"
	DefaultMetricsPath      = "/metrics"
	DefaultHistoryPath      = ".buildmatrix/history.db"
	DefaultNotifySubject    = "buildmatrix.compositions"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ProjectDefaultApplier fills in project-wide build inputs.
type ProjectDefaultApplier struct{}

func (ProjectDefaultApplier) Domain() string { return "project" }

func (ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Project.Version == "" {
		cfg.Project.Version = "git"
	}
	if cfg.Project.SourceRoot == "" {
		cfg.Project.SourceRoot = "."
	}
	if cfg.Project.ToolName == "" {
		cfg.Project.ToolName = cfg.Project.Name
	}
	return nil
}

// CompositionDefaultApplier fills in the default package and overlay namespace.
type CompositionDefaultApplier struct{}

func (CompositionDefaultApplier) Domain() string { return "composition" }

// ApplyDefaults makes the first variant's artifact the default package when none
// is named.
func (CompositionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Default == "" && len(cfg.Variants.IDs) > 0 {
		n := artifact.Normalizer{Prefix: cfg.Variants.StripPrefix}
		if key, err := n.Derive(variant.ID(cfg.Variants.IDs[0])); err == nil {
			cfg.Default = key.String()
		}
	}
	if cfg.Overlay.Namespace == "" {
		cfg.Overlay.Namespace = cfg.Project.Name
	}
	return nil
}

// ToolchainDefaultApplier defaults to a cargo release build.
type ToolchainDefaultApplier struct{}

func (ToolchainDefaultApplier) Domain() string { return "toolchain" }

func (ToolchainDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Toolchain.Command == "" {
		cfg.Toolchain.Command = DefaultToolchainCommand
		if len(cfg.Toolchain.Args) == 0 {
			cfg.Toolchain.Args = []string{"build", "--release"}
		}
	}
	if cfg.Toolchain.OutputDir == "" {
		cfg.Toolchain.OutputDir = DefaultOutputDir
	}
	return nil
}

// RuntimeDefaultApplier covers server, notify, history and logging.
type RuntimeDefaultApplier struct{}

func (RuntimeDefaultApplier) Domain() string { return "runtime" }

func (RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = DefaultMetricsPath
	}
	if cfg.Notify != nil && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// NewDefaultAppliers returns the appliers in the order they must run.
func NewDefaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		ProjectDefaultApplier{},
		CompositionDefaultApplier{},
		ToolchainDefaultApplier{},
		RuntimeDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range NewDefaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Package config loads, normalizes, defaults and validates the buildmatrix
// configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
)

// CurrentVersion is the only configuration format version understood by Load.
const CurrentVersion = "1.0"

// DefaultPath is looked up in the working directory when no path is given.
const DefaultPath = "buildmatrix.yaml"

// BuiltinSource is reported as the config source when no file was found.
const BuiltinSource = "built-in"

// Config is the root of the configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Project   ProjectConfig   `yaml:"project"`
	Variants  VariantsConfig  `yaml:"variants"`
	Packages  AuxiliaryConfig `yaml:"packages,omitempty"`
	Apps      AuxiliaryConfig `yaml:"apps,omitempty"`
	Checks    ChecksConfig    `yaml:"checks,omitempty"`
	Default   string          `yaml:"default,omitempty"`
	Overlay   OverlayConfig   `yaml:"overlay,omitempty"`
	Toolchain ToolchainConfig `yaml:"toolchain,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Notify    *NotifyConfig   `yaml:"notify,omitempty"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ProjectConfig describes the project every artifact is built from.
type ProjectConfig struct {
	Name           string   `yaml:"name"`
	Version        string   `yaml:"version"`
	SourceRoot     string   `yaml:"source_root,omitempty"`
	ManifestPath   string   `yaml:"manifest_path,omitempty"`
	ToolName       string   `yaml:"tool_name,omitempty"`
	ResolveVersion bool     `yaml:"resolve_version,omitempty"` // "git" becomes "git-<short sha>"
	BuildOptions   []string `yaml:"build_options,omitempty"`
}

// VariantsConfig lists the build variants in matrix order.
type VariantsConfig struct {
	IDs         []string `yaml:"ids"`
	StripPrefix string   `yaml:"strip_prefix,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

// AuxiliaryConfig holds hand-authored registry entries.
type AuxiliaryConfig struct {
	Auxiliary []AuxiliaryEntry `yaml:"auxiliary,omitempty"`
}

// AuxiliaryEntry is a named inline shell script.
type AuxiliaryEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Script      string `yaml:"script"`
}

// ChecksConfig names packages that are not part of the verification set.
type ChecksConfig struct {
	Exclude []string `yaml:"exclude,omitempty"`
}

// OverlayConfig sets the namespace packages are exported under.
type OverlayConfig struct {
	Namespace string `yaml:"namespace,omitempty"`
}

// ToolchainConfig configures the external build command.
type ToolchainConfig struct {
	Command     string   `yaml:"command,omitempty"`
	Args        []string `yaml:"args,omitempty"`
	Env         []string `yaml:"env,omitempty"`
	OutputDir   string   `yaml:"output_dir,omitempty"`
	ArtifactDir string   `yaml:"artifact_dir,omitempty"`
}

// ServerConfig configures `buildmatrix serve`.
type ServerConfig struct {
	Addr            string `yaml:"addr,omitempty"`
	MetricsPath     string `yaml:"metrics_path,omitempty"`
	RefreshInterval string `yaml:"refresh_interval,omitempty"` // empty disables periodic recomposition
	WatchConfig     *bool  `yaml:"watch_config,omitempty"`
}

// RefreshDuration parses RefreshInterval; zero means disabled.
func (s ServerConfig) RefreshDuration() time.Duration {
	if s.RefreshInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 0
	}
	return d
}

// WatchEnabled reports whether serve reloads the config file on change.
func (s ServerConfig) WatchEnabled() bool {
	return s.WatchConfig == nil || *s.WatchConfig
}

// NotifyConfig enables NATS composition events.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig locates the build history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig sets the default log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	// #nosec G304 -- the configuration path is chosen by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse runs the full load pipeline over raw YAML. Environment references are
// expanded in every scalar except script bodies.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	expandNode(&doc)

	var cfg Config
	if len(doc.Content) > 0 {
		if err := doc.Decode(&cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
		}
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve picks the configuration to use. An explicit path must exist. Without
// one, DefaultPath in the working directory is used when present and the built-in
// configuration otherwise; a DefaultPath that exists but cannot be read is an error.
func Resolve(configPath string) (*Config, string, error) {
	if configPath != "" {
		cfg, err := Load(configPath)
		return cfg, configPath, err
	}

	if _, err := os.Stat(DefaultPath); err == nil {
		cfg, err := Load(DefaultPath)
		return cfg, DefaultPath, err
	} else if !os.IsNotExist(err) {
		return nil, "", errors.WrapError(err, errors.CategoryConfig, "cannot access configuration file").
			WithContext("path", DefaultPath).
			Build()
	}

	slog.Debug("No configuration file found, using built-in configuration")
	cfg := Builtin()
	if err := finalize(cfg); err != nil {
		return nil, "", err
	}
	return cfg, BuiltinSource, nil
}

func finalize(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return errors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).
			Build()
	}

	// Normalization pass (case-fold enumerations, bounds, trimming)
	if res, err := NormalizeConfig(cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "normalize").Build()
	} else if res != nil {
		for _, w := range res.Warnings {
			slog.Warn("config normalization", "warning", w)
		}
	}
	if err := applyDefaults(cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").Build()
	}
	if err := ValidateConfig(cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "configuration validation failed").Build()
	}
	return nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			Build()
	}

	example := Builtin()
	example.Project.ResolveVersion = true
	example.Server = ServerConfig{Addr: ":8080", RefreshInterval: "30m"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	header := "# buildmatrix configuration\n# Every variant below expands into a package, an app and (unless excluded) a check.\n# ${VAR} references are expanded from the environment everywhere except in script bodies.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Package commands implements the buildmatrix command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/version"
)

// Global carries process-wide state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal binds the process standard streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" env:"BUILDMATRIX_CONFIG" help:"Configuration file path (default: ./buildmatrix.yaml, else the built-in matrix)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Validate ValidateCmd `cmd:"" help:"Check that the configuration composes"`
	Compose  ComposeCmd  `cmd:"" help:"Print every composed registry"`
	Show     ShowCmd     `cmd:"" help:"List a registry or look up one entry by key"`
	Build    BuildCmd    `cmd:"" help:"Build packages through the toolchain"`
	Run      RunCmd      `cmd:"" help:"Run an application entry"`
	History  HistoryCmd  `cmd:"" help:"List recorded builds"`
	Serve    ServeCmd    `cmd:"" help:"Serve the registries over HTTP and keep them current"`
	Info     VersionCmd  `cmd:"" name:"version" help:"Print build information"`
}

// NewParser builds the kong parser for cli.
func NewParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name("buildmatrix"),
		kong.Description("Compose a build matrix of feature variants into package, app and check registries."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	}, options...)
	return kong.New(cli, opts...)
}

// AfterApply runs after flag parsing; sets up logging until a configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// applyLogging switches to the level and format the configuration asks for.
// --verbose keeps debug output regardless of the configured level.
func (c *CLI) applyLogging(cfg *config.Config) {
	level := cfg.Logging.Level.Slog()
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves the configuration and applies its logging settings.
func (c *CLI) loadConfig() (*config.Config, string, error) {
	cfg, source, err := config.Resolve(c.Config)
	if err != nil {
		return nil, "", err
	}
	c.applyLogging(cfg)
	slog.Debug("Configuration loaded", slog.String("source", source))
	return cfg, source, nil
}

// compose loads the configuration and runs one composition pass.
func (c *CLI) compose(ctx context.Context, opts ...app.ComposerOption) (*app.Composition, error) {
	cfg, source, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewComposer(opts...).Compose(ctx, cfg, source)
}

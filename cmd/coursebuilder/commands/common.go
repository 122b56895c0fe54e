package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/lint"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"coursebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Lint        LintCmd        `cmd:"" help:"Lint lesson markdown and quiz annotations"`
	Extract     ExtractCmd     `cmd:"" help:"Extract quiz records from lessons as JSON"`
	Build       BuildCmd       `cmd:"" help:"Validate the course and write the bundle"`
	Discover    DiscoverCmd    `cmd:"" help:"List the lessons a build would process"`
	Init        InitCmd        `cmd:"" help:"Initialize a new configuration file"`
	Daemon      DaemonCmd      `cmd:"" help:"Start daemon mode for continuous course validation"`
	InstallHook InstallHookCmd `cmd:"" name:"install-hook" help:"Install pre-commit hook for automatic linting"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// logLevel resolves the effective log level. The COURSEBUILDER_LOG_LEVEL
// environment variable wins over --verbose so CI can force debug output
// without changing invocations.
func logLevel(verbose bool) slog.Level {
	if raw := os.Getenv("COURSEBUILDER_LOG_LEVEL"); raw != "" {
		return config.NormalizeLogLevel(raw).SlogLevel()
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig loads the configuration file named by the root --config flag.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// tryLoadConfig loads the config file when it exists, nil otherwise.
// Commands that can run standalone (lint, extract) use it to pick up
// project settings without requiring a config file.
func tryLoadConfig(root *CLI) *config.Config {
	if _, err := os.Stat(root.Config); err != nil {
		return nil
	}
	cfg, err := loadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring unreadable config %s: %v\n", root.Config, err)
		return nil
	}
	return cfg
}

// lintConfigFrom maps the file configuration onto linter settings. A nil
// config (no file present) yields defaults so `lint` works standalone.
func lintConfigFrom(cfg *config.Config) *lint.Config {
	out := &lint.Config{}
	if cfg != nil {
		out.DefaultPoints = cfg.Lint.EffectiveDefaultPoints()
		out.ExtraLanguages = cfg.Lint.ExtraLanguages
		out.Severity = cfg.Lint.Severity
	}
	return out
}

// isColorSupported checks if the terminal supports color output.
func isColorSupported() bool {
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		return false
	}

	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/build"
	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// BuildCmd implements the 'build' command: one full validation run that
// writes the bundle.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory for the bundle" default:""`
	Incremental bool   `short:"i" help:"Skip the build when content and config are unchanged"`
	LintOnly    bool   `name:"lint-only" help:"Validate without writing the bundle"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, cfg, b.Output, b.Incremental, b.LintOnly)
}

// RunBuild executes the shared validation pipeline and prints a summary.
func RunBuild(ctx context.Context, cfg *config.Config, outputDir string, incremental, lintOnly bool) error {
	fmt.Println("Starting course validation")

	result, err := build.NewService().Run(ctx, build.Request{
		Config:    cfg,
		OutputDir: resolveOutputDir(outputDir, cfg),
		Options: build.Options{
			SkipIfUnchanged: incremental,
			LintOnly:        lintOnly,
		},
	})
	if err != nil {
		if result != nil && result.Stage != "" {
			return fmt.Errorf("validation failed in %s stage: %w", result.Stage, err)
		}
		return err
	}

	switch {
	case result.Skipped:
		fmt.Printf("Bundle is current, nothing to do (%s)\n", result.SkipReason)
	case lintOnly:
		fmt.Printf("Validated %d lessons in %s\n", len(result.Lessons), result.Duration.Round(time.Millisecond))
	default:
		if result.Bundle != nil {
			fmt.Printf("Bundle written to %s\n", result.Bundle.Path)
		}
		if result.Manifest != nil {
			fmt.Printf("  %d lessons, %d quizzes, %.1f points\n",
				result.Manifest.Totals.Lessons,
				result.Manifest.Totals.Quizzes,
				result.Manifest.Totals.Points)
		}
		fmt.Printf("  completed in %s\n", result.Duration.Round(time.Millisecond))
	}
	return nil
}

// resolveOutputDir determines the final bundle directory.
// Priority: CLI flag > config output.directory > ./bundle.
func resolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	if cfg.Output.Directory != "" {
		return cfg.Output.Directory
	}
	return "./bundle"
}

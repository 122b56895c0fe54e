package commands

import (
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/coursebuilder/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Path   string `help:"Path to lint (file or directory). Defaults to intelligent detection (lessons/, content/, or .)" arg:"" optional:""`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet  bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	Fix    bool   `help:"Automatically fix issues where possible (requires confirmation)"`
	DryRun bool   `help:"Show what would be fixed without applying changes (requires --fix)"`
	Yes    bool   `short:"y" help:"Auto-confirm fixes without prompting (for CI/CD)"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	if l.DryRun && !l.Fix {
		return errors.New("--dry-run requires --fix flag")
	}

	path := l.Path
	wasAutoDetected := false

	if path == "" {
		var found bool
		path, found = lint.DetectDefaultPath()
		wasAutoDetected = found

		if root.Verbose {
			if found {
				fmt.Fprintf(os.Stderr, "Detected lesson directory: %s\n", path)
			} else {
				fmt.Fprintf(os.Stderr, "No lesson directory detected (checked: lessons/, content/)\n")
				fmt.Fprintf(os.Stderr, "Falling back to current directory: %s\n", path)
			}
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}

	// The config file is optional for lint: without one the rules run
	// with their defaults.
	cfg := lintConfigFrom(tryLoadConfig(root))
	cfg.Quiet = l.Quiet
	cfg.Format = l.Format
	cfg.Fix = l.Fix
	cfg.DryRun = l.DryRun
	cfg.Yes = l.Yes

	linter := lint.NewLinter(cfg)

	if l.Fix {
		return runFixer(linter, path, l.DryRun, l.Yes)
	}

	result, err := linter.LintPath(path)
	if err != nil {
		return fmt.Errorf("linting failed: %w", err)
	}

	formatter := lint.NewFormatter(l.Format, isColorSupported())
	if err := formatter.Format(os.Stdout, result, path, wasAutoDetected); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if result.HasErrors() {
		os.Exit(2) // Errors found (blocks build)
	} else if result.HasWarnings() && !l.Quiet {
		os.Exit(1) // Warnings present
	}

	return nil
}

// runFixer executes the fixer and displays results.
func runFixer(linter *lint.Linter, path string, dryRun, autoConfirm bool) error {
	fixer := lint.NewFixer(linter, dryRun, false).WithAutoConfirm(autoConfirm)
	fixResult, err := fixer.Fix(path)
	if err != nil {
		return fmt.Errorf("fixing failed: %w", err)
	}

	if fixResult.Cancelled {
		fmt.Println("Fix cancelled")
		return nil
	}

	if dryRun {
		fmt.Println("DRY RUN: No changes will be applied")
		fmt.Println()
	}

	if len(fixResult.FilesRenamed) > 0 {
		fmt.Println("Files renamed:")
		for _, op := range fixResult.FilesRenamed {
			if op.Success {
				fmt.Printf("  %s → %s\n", op.OldPath, op.NewPath)
			} else if op.Error != nil {
				fmt.Printf("  %s → %s (ERROR: %v)\n", op.OldPath, op.NewPath, op.Error)
			}
		}
		fmt.Println()
	}

	fmt.Println(fixResult.Summary())

	if fixResult.HasErrors() {
		os.Exit(2)
	}

	if !dryRun {
		switch {
		case fixResult.ErrorsFixed > 0 && fixResult.WarningsFixed > 0:
			fmt.Printf("\nFixed %d errors and %d warnings\n", fixResult.ErrorsFixed, fixResult.WarningsFixed)
		case fixResult.ErrorsFixed > 0:
			fmt.Printf("\nFixed %d errors\n", fixResult.ErrorsFixed)
		case fixResult.WarningsFixed > 0:
			fmt.Printf("\nFixed %d warnings\n", fixResult.WarningsFixed)
		}
	}
	return nil
}

package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// InstallHookCmd implements the 'install-hook' command.
type InstallHookCmd struct {
	Force bool `help:"Overwrite existing hook without backup"`
}

// Run executes the install-hook command.
//
//nolint:forbidigo // fmt is used for user-facing messages
func (cmd *InstallHookCmd) Run(_ *Global, _ *CLI) error {
	gitDir, err := findGitDir()
	if err != nil {
		return fmt.Errorf("not in a Git repository: %w", err)
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	hookPath := filepath.Join(hooksDir, "pre-commit")

	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	// Backup existing hook unless --force
	if _, err := os.Stat(hookPath); err == nil && !cmd.Force {
		backupPath := fmt.Sprintf("%s.backup-%s", hookPath, time.Now().Format("20060102-150405"))
		fmt.Printf("📦 Backing up existing hook to: %s\n", backupPath)

		content, err := os.ReadFile(hookPath)
		if err != nil {
			return fmt.Errorf("failed to read existing hook: %w", err)
		}

		if err := os.WriteFile(backupPath, content, 0o755); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	hookContent := `#!/usr/bin/env bash
# Coursebuilder pre-commit hook - Lint staged lesson files
set -e

# Determine how to run coursebuilder
COURSEBUILDER_CMD=""
if command -v coursebuilder &> /dev/null; then
    COURSEBUILDER_CMD="coursebuilder"
elif [ -f "go.mod" ] && grep -q "coursebuilder" go.mod; then
    # In development mode - use go run
    COURSEBUILDER_CMD="go run ./cmd/coursebuilder"
else
    echo "⚠️  coursebuilder not found in PATH"
    echo "   Install: go install git.home.luguber.info/inful/coursebuilder/cmd/coursebuilder@latest"
    echo "   Skipping lesson linting..."
    exit 0
fi

# Get list of staged lesson files
STAGED_LESSONS=$(git diff --cached --name-only --diff-filter=ACM | grep -E '\.(md|markdown)$' || true)

if [ -z "$STAGED_LESSONS" ]; then
    # No lesson files staged, skip linting
    exit 0
fi

echo "🔍 Linting staged lesson files..."

# Create temporary directory for staged files
TEMP_DIR=$(mktemp -d)
trap "rm -rf ${TEMP_DIR}" EXIT

# Copy staged files to temporary directory preserving structure
for file in $STAGED_LESSONS; do
    mkdir -p "${TEMP_DIR}/$(dirname "$file")"
    git show ":$file" > "${TEMP_DIR}/${file}"
done

# Run linter on temporary directory
if $COURSEBUILDER_CMD lint "${TEMP_DIR}" --quiet; then
    echo "✅ Lesson linting passed"
    exit 0
else
    EXIT_CODE=$?
    echo ""
    echo "❌ Lesson linting failed"
    echo ""
    echo "To fix automatically:"
    echo "  $COURSEBUILDER_CMD lint --fix"
    echo ""
    echo "To bypass this check (not recommended):"
    echo "  git commit --no-verify"
    echo ""
    exit $EXIT_CODE
fi
`

	if err := os.WriteFile(hookPath, []byte(hookContent), 0o755); err != nil {
		return fmt.Errorf("failed to write hook file: %w", err)
	}

	fmt.Println("✅ Pre-commit hook installed successfully")
	fmt.Println()
	fmt.Println("The hook will:")
	fmt.Println("  • Run automatically on 'git commit'")
	fmt.Println("  • Lint only staged lesson files")
	fmt.Println("  • Prevent commits with linting errors")
	fmt.Println()
	fmt.Println("To uninstall:")
	fmt.Printf("  rm %s\n", hookPath)
	fmt.Println()
	fmt.Println("To bypass the hook (not recommended):")
	fmt.Println("  git commit --no-verify")

	return nil
}

// findGitDir locates the .git directory.
func findGitDir() (string, error) {
	if info, err := os.Stat(".git"); err == nil && info.IsDir() {
		return ".git", nil
	}

	// .git can be a file pointing elsewhere (worktree/submodule)
	if info, err := os.Stat(".git"); err == nil && !info.IsDir() {
		content, err := os.ReadFile(".git")
		if err != nil {
			return "", err
		}

		line := string(content)
		if strings.HasPrefix(line, "gitdir: ") {
			return strings.TrimSpace(line[len("gitdir: "):]), nil
		}
	}

	// Try git command as fallback
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	output, err := cmd.Output()
	if err != nil {
		return "", errors.New("not in a git repository")
	}

	return strings.TrimSpace(string(output)), nil
}

package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// applyRenames fixes filename convention issues by renaming the offending
// files. Returns the old→new path mapping so later fix steps can follow the
// files to their new locations.
func (f *Fixer) applyRenames(targets map[string]struct{}, tally tallyMap, fixResult *FixResult) map[string]string {
	renames := make(map[string]string)
	if len(targets) == 0 {
		return renames
	}

	for _, oldPath := range sortedKeys(targets) {
		op := f.renameFile(oldPath)
		fixResult.FilesRenamed = append(fixResult.FilesRenamed, op)

		if op.Success {
			fixResult.credit(tally[oldPath])
			renames[oldPath] = op.NewPath
			continue
		}
		if op.Error != nil {
			fixResult.Errors = append(fixResult.Errors, op.Error)
		}
	}

	return renames
}

// renameFile renames a file to fix filename issues.
func (f *Fixer) renameFile(oldPath string) RenameOperation {
	op := RenameOperation{
		OldPath: oldPath,
		Success: false,
	}

	// Get the suggested filename using the same logic as the linter
	filename := filepath.Base(oldPath)
	suggestedName := SuggestFilename(filename)

	if suggestedName == "" || suggestedName == filename {
		op.Error = fmt.Errorf("could not determine suggested filename or file is already correct: %s", oldPath)
		return op
	}

	dir := filepath.Dir(oldPath)
	newPath := filepath.Join(dir, suggestedName)
	op.NewPath = newPath

	// Check if target already exists
	if _, err := os.Stat(newPath); err == nil && !f.force {
		op.Error = fmt.Errorf("target file already exists: %s", newPath)
		return op
	}

	// Dry-run mode: just report what would happen
	if f.dryRun {
		op.Success = true
		return op
	}

	if f.shouldUseGitMv(oldPath) {
		// Move through the Git index to preserve history
		if err := f.gitMv(oldPath, newPath); err != nil {
			op.Error = fmt.Errorf("git mv failed: %w", err)
			return op
		}
	} else {
		if err := os.Rename(oldPath, newPath); err != nil {
			op.Error = fmt.Errorf("rename failed: %w", err)
			return op
		}
	}

	op.Success = true
	return op
}

// shouldUseGitMv checks if a file is under Git version control and tracked.
func (f *Fixer) shouldUseGitMv(filePath string) bool {
	if f.gitRepo == nil {
		return false
	}

	// Only tracked files can be moved through the index.
	idx, err := f.gitRepo.Storer.Index()
	if err != nil {
		return false
	}

	relPath, err := f.repoRelativePath(filePath)
	if err != nil {
		return false
	}

	_, err = idx.Entry(relPath)
	return err == nil
}

// gitMv performs a rename through the Git worktree so history follows the file.
func (f *Fixer) gitMv(oldPath, newPath string) error {
	w, err := f.gitRepo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get git worktree: %w", err)
	}

	relOld, err := f.repoRelativePath(oldPath)
	if err != nil {
		return err
	}
	relNew, err := f.repoRelativePath(newPath)
	if err != nil {
		return err
	}

	if _, err := w.Move(relOld, relNew); err != nil {
		return fmt.Errorf("failed to move file in git: %w", err)
	}
	return nil
}

// repoRelativePath converts a path into the slash-separated, repo-root
// relative form Git index entries use. Assumes the repo was opened at or
// above the current working directory.
func (f *Fixer) repoRelativePath(path string) (string, error) {
	w, err := f.gitRepo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get git worktree: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	relPath, err := filepath.Rel(w.Filesystem.Root(), absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("path %s is outside the git repository", path)
	}

	return filepath.ToSlash(relPath), nil
}

// writeFixedFile writes updated content back, preserving the original mode.
func writeFixedFile(filePath string, content []byte) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat file for fix: %w", err)
	}
	if err := os.WriteFile(filePath, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write fixed file: %w", err)
	}
	return nil
}

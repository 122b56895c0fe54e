package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixerRefreshesFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.md")
	// No fingerprint field at all.
	writeRawLesson(t, path, "\n# Lesson\n\nText.\n", map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	linter := NewLinter(nil)
	fixResult, err := NewFixer(linter, false, false).WithAutoConfirm(true).Fix(dir)
	require.NoError(t, err)
	require.False(t, fixResult.HasErrors())
	assert.Contains(t, fixResult.FingerprintsFixed, path)

	after, err := linter.LintPath(dir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(after, "frontmatter-fingerprint"))
}

func TestFixerAddsMissingUID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.md")
	writeRawLesson(t, path, "\n# Lesson\n\nText.\n", map[string]any{
		"title": "Lesson",
	})

	linter := NewLinter(nil)
	fixResult, err := NewFixer(linter, false, false).WithAutoConfirm(true).Fix(dir)
	require.NoError(t, err)
	assert.Contains(t, fixResult.UIDsAdded, path)

	after, err := linter.LintPath(dir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(after, "frontmatter"))
	assert.Empty(t, issuesForRule(after, "frontmatter-fingerprint"))
}

func TestFixerRenamesFile(t *testing.T) {
	dir := t.TempDir()
	writeRawLesson(t, filepath.Join(dir, "Getting Started.md"), "\n# Getting Started\n\nText.\n", map[string]any{
		"title": "Getting Started",
		"uid":   testUID,
	})

	fixResult, err := NewFixer(NewLinter(nil), false, false).WithAutoConfirm(true).Fix(dir)
	require.NoError(t, err)

	require.Len(t, fixResult.FilesRenamed, 1)
	op := fixResult.FilesRenamed[0]
	assert.True(t, op.Success)
	assert.Equal(t, filepath.Join(dir, "getting-started.md"), op.NewPath)

	_, err = os.Stat(op.NewPath)
	require.NoError(t, err)
	_, err = os.Stat(op.OldPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFixerAddsQuizIDAndPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.md")
	body := "\n# Lesson\n\nText.\n\n" +
		"- Stem?\n" +
		"- one\n" +
		"- two\n" +
		"{: .choose_best answer=\"1\" }\n"
	writeLintedLesson(t, path, body, map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	linter := NewLinter(nil)
	fixResult, err := NewFixer(linter, false, false).WithAutoConfirm(true).Fix(dir)
	require.NoError(t, err)
	require.Len(t, fixResult.QuizIDsAdded, 1)
	assert.Equal(t, path, fixResult.QuizIDsAdded[0].FilePath)
	require.Len(t, fixResult.PointsAdded, 1)

	after, err := linter.LintPath(dir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(after, "quiz-ids"))
	assert.Empty(t, issuesForRule(after, "quiz-points"))
}

func TestFixerDryRunLeavesFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.md")
	writeRawLesson(t, path, "\n# Lesson\n\nText.\n", map[string]any{
		"title": "Lesson",
	})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	fixResult, err := NewFixer(NewLinter(nil), true, false).Fix(dir)
	require.NoError(t, err)
	assert.True(t, fixResult.HasChanges())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFixerNothingToDo(t *testing.T) {
	dir := t.TempDir()
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), cleanBody(), map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	fixResult, err := NewFixer(NewLinter(nil), false, false).WithAutoConfirm(true).Fix(dir)
	require.NoError(t, err)
	assert.False(t, fixResult.HasChanges())
}

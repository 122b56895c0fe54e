package lint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
)

const testUID = "2f0c4b9e-9a51-4f0e-8f53-1f8f4c9f1a11"

// writeLintedLesson writes a lesson with a freshly computed fingerprint so
// fingerprint checks see it as current.
func writeLintedLesson(t *testing.T, path, body string, fields map[string]any) {
	t.Helper()

	_, _, err := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, []byte(body), time.Now())
	require.NoError(t, err)

	writeRawLesson(t, path, body, fields)
}

// writeRawLesson writes a lesson file without touching the fingerprint.
func writeRawLesson(t *testing.T, path, body string, fields map[string]any) {
	t.Helper()

	style := frontmatter.Style{Newline: "\n"}
	fm, err := frontmatter.SerializeYAML(fields, style)
	require.NoError(t, err)

	content := frontmatter.Join(fm, []byte(body), true, style)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func cleanBody() string {
	return "\n# Getting Started\n\nText.\n\n" +
		"- Which command resumes execution?\n" +
		"- `step`\n" +
		"    - Not quite.\n" +
		"- `continue`\n" +
		"    - Correct!\n" +
		"{: .choose_best #continue_cmd title=\"Continue\" points=\"2\" answer=\"2\" }\n"
}

func issuesForRule(result *Result, rule string) []Issue {
	var out []Issue
	for _, issue := range result.Issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func TestLintPathCleanLesson(t *testing.T) {
	dir := t.TempDir()
	writeLintedLesson(t, filepath.Join(dir, "getting-started.md"), cleanBody(), map[string]any{
		"title": "Getting Started",
		"uid":   testUID,
	})

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesTotal)
	assert.Empty(t, result.Issues)
}

func TestLintPathMissingUID(t *testing.T) {
	dir := t.TempDir()
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), "\n# Lesson\n\nText.\n", map[string]any{
		"title": "Lesson",
	})

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)

	issues := issuesForRule(result, "frontmatter")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, "Missing uid in frontmatter", issues[0].Message)
}

func TestLintPathStaleFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.md")
	writeLintedLesson(t, path, "\n# Lesson\n\nOriginal text.\n", map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	// Edit the body without refreshing the fingerprint.
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	fm, _, _, style, err := frontmatter.Split(content)
	require.NoError(t, err)
	edited := frontmatter.Join(fm, []byte("\n# Lesson\n\nEdited text.\n"), true, style)
	require.NoError(t, os.WriteFile(path, edited, 0o644))

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)
	require.NotEmpty(t, issuesForRule(result, "frontmatter-fingerprint"))
	assert.True(t, result.HasErrors())
}

func TestLintPathUppercaseFilename(t *testing.T) {
	dir := t.TempDir()
	writeLintedLesson(t, filepath.Join(dir, "Getting-Started.md"), "\n# Getting Started\n\nText.\n", map[string]any{
		"title": "Getting Started",
		"uid":   testUID,
	})

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)

	issues := issuesForRule(result, "filename")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "uppercase")
	assert.Contains(t, issues[0].Fix, "getting-started.md")
}

func TestLintPathOrphanAnnotation(t *testing.T) {
	dir := t.TempDir()
	body := "\n# Lesson\n\nText.\n\n{: .choose_best #orphan answer=\"1\" }\n"
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), body, map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)

	issues := issuesForRule(result, "quiz-structure")
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "Orphaned")
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestLintPathAnswerOutOfRange(t *testing.T) {
	dir := t.TempDir()
	body := "\n# Lesson\n\nText.\n\n" +
		"- Stem?\n" +
		"- one\n" +
		"- two\n" +
		"{: .choose_best #oor title=\"T\" points=\"1\" answer=\"5\" }\n"
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), body, map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)
	require.NotEmpty(t, issuesForRule(result, "quiz-answers"))
}

func TestLintPathSeverityOverrides(t *testing.T) {
	dir := t.TempDir()
	// No H1 heading: the headings rule warns by default.
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), "\nJust text, no heading.\n", map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})

	base, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)
	require.NotEmpty(t, issuesForRule(base, "headings"))

	off, err := NewLinter(&Config{Severity: map[string]string{"headings": "off"}}).LintPath(dir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(off, "headings"))

	escalated, err := NewLinter(&Config{Severity: map[string]string{"headings": "error"}}).LintPath(dir)
	require.NoError(t, err)
	issues := issuesForRule(escalated, "headings")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestLintPathSkipsIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	writeLintedLesson(t, filepath.Join(dir, "lesson.md"), "\n# Lesson\n\nText.\n", map[string]any{
		"title": "Lesson",
		"uid":   testUID,
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Repo readme\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a lesson"), 0o644))

	result, err := NewLinter(nil).LintPath(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesTotal)
}

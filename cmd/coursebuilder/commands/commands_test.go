package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
)

// writeLesson writes a lesson file with a valid fingerprint so it passes
// linting without fixes.
func writeLesson(t *testing.T, path, body string, fields map[string]any) {
	t.Helper()

	_, _, err := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, []byte(body), time.Now())
	require.NoError(t, err)

	style := frontmatter.Style{Newline: "\n"}
	fm, err := frontmatter.SerializeYAML(fields, style)
	require.NoError(t, err)

	content := frontmatter.Join(fm, []byte(body), true, style)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func quizLessonBody() string {
	return "\n# Getting Started\n\nThe debugger stops where you tell it to.\n\n" +
		"- Which command resumes execution until the next breakpoint?\n" +
		"- `step`\n" +
		"    - Not quite. `step` moves one line at a time.\n" +
		"- `continue`\n" +
		"    - Correct! `continue` resumes until the next breakpoint.\n" +
		"{: .choose_best #continue_cmd title=\"Continue command\" points=\"2\" answer=\"2\" }\n"
}

// writeProject lays out a minimal local-content course: one lesson plus a
// config file pointing at it. Returns the config path.
func writeProject(t *testing.T, root string) string {
	t.Helper()

	contentDir := filepath.Join(root, "content")
	writeLesson(t, filepath.Join(contentDir, "getting-started.md"), quizLessonBody(), map[string]any{
		"title":    "Getting Started",
		"uid":      "2f0c4b9e-9a51-4f0e-8f53-1f8f4c9f1a11",
		"position": 1,
	})

	cfgPath := filepath.Join(root, "coursebuilder.yaml")
	cfgYAML := "version: \"1\"\n" +
		"course:\n" +
		"  name: Test Course\n" +
		"  content_dir: " + contentDir + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	return cfgPath
}

func TestInitWritesLoadableConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "coursebuilder.yaml")

	require.NoError(t, RunInit(cfgPath, false))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Course.Name)

	// A second init without --force must refuse to overwrite.
	err = RunInit(cfgPath, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, RunInit(cfgPath, true))
}

func TestExtractWritesPerLessonJSON(t *testing.T) {
	root := t.TempDir()
	contentDir := filepath.Join(root, "content")
	writeLesson(t, filepath.Join(contentDir, "getting-started.md"), quizLessonBody(), map[string]any{
		"title":    "Getting Started",
		"uid":      "2f0c4b9e-9a51-4f0e-8f53-1f8f4c9f1a11",
		"position": 1,
	})

	outDir := filepath.Join(root, "extracted")
	cmd := &ExtractCmd{Path: contentDir, Output: outDir}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: filepath.Join(root, "missing.yaml")}))

	files, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "continue_cmd")
	assert.Contains(t, string(data), "choose_best")
}

func TestBuildWritesBundle(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeProject(t, root)
	bundleDir := filepath.Join(root, "bundle")

	cmd := &BuildCmd{Output: bundleDir}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	data, err := os.ReadFile(filepath.Join(bundleDir, "manifest.json"))
	require.NoError(t, err)

	m, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "Test Course", m.Course)
	assert.Equal(t, 1, m.Totals.Lessons)
	assert.Equal(t, 1, m.Totals.Quizzes)
	assert.Equal(t, 2.0, m.Totals.Points)

	quizFiles, err := filepath.Glob(filepath.Join(bundleDir, "quizzes", "*.json"))
	require.NoError(t, err)
	assert.Len(t, quizFiles, 1)
}

func TestBuildLintOnlySkipsBundle(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeProject(t, root)
	bundleDir := filepath.Join(root, "bundle")

	cmd := &BuildCmd{Output: bundleDir, LintOnly: true}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	_, err := os.Stat(filepath.Join(bundleDir, "manifest.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeProject(t, root)
	bundleDir := filepath.Join(root, "bundle")

	first := &BuildCmd{Output: bundleDir, Incremental: true}
	require.NoError(t, first.Run(&Global{}, &CLI{Config: cfgPath}))

	data, err := os.ReadFile(filepath.Join(bundleDir, "manifest.json"))
	require.NoError(t, err)

	second := &BuildCmd{Output: bundleDir, Incremental: true}
	require.NoError(t, second.Run(&Global{}, &CLI{Config: cfgPath}))

	after, err := os.ReadFile(filepath.Join(bundleDir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, data, after, "unchanged content must not rewrite the manifest")
}

func TestResolveOutputDir(t *testing.T) {
	cfg := &config.Config{}
	cfg.Output.Directory = "./configured"

	assert.Equal(t, "./flag", resolveOutputDir("./flag", cfg))
	assert.Equal(t, "./configured", resolveOutputDir("", cfg))
	assert.Equal(t, "./bundle", resolveOutputDir("", &config.Config{}))
}

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/build"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
)

func quizBody(stem string) string {
	return "\n# Lesson\n\n" + stem + "\n\n" +
		"- " + stem + "\n" +
		"- yes\n" +
		"- no\n" +
		"{: .choose_best #main_quiz title=\"Check\" points=\"3\" answer=\"1\" }\n"
}

func repoWithTwoLessons(t *testing.T) string {
	t.Helper()
	return setupLessonRepo(t, map[string][]byte{
		"lessons/breakpoints.md": lessonContent(t, quizBody("Do breakpoints stop execution?"), map[string]any{
			"title":    "Breakpoints",
			"uid":      "7d9a1c2e-4f6b-4a8d-9c3e-5b7f8a9d0c1e",
			"position": 2,
		}),
		"lessons/stepping.md": lessonContent(t, "\n# Stepping\n\nNo quiz here.\n", map[string]any{
			"title":    "Stepping",
			"uid":      "3b5d7f9a-1c3e-4f6b-8a9d-0c1e2f3a4b5c",
			"position": 1,
		}),
		"README.md": []byte("# Lesson repo\n"),
	})
}

func TestBuildFromGitRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repoPath := repoWithTwoLessons(t)
	cfg := courseConfig(t, repoPath)
	outputDir := filepath.Join(t.TempDir(), "bundle")

	result, err := build.NewService().Run(context.Background(), build.Request{
		Config:       cfg,
		OutputDir:    outputDir,
		RepoCacheDir: t.TempDir(),
	})
	require.NoError(t, err, "build pipeline failed")
	require.Equal(t, build.StatusSuccess, result.Status)

	require.Len(t, result.Repos, 1)
	assert.Equal(t, "lessons", result.Repos[0].Name)
	assert.NotEmpty(t, result.Repos[0].Commit)

	data, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "Integration Course", m.Course)
	assert.Equal(t, 2, m.Totals.Lessons)
	assert.Equal(t, 1, m.Totals.Quizzes)
	assert.Equal(t, 3.0, m.Totals.Points)

	require.Len(t, m.Inputs.Repos, 1)
	assert.Equal(t, result.Repos[0].Commit, m.Inputs.Repos[0].Commit)

	// Course order follows position, not filename.
	require.Len(t, m.Lessons, 2)
	assert.Equal(t, "Stepping", m.Lessons[0].Title)
	assert.Equal(t, "Breakpoints", m.Lessons[1].Title)

	// Only the lesson with quizzes gets an extraction file.
	quizFiles, err := filepath.Glob(filepath.Join(outputDir, "quizzes", "*.json"))
	require.NoError(t, err)
	require.Len(t, quizFiles, 1)
	assert.Contains(t, quizFiles[0], "breakpoints")
}

func TestIncrementalRunsSkipAndRebuild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repoPath := repoWithTwoLessons(t)
	cfg := courseConfig(t, repoPath)
	outputDir := filepath.Join(t.TempDir(), "bundle")
	cacheDir := t.TempDir()

	run := func() *build.Result {
		result, err := build.NewService().Run(context.Background(), build.Request{
			Config:       cfg,
			OutputDir:    outputDir,
			RepoCacheDir: cacheDir,
			Options:      build.Options{SkipIfUnchanged: true},
		})
		require.NoError(t, err)
		return result
	}

	first := run()
	require.Equal(t, build.StatusSuccess, first.Status)
	firstManifest := first.Manifest
	require.NotNil(t, firstManifest)

	second := run()
	assert.Equal(t, build.StatusSkipped, second.Status)
	assert.Equal(t, "no_changes", second.SkipReason)

	commitLessonChange(t, repoPath, "lessons/stepping.md",
		lessonContent(t, "\n# Stepping\n\nRewritten explanation.\n", map[string]any{
			"title":    "Stepping",
			"uid":      "3b5d7f9a-1c3e-4f6b-8a9d-0c1e2f3a4b5c",
			"position": 1,
		}))

	third := run()
	require.Equal(t, build.StatusSuccess, third.Status)
	require.NotNil(t, third.Manifest)
	assert.NotEqual(t, firstManifest.Inputs.ContentHash, third.Manifest.Inputs.ContentHash)
}

func TestBuildFailsOnLintErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repoPath := setupLessonRepo(t, map[string][]byte{
		"lessons/broken.md": lessonContent(t, "\n# Broken\n\nText.\n", map[string]any{
			"title": "Broken",
			// no uid
		}),
	})
	cfg := courseConfig(t, repoPath)
	outputDir := filepath.Join(t.TempDir(), "bundle")

	result, err := build.NewService().Run(context.Background(), build.Request{
		Config:       cfg,
		OutputDir:    outputDir,
		RepoCacheDir: t.TempDir(),
	})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, build.StatusFailed, result.Status)
	assert.Equal(t, "lint", result.Stage)
	require.NotNil(t, result.LintResult)
	assert.True(t, result.LintResult.HasErrors())

	_, statErr := os.Stat(filepath.Join(outputDir, "manifest.json"))
	assert.True(t, os.IsNotExist(statErr), "failed runs must not write a bundle")
}

package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
)

// lessonContent renders a lesson file with a valid content fingerprint so
// the full pipeline passes linting without fixes.
func lessonContent(t *testing.T, body string, fields map[string]any) []byte {
	t.Helper()

	_, _, err := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, []byte(body), time.Now())
	require.NoError(t, err)

	style := frontmatter.Style{Newline: "\n"}
	fm, err := frontmatter.SerializeYAML(fields, style)
	require.NoError(t, err)

	return frontmatter.Join(fm, []byte(body), true, style)
}

// setupLessonRepo creates a temporary git repository holding the given
// lesson files (paths relative to the repo root) and returns its path.
func setupLessonRepo(t *testing.T, files map[string][]byte) string {
	t.Helper()

	tmpDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(tmpDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}

	repo, err := gogit.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	commitAll(t, repo, "initial lessons")
	return tmpDir
}

// commitLessonChange rewrites one file in an existing lesson repo and
// commits the change.
func commitLessonChange(t *testing.T, repoPath, rel string, content []byte) {
	t.Helper()

	path := filepath.Join(repoPath, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))

	repo, err := gogit.PlainOpen(repoPath)
	require.NoError(t, err)
	commitAll(t, repo, "update "+rel)
}

func commitAll(t *testing.T, repo *gogit.Repository, message string) {
	t.Helper()

	w, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, w.AddGlob("."))

	_, err = w.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Course Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

// courseConfig builds a minimal configuration for a single lesson repo.
func courseConfig(t *testing.T, repoPath string) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Version: "1",
		Course: config.CourseConfig{
			Name: "Integration Course",
			Slug: "integration-course",
		},
		Repositories: []config.Repository{
			{
				Name:  "lessons",
				URL:   repoPath,
				Paths: []string{"lessons"},
			},
		},
	}
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

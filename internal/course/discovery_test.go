package course

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

func TestLessonDiscovery(t *testing.T) {
	tempDir := t.TempDir()

	// Create test repository structure
	repoDir := filepath.Join(tempDir, "course-go")
	lessonsDir := filepath.Join(repoDir, "lessons")

	if err := os.MkdirAll(filepath.Join(lessonsDir, "01-basics"), 0755); err != nil {
		t.Fatalf("mkdir 01-basics: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(lessonsDir, "02-debugging"), 0755); err != nil {
		t.Fatalf("mkdir 02-debugging: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(lessonsDir, ".drafts"), 0755); err != nil {
		t.Fatalf("mkdir .drafts: %v", err)
	}

	testFiles := map[string]string{
		"lessons/index.md":                   "# Course Index\n\nWelcome to the course.",
		"lessons/01-basics/variables.md":     "# Variables\n\nLesson content.",
		"lessons/01-basics/functions.md":     "# Functions\n\nLesson content.",
		"lessons/02-debugging/breakpoint.md": "# Breakpoints\n\nLesson content.",
		"lessons/README.md":                  "# Repository README\n\nNot a lesson.",
		"lessons/notes.txt":                  "Not markdown, not a lesson.",
		"lessons/.drafts/wip.md":             "# WIP\n\nHidden directory, skipped.",
	}

	for path, content := range testFiles {
		fullPath := filepath.Join(repoDir, path)
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	repos := []config.Repository{
		{
			Name:  "course-go",
			Paths: []string{"lessons"},
			Tags:  map[string]string{"track": "backend"},
		},
	}

	discovery := NewDiscovery(repos)

	repoPaths := map[string]string{
		"course-go": repoDir,
	}

	files, err := discovery.DiscoverLessons(repoPaths)
	if err != nil {
		t.Fatalf("DiscoverLessons failed: %v", err)
	}

	expected := map[string]bool{
		"index.md":                   true,
		"01-basics/variables.md":     true,
		"01-basics/functions.md":     true,
		"02-debugging/breakpoint.md": true,
	}

	if len(files) != len(expected) {
		t.Errorf("Expected %d files, got %d", len(expected), len(files))
	}

	for _, file := range files {
		rel := filepath.ToSlash(file.RelativePath)
		if !expected[rel] {
			t.Errorf("Unexpected file discovered: %s", rel)
		}
		if file.Repository != "course-go" {
			t.Errorf("Expected repository course-go, got %q", file.Repository)
		}
		if file.Metadata["track"] != "backend" {
			t.Errorf("Expected repository tags as metadata, got %v", file.Metadata)
		}
	}

	// Sections come from the directory structure
	for _, file := range files {
		if file.Name == "breakpoint" && file.Section != "02-debugging" {
			t.Errorf("Expected section 02-debugging for breakpoint.md, got %q", file.Section)
		}
		if file.Name == "index" && file.Section != "" {
			t.Errorf("Expected empty section for root index.md, got %q", file.Section)
		}
	}

	byRepo := discovery.GetLessonFilesByRepository()
	if len(byRepo["course-go"]) != len(expected) {
		t.Errorf("Expected %d files for course-go, got %d", len(expected), len(byRepo["course-go"]))
	}
}

func TestLessonDiscoveryCourseIgnore(t *testing.T) {
	tempDir := t.TempDir()

	repoDir := filepath.Join(tempDir, "archived-course")
	lessonsDir := filepath.Join(repoDir, "lessons")
	if err := os.MkdirAll(lessonsDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(lessonsDir, "intro.md"), []byte("# Intro"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, ".courseignore"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	repos := []config.Repository{{Name: "archived-course", Paths: []string{"lessons"}}}
	discovery := NewDiscovery(repos)

	files, err := discovery.DiscoverLessons(map[string]string{"archived-course": repoDir})
	if err != nil {
		t.Fatalf("DiscoverLessons failed: %v", err)
	}

	if len(files) != 0 {
		t.Errorf("Expected no files from ignored repository, got %d", len(files))
	}
}

func TestLessonDiscoveryMissingContentPath(t *testing.T) {
	tempDir := t.TempDir()

	repoDir := filepath.Join(tempDir, "course-empty")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatal(err)
	}

	repos := []config.Repository{{Name: "course-empty", Paths: []string{"lessons"}}}
	discovery := NewDiscovery(repos)

	// A missing content path is a warning, not an error
	files, err := discovery.DiscoverLessons(map[string]string{"course-empty": repoDir})
	if err != nil {
		t.Fatalf("DiscoverLessons failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %d", len(files))
	}
}

func TestDiscoverPathLocalContent(t *testing.T) {
	tempDir := t.TempDir()

	contentDir := filepath.Join(tempDir, "content")
	if err := os.MkdirAll(filepath.Join(contentDir, "module-1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "module-1", "lesson.md"), []byte("# Lesson"), 0644); err != nil {
		t.Fatal(err)
	}

	discovery := NewDiscovery(nil)

	files, err := discovery.DiscoverPath(contentDir)
	if err != nil {
		t.Fatalf("DiscoverPath failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}
	if files[0].Repository != "" {
		t.Errorf("Expected empty repository for local content, got %q", files[0].Repository)
	}
	if files[0].Section != "module-1" {
		t.Errorf("Expected section module-1, got %q", files[0].Section)
	}
}

func TestDiscoverPathMissingDirectory(t *testing.T) {
	discovery := NewDiscovery(nil)

	if _, err := discovery.DiscoverPath(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing content directory")
	}
}

func TestMarkdownFileDetection(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"lesson.md", true},
		{"lesson.markdown", true},
		{"lesson.mdown", true},
		{"lesson.mkd", true},
		{"LESSON.MD", true},
		{"lesson.txt", false},
		{"lesson.html", false},
		{"archive.tar.gz", false},
	}

	for _, tt := range tests {
		if got := isMarkdownFile(tt.filename); got != tt.want {
			t.Errorf("isMarkdownFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestIgnoredFileDetection(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"README.md", true},
		{"readme.md", true},
		{"CONTRIBUTING.md", true},
		{"CHANGELOG.md", true},
		{"LICENSE.md", true},
		{"CODE_OF_CONDUCT.md", true},
		{"SECURITY.md", true},
		{"lesson.md", false},
		{"readme-first.md", false},
	}

	for _, tt := range tests {
		if got := isIgnoredFile(tt.filename); got != tt.want {
			t.Errorf("isIgnoredFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestLessonFileSlug(t *testing.T) {
	tests := []struct {
		name string
		file LessonFile
		want string
	}{
		{
			name: "repo section and name keep their hyphens",
			file: LessonFile{Repository: "course-go", Section: "01-basics", Name: "variables"},
			want: "course-go-01-basics-variables",
		},
		{
			name: "index collapses into section",
			file: LessonFile{Repository: "course-go", Section: "01-basics", Name: "index"},
			want: "course-go-01-basics",
		},
		{
			name: "local content without repository",
			file: LessonFile{Section: "module-1", Name: "lesson"},
			want: "module-1-lesson",
		},
		{
			name: "root level file",
			file: LessonFile{Repository: "course-go", Name: "intro"},
			want: "course-go-intro",
		},
		{
			name: "nothing usable",
			file: LessonFile{Name: "---"},
			want: "lesson",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.Slug(); got != tt.want {
				t.Errorf("Slug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadContentLazy(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "lesson.md")
	if err := os.WriteFile(path, []byte("# Hello"), 0644); err != nil {
		t.Fatal(err)
	}

	lf := LessonFile{Path: path}
	if err := lf.LoadContent(); err != nil {
		t.Fatalf("LoadContent failed: %v", err)
	}
	if string(lf.Content) != "# Hello" {
		t.Errorf("Unexpected content: %q", lf.Content)
	}

	// Already-loaded content is not re-read
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := lf.LoadContent(); err != nil {
		t.Errorf("LoadContent on loaded file should not touch disk: %v", err)
	}
}

func TestLoadContentMissingFile(t *testing.T) {
	lf := LessonFile{Path: filepath.Join(t.TempDir(), "gone.md")}
	if err := lf.LoadContent(); err == nil {
		t.Error("Expected error for missing file")
	}
}

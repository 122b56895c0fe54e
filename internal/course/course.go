package course

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cerrors "git.home.luguber.info/inful/coursebuilder/internal/course/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/slug"
)

// LessonFile represents a discovered lesson markdown file
type LessonFile struct {
	Path         string            // Absolute path to the file
	RelativePath string            // Path relative to the content directory
	ContentBase  string            // The configured content base path for this repo (e.g., "lessons" or ".")
	Repository   string            // Repository name (empty for a local content directory)
	Section      string            // Lesson section/directory
	Name         string            // File name without extension
	Extension    string            // File extension
	Content      []byte            // File content (loaded on demand)
	Metadata     map[string]string // Additional metadata from config
}

// LoadContent loads the content of a lesson file
func (lf *LessonFile) LoadContent() error {
	if lf.Content != nil {
		return nil // Already loaded
	}

	content, err := os.ReadFile(lf.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cerrors.ErrFileReadFailed, lf.Path, err)
	}

	lf.Content = content
	return nil
}

// Slug returns the bundle identifier slug for this lesson, derived from
// repository, section, and file name. Collisions across lessons are resolved
// by the caller via slug.Unique.
func (lf *LessonFile) Slug() string {
	parts := make([]string, 0, 3)
	if lf.Repository != "" {
		parts = append(parts, lf.Repository)
	}
	if lf.Section != "" {
		parts = append(parts, filepath.ToSlash(lf.Section))
	}

	// index.md names a section page; the section already identifies it.
	name := lf.Name
	if strings.EqualFold(name, "index") && len(parts) > 0 {
		name = ""
	}
	if name != "" {
		parts = append(parts, name)
	}

	s := slug.MakeName(strings.Join(parts, " "))
	if s == "" {
		s = "lesson"
	}
	return s
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}

// isIgnoredFile checks if a file should be ignored
func isIgnoredFile(filename string) bool {
	ignored := []string{
		"README.md",          // Usually repository readme, not a lesson
		"CONTRIBUTING.md",    // Contributing guidelines
		"CHANGELOG.md",       // Changelog
		"LICENSE.md",         // License file
		"CODE_OF_CONDUCT.md", // Conduct policy
		"SECURITY.md",        // Security policy
	}

	for _, ignore := range ignored {
		if strings.EqualFold(filename, ignore) {
			return true
		}
	}

	return false
}

// copyMetadata creates a copy of metadata map
func copyMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}

	copyMap := make(map[string]string)
	for k, v := range metadata {
		copyMap[k] = v
	}

	return copyMap
}

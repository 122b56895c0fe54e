package course

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	cerrors "git.home.luguber.info/inful/coursebuilder/internal/course/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// Discovery handles lesson file discovery
type Discovery struct {
	repositories map[string]config.Repository
	lessonFiles  []LessonFile
}

// NewDiscovery creates a new lesson discovery instance
func NewDiscovery(repositories []config.Repository) *Discovery {
	repoMap := make(map[string]config.Repository)
	for _, repo := range repositories {
		repoMap[repo.Name] = repo
	}

	return &Discovery{
		repositories: repoMap,
		lessonFiles:  make([]LessonFile, 0),
	}
}

// DiscoverLessons finds all lesson files in the specified repositories.
// repoPaths maps repository name to its checkout directory on disk.
func (d *Discovery) DiscoverLessons(repoPaths map[string]string) ([]LessonFile, error) {
	d.lessonFiles = make([]LessonFile, 0)

	for repoName, repoPath := range repoPaths {
		repo, exists := d.repositories[repoName]
		if !exists {
			slog.Warn("Repository configuration not found", logfields.Name(repoName))
			continue
		}

		// Check for .courseignore file in repository root
		if hasIgnore, err := d.checkCourseIgnore(repoPath); err != nil {
			slog.Warn("Failed to check .courseignore", logfields.Repository(repoName), logfields.Error(err))
		} else if hasIgnore {
			slog.Info("Skipping repository due to .courseignore file", logfields.Repository(repoName))
			continue
		}

		slog.Info("Discovering lessons", logfields.Repository(repoName), slog.Any("paths", repo.Paths))

		for _, contentPath := range repo.Paths {
			fullContentPath := filepath.Join(repoPath, contentPath)

			if _, err := os.Stat(fullContentPath); os.IsNotExist(err) {
				slog.Warn("Content path not found",
					logfields.Repository(repoName),
					logfields.Path(contentPath),
					slog.String("full_path", fullContentPath))
				continue
			}

			files, err := d.walkContentDirectory(fullContentPath, repoName, contentPath, repo.Tags)
			if err != nil {
				return nil, fmt.Errorf("%w: %s in %s: %w", cerrors.ErrContentDirWalkFailed, contentPath, repoName, err)
			}

			d.lessonFiles = append(d.lessonFiles, files...)
		}
	}

	slog.Info("Total lesson files discovered", slog.Int("count", len(d.lessonFiles)))
	return d.lessonFiles, nil
}

// DiscoverPath finds lesson files under a local content directory that is not
// backed by a configured repository (the course.content_dir mode).
func (d *Discovery) DiscoverPath(contentDir string) ([]LessonFile, error) {
	if _, err := os.Stat(contentDir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrContentPathNotFound, contentDir, err)
	}

	files, err := d.walkContentDirectory(contentDir, "", contentDir, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrContentDirWalkFailed, contentDir, err)
	}

	d.lessonFiles = append(d.lessonFiles, files...)
	slog.Info("Lessons discovered", logfields.Path(contentDir), slog.Int("files", len(files)))
	return files, nil
}

// walkContentDirectory recursively walks a content directory
func (d *Discovery) walkContentDirectory(contentPath, repoName, relativePath string, metadata map[string]string) ([]LessonFile, error) {
	var files []LessonFile

	err := filepath.Walk(contentPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden directories (.git, .obsidian, ...)
		if info.IsDir() {
			if path != contentPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		// Only markdown files become lessons
		if !isMarkdownFile(path) {
			return nil
		}

		// Skip hidden files
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		// Calculate relative path from content directory
		relPath, err := filepath.Rel(contentPath, path)
		if err != nil {
			return fmt.Errorf("%w: %w", cerrors.ErrInvalidRelativePath, err)
		}

		// Determine section from directory structure
		section := filepath.Dir(relPath)
		if section == "." {
			section = "" // Root level
		}

		// Repository housekeeping files at the root level are not lessons
		if section == "" && isIgnoredFile(info.Name()) {
			return nil
		}

		lessonFile := LessonFile{
			Path:         path,
			RelativePath: relPath,
			ContentBase:  relativePath,
			Repository:   repoName,
			Section:      section,
			Name:         strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())),
			Extension:    filepath.Ext(info.Name()),
			Metadata:     copyMetadata(metadata),
		}

		files = append(files, lessonFile)

		slog.Debug("Discovered lesson file",
			logfields.File(relPath),
			logfields.Repository(repoName),
			logfields.Section(section))

		return nil
	})

	return files, err
}

// GetLessonFiles returns all discovered lesson files
func (d *Discovery) GetLessonFiles() []LessonFile {
	return d.lessonFiles
}

// GetLessonFilesByRepository returns lesson files grouped by repository
func (d *Discovery) GetLessonFilesByRepository() map[string][]LessonFile {
	result := make(map[string][]LessonFile)
	for _, file := range d.lessonFiles {
		result[file.Repository] = append(result[file.Repository], file)
	}
	return result
}

// checkCourseIgnore checks if a repository has a .courseignore file in its root
func (d *Discovery) checkCourseIgnore(repoPath string) (bool, error) {
	ignorePath := filepath.Join(repoPath, ".courseignore")

	_, err := os.Stat(ignorePath)
	if err == nil {
		slog.Debug("Found .courseignore file", logfields.Path(ignorePath))
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %w", cerrors.ErrCourseIgnoreCheckFailed, err)
}

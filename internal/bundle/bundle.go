// Package bundle writes the course build output: manifest.json plus one
// normalized quiz export per lesson, staged and swapped into place so API
// consumers never observe a half-written bundle.
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// LessonQuizzes pairs a lesson slug with its export records.
type LessonQuizzes struct {
	Slug    string
	Records []quiz.Record
}

// Result describes a written bundle.
type Result struct {
	Path      string
	FileCount int
	Duration  time.Duration
}

// Writer stages and promotes bundle directories.
type Writer struct {
	outputDir string
	clean     bool
	stageDir  string // ephemeral staging dir for the current write
}

// NewWriter creates a bundle writer for the configured output directory.
func NewWriter(cfg config.OutputConfig) *Writer {
	return &Writer{outputDir: cfg.Directory, clean: cfg.CleanEnabled()}
}

// OutputDir returns the final bundle location.
func (w *Writer) OutputDir() string { return w.outputDir }

// Write stages the manifest and quiz exports, then promotes the staging
// directory. On error the staging directory is removed and the previous
// bundle is left untouched.
func (w *Writer) Write(m *manifest.CourseManifest, lessons []LessonQuizzes) (*Result, error) {
	start := time.Now()

	if err := w.beginStaging(); err != nil {
		return nil, fmt.Errorf("begin staging: %w", err)
	}

	fileCount, err := w.writeStaged(m, lessons)
	if err != nil {
		w.abortStaging()
		return nil, err
	}

	if err := w.finalizeStaging(); err != nil {
		w.abortStaging()
		return nil, fmt.Errorf("finalize staging: %w", err)
	}

	res := &Result{Path: w.outputDir, FileCount: fileCount, Duration: time.Since(start)}
	slog.Info("Bundle written",
		logfields.Path(w.outputDir),
		slog.Int("files", res.FileCount),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func (w *Writer) writeStaged(m *manifest.CourseManifest, lessons []LessonQuizzes) (int, error) {
	data, err := m.ToJSON()
	if err != nil {
		return 0, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.stageDir, "manifest.json"), data, 0o644); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	fileCount := 1

	quizDir := filepath.Join(w.stageDir, "quizzes")
	if err := os.MkdirAll(quizDir, 0o755); err != nil {
		return fileCount, fmt.Errorf("create quizzes dir: %w", err)
	}
	for _, lq := range lessons {
		if len(lq.Records) == 0 {
			continue
		}
		payload, err := quiz.MarshalRecords(lq.Records)
		if err != nil {
			return fileCount, fmt.Errorf("marshal quizzes for %s: %w", lq.Slug, err)
		}
		target := filepath.Join(quizDir, lq.Slug+".json")
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fileCount, fmt.Errorf("create quiz subdir for %s: %w", lq.Slug, err)
		}
		if err := os.WriteFile(target, payload, 0o644); err != nil {
			return fileCount, fmt.Errorf("write quizzes for %s: %w", lq.Slug, err)
		}
		fileCount++
	}
	return fileCount, nil
}

// beginStaging creates a sibling staging directory for atomic output,
// for example "bundle_stage" next to "bundle".
func (w *Writer) beginStaging() error {
	stage := w.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return err
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return err
	}
	w.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", w.outputDir)
	return nil
}

// finalizeStaging promotes the staging directory:
//  1. Move the existing bundle (if any) to <output>.prev.
//  2. Rename staging -> output.
//  3. Remove the backup best-effort.
//
// With output.clean disabled, files from the previous bundle that staging
// did not produce are carried over before the swap.
func (w *Writer) finalizeStaging() error {
	if w.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(w.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	if !w.clean {
		if err := w.carryOverPrevious(); err != nil {
			return err
		}
	}

	prev := w.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(w.outputDir); err == nil {
		if err := os.Rename(w.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(w.stageDir, w.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	w.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", "output", w.outputDir)
	return nil
}

// carryOverPrevious copies files from the current bundle into staging when
// they do not collide with freshly staged output.
func (w *Writer) carryOverPrevious() error {
	if _, err := os.Stat(w.outputDir); err != nil {
		return nil
	}
	return filepath.Walk(w.outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.outputDir, path)
		if err != nil || rel == "." {
			return nil
		}
		target := filepath.Join(w.stageDir, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, err := os.Stat(target); err == nil {
			return nil // staged output wins
		}
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}

// abortStaging removes the staging directory after a failed write.
func (w *Writer) abortStaging() {
	if w.stageDir == "" {
		return
	}
	if err := os.RemoveAll(w.stageDir); err != nil {
		slog.Warn("Failed to remove staging directory", logfields.Path(w.stageDir), logfields.Error(err))
	}
	w.stageDir = ""
}

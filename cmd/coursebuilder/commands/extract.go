package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/coursebuilder/internal/course"
	"git.home.luguber.info/inful/coursebuilder/internal/lint"
	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// ExtractCmd implements the 'extract' command: parse quizzes out of lesson
// markdown and emit the normalized JSON records.
type ExtractCmd struct {
	Path   string `help:"Lesson file or directory to extract from. Defaults to intelligent detection." arg:"" optional:""`
	Output string `short:"o" help:"Write per-lesson JSON files into this directory instead of stdout"`
}

func (e *ExtractCmd) Run(_ *Global, root *CLI) error {
	path := e.Path
	if path == "" {
		cfg := tryLoadConfig(root)
		if cfg != nil && cfg.Course.ContentDir != "" {
			path = cfg.Course.ContentDir
		} else {
			path, _ = lint.DetectDefaultPath()
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}

	var files []course.LessonFile
	if info.IsDir() {
		files, err = course.NewDiscovery(nil).DiscoverPath(path)
		if err != nil {
			return fmt.Errorf("discover lessons: %w", err)
		}
	} else {
		files = []course.LessonFile{{
			Path:         path,
			RelativePath: filepath.Base(path),
			Name:         trimExt(filepath.Base(path)),
			Extension:    filepath.Ext(path),
		}}
	}

	lessons, err := course.LoadLessons(files)
	if err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}
	course.OrderLessons(lessons)

	if e.Output != "" {
		return e.writePerLesson(lessons)
	}
	return e.writeCombined(lessons)
}

// writePerLesson writes quizzes/<slug>.json style output for each lesson
// that has quizzes.
func (e *ExtractCmd) writePerLesson(lessons []course.Lesson) error {
	if err := os.MkdirAll(e.Output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	written := 0
	for i := range lessons {
		doc, err := quiz.ParseLesson(lessons[i].Doc)
		if err != nil {
			return fmt.Errorf("parse %s: %w", lessons[i].File.Path, err)
		}
		records := quiz.Records(doc)
		if len(records) == 0 {
			continue
		}

		data, err := quiz.MarshalRecords(records)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", lessons[i].File.Path, err)
		}

		target := filepath.Join(e.Output, lessons[i].File.Slug()+".json")
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		written++
	}

	fmt.Printf("Extracted quizzes from %d of %d lessons into %s\n", written, len(lessons), e.Output)
	return nil
}

// lessonExtraction is the stdout shape: one entry per lesson with quizzes.
type lessonExtraction struct {
	Lesson  string        `json:"lesson"`
	Path    string        `json:"path"`
	Quizzes []quiz.Record `json:"quizzes"`
}

func (e *ExtractCmd) writeCombined(lessons []course.Lesson) error {
	out := make([]lessonExtraction, 0, len(lessons))
	for i := range lessons {
		doc, err := quiz.ParseLesson(lessons[i].Doc)
		if err != nil {
			return fmt.Errorf("parse %s: %w", lessons[i].File.Path, err)
		}
		records := quiz.Records(doc)
		if len(records) == 0 {
			continue
		}
		out = append(out, lessonExtraction{
			Lesson:  lessons[i].File.Slug(),
			Path:    lessons[i].File.Path,
			Quizzes: records,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

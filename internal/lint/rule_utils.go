package lint

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// loadLesson reads and parses a lesson file for rules that inspect the body.
//
// The second return is false when the file cannot be parsed as a lesson
// (broken frontmatter delimiters); the frontmatter rule owns reporting that,
// so body-level rules skip the file instead of duplicating the issue.
func loadLesson(filePath string) (*lessonmodel.ParsedLesson, bool, error) {
	// #nosec G304 -- filePath comes from controlled lesson discovery/lint walk.
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}

	lesson, err := lessonmodel.Parse(content, lessonmodel.Options{})
	if err != nil {
		return nil, false, nil //nolint:nilerr // reported by the frontmatter rule
	}

	return lesson, true, nil
}

// loadQuizDocument parses a lesson file and scans its body for quiz blocks.
// All quiz rules go through this so they agree on line numbering (file lines,
// not body lines).
func loadQuizDocument(filePath string) (*quiz.Document, bool, error) {
	lesson, ok, err := loadLesson(filePath)
	if err != nil || !ok {
		return nil, ok, err
	}

	doc, err := quiz.ParseLesson(lesson)
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan quiz annotations: %w", err)
	}

	return doc, true, nil
}

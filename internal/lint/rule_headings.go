package lint

import (
	"fmt"

	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// HeadingsRule checks that a lesson body has exactly one top-level heading.
// The course renderer uses the H1 as the page heading; duplicates produce a
// confusing outline and none at all leaves the page untitled.
type HeadingsRule struct{}

const headingsRuleName = "headings"

// Name returns the name of the rule.
func (r *HeadingsRule) Name() string {
	return headingsRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *HeadingsRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates the heading structure of the file.
func (r *HeadingsRule) Check(filePath string) ([]Issue, error) {
	lesson, ok, err := loadLesson(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	headings, err := markdown.ExtractHeadings(lesson.Body(), markdown.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to extract headings: %w", err)
	}

	offset := lesson.LineOffset()

	var h1 []markdown.Heading
	for _, h := range headings {
		if h.Level == 1 {
			h1 = append(h1, h)
		}
	}

	switch {
	case len(h1) == 0:
		return []Issue{{
			FilePath:    filePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     "Lesson has no top-level heading",
			Explanation: "The H1 becomes the page heading; without one the frontmatter title is all the learner sees",
			Fix:         "Add a single `# Heading` at the top of the lesson body",
			Line:        0,
		}}, nil
	case len(h1) > 1:
		issues := make([]Issue, 0, len(h1)-1)
		for _, h := range h1[1:] {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Extra top-level heading %q (first H1 on line %d)", h.Text, offset+h1[0].Line),
				Explanation: "A lesson renders as one page with one H1; further top-level headings break the outline",
				Fix:         "Demote the extra heading to `##` or split the lesson",
				Line:        offset + h.Line,
			})
		}
		return issues, nil
	}

	return nil, nil
}

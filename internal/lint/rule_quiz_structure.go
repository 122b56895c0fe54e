package lint

import (
	"fmt"

	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// QuizStructureRule validates the shape of quiz blocks: the annotation line
// itself, the list it attaches to, and the stem/choice layout each quiz
// class requires.
type QuizStructureRule struct{}

const quizStructureRuleName = "quiz-structure"

// Name returns the name of the rule.
func (r *QuizStructureRule) Name() string {
	return quizStructureRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *QuizStructureRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates quiz block structure in the file.
func (r *QuizStructureRule) Check(filePath string) ([]Issue, error) {
	doc, ok, err := loadQuizDocument(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var issues []Issue

	for _, f := range doc.Findings {
		switch f.Code {
		case quiz.FindingMalformedIAL:
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Malformed quiz annotation: %s", f.Message),
				Explanation: "Annotation lines use kramdown block attribute syntax: {: .choose_best #id title=\"...\" points=\"1\" answer=\"2\" }",
				Fix:         "Correct the annotation line syntax",
				Line:        f.FileLine,
			})
		case quiz.FindingOrphanIAL:
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Orphaned quiz annotation: %s", f.Message),
				Explanation: "A quiz annotation attaches to the markdown list directly above it; without one there is no stem and no choices to export",
				Fix:         "Move the annotation directly below its quiz list, with no blank line in between",
				Line:        f.FileLine,
			})
		}
	}

	for i := range doc.Quizzes {
		issues = append(issues, r.checkQuiz(filePath, &doc.Quizzes[i])...)
	}

	return issues, nil
}

// checkQuiz validates the list shape of one quiz. Orphaned annotations are
// skipped; the finding above covers them.
func (r *QuizStructureRule) checkQuiz(filePath string, q *quiz.Quiz) []Issue {
	if q.ListStartLine == 0 {
		return nil
	}

	var issues []Issue

	if q.Stem == "" {
		issues = append(issues, r.issue(filePath, q,
			SeverityWarning,
			"Quiz has an empty question stem",
			"The first list item is the question stem shown to the learner",
			"Write the question text into the first list item",
		))
	}

	switch q.Class {
	case quiz.ClassFreeText:
		if len(q.Choices) > 0 {
			issues = append(issues, r.issue(filePath, q,
				SeverityWarning,
				fmt.Sprintf("free_text quiz has %d choices", len(q.Choices)),
				"Free-text quizzes take a typed response; extra list items are dropped from the export",
				"Remove the extra list items, or switch the class to choose_best/choose_all",
			))
		}
	case quiz.ClassChooseBest, quiz.ClassChooseAll:
		if len(q.Choices) < 2 {
			issues = append(issues, r.issue(filePath, q,
				SeverityWarning,
				fmt.Sprintf("Quiz has %d choice(s), expected at least two", len(q.Choices)),
				"Choice quizzes need the stem as the first list item and at least two choices below it",
				"Add list items for the remaining choices",
			))
		}
		issues = append(issues, r.checkFeedback(filePath, q)...)
	}

	return issues
}

// checkFeedback reports choices without per-choice feedback sub-items.
// Feedback is optional, so this stays informational.
func (r *QuizStructureRule) checkFeedback(filePath string, q *quiz.Quiz) []Issue {
	missing := 0
	for _, c := range q.Choices {
		if c.Feedback == "" {
			missing++
		}
	}
	if missing == 0 || len(q.Choices) == 0 {
		return nil
	}

	return []Issue{r.issue(filePath, q,
		SeverityInfo,
		fmt.Sprintf("%d of %d choices have no feedback", missing, len(q.Choices)),
		"Nested sub-items under a choice become the feedback the learner sees after answering",
		"Add an indented sub-item with feedback text under each choice",
	)}
}

func (r *QuizStructureRule) issue(filePath string, q *quiz.Quiz, severity Severity, message, explanation, fix string) Issue {
	if q.ID != "" {
		message = fmt.Sprintf("%s (quiz %q)", message, q.ID)
	}
	return Issue{
		FilePath:    filePath,
		Severity:    severity,
		Rule:        quizStructureRuleName,
		Message:     message,
		Explanation: explanation,
		Fix:         fix,
		Line:        q.FileLine,
	}
}

package lint

import (
	"fmt"

	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// QuizAnswersRule validates the answer attribute of quiz annotations: the
// syntax, the index range against the actual choices, and the answer shape
// each quiz class requires.
type QuizAnswersRule struct{}

const quizAnswersRuleName = "quiz-answers"

// Name returns the name of the rule.
func (r *QuizAnswersRule) Name() string {
	return quizAnswersRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *QuizAnswersRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates quiz answers in the file.
func (r *QuizAnswersRule) Check(filePath string) ([]Issue, error) {
	doc, ok, err := loadQuizDocument(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var issues []Issue

	for _, f := range doc.Findings {
		if f.Code != quiz.FindingBadAnswer {
			continue
		}
		issues = append(issues, Issue{
			FilePath:    filePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Unparseable answer attribute: %s", f.Message),
			Explanation: "The answer attribute must be a comma-separated list of 1-based choice numbers, e.g. answer=\"2\" or answer=\"1,3\"",
			Fix:         "Correct the answer attribute in the annotation line",
			Line:        f.FileLine,
		})
	}

	for i := range doc.Quizzes {
		issues = append(issues, r.checkQuiz(filePath, &doc.Quizzes[i])...)
	}

	return issues, nil
}

// checkQuiz validates one quiz block. Quizzes whose answer attribute failed
// to parse are skipped here (the finding above covers them), as are orphaned
// annotations without a choice list (the structure rule covers those).
func (r *QuizAnswersRule) checkQuiz(filePath string, q *quiz.Quiz) []Issue {
	if q.HasAnswer() && q.Answers == nil {
		return nil
	}
	if q.ListStartLine == 0 {
		return nil
	}

	switch q.Class {
	case quiz.ClassFreeText:
		if q.HasAnswer() {
			return []Issue{r.issue(filePath, q,
				SeverityWarning,
				"free_text quiz carries an answer attribute",
				"Free-text quizzes are graded manually; the answer attribute has no effect and is dropped from the export",
				"Remove the answer attribute from the annotation line",
			)}
		}
		return nil
	case quiz.ClassChooseBest:
		if len(q.Answers) == 0 {
			return []Issue{r.issue(filePath, q,
				SeverityError,
				"choose_best quiz has no answer",
				"A choose_best quiz must mark exactly one correct choice, e.g. answer=\"2\"",
				"Add an answer attribute to the annotation line",
			)}
		}
		if len(q.Answers) > 1 {
			return []Issue{r.issue(filePath, q,
				SeverityError,
				fmt.Sprintf("choose_best quiz has %d answers, expected exactly one", len(q.Answers)),
				"A choose_best quiz marks a single correct choice; use choose_all when several choices are correct",
				"Keep one index in the answer attribute, or switch the class to choose_all",
			)}
		}
	case quiz.ClassChooseAll:
		if len(q.Answers) == 0 {
			return []Issue{r.issue(filePath, q,
				SeverityError,
				"choose_all quiz has no answer",
				"A choose_all quiz must mark at least one correct choice, e.g. answer=\"1,3\"",
				"Add an answer attribute to the annotation line",
			)}
		}
		if dup, found := firstDuplicate(q.Answers); found {
			return []Issue{r.issue(filePath, q,
				SeverityError,
				fmt.Sprintf("choose_all quiz repeats answer index %d", dup),
				"Each correct choice is listed once in the answer attribute",
				"Remove the repeated index from the answer attribute",
			)}
		}
	}

	return r.checkRange(filePath, q)
}

// checkRange verifies every answer index points at an existing choice.
func (r *QuizAnswersRule) checkRange(filePath string, q *quiz.Quiz) []Issue {
	var issues []Issue
	for _, idx := range q.Answers {
		if idx >= 1 && idx <= len(q.Choices) {
			continue
		}
		issues = append(issues, r.issue(filePath, q,
			SeverityError,
			fmt.Sprintf("Answer index %d is out of range (quiz has %d choices)", idx, len(q.Choices)),
			"Answer indices are 1-based positions into the choice list below the stem",
			"Point the answer attribute at an existing choice",
		))
	}
	return issues
}

func (r *QuizAnswersRule) issue(filePath string, q *quiz.Quiz, severity Severity, message, explanation, fix string) Issue {
	if q.ID != "" {
		message = fmt.Sprintf("%s (quiz %q)", message, q.ID)
	}
	return Issue{
		FilePath:    filePath,
		Severity:    severity,
		Rule:        quizAnswersRuleName,
		Message:     message,
		Explanation: explanation,
		Fix:         fix,
		Line:        q.FileLine,
	}
}

// firstDuplicate returns the first repeated value in the slice.
func firstDuplicate(values []int) (int, bool) {
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v, true
		}
		seen[v] = true
	}
	return 0, false
}

package lint

import (
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/coursebuilder/internal/slug"
)

// QuizIDsRule checks that every quiz annotation carries a well-formed id and
// that ids are unique within one lesson. The id names the quiz in the
// extracted JSON, so a missing or duplicated id makes the export ambiguous.
type QuizIDsRule struct{}

const (
	quizIDsRuleName      = "quiz-ids"
	missingQuizIDMessage = "Quiz annotation is missing an id"
)

var quizIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Name returns the name of the rule.
func (r *QuizIDsRule) Name() string {
	return quizIDsRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *QuizIDsRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates quiz ids in the file.
func (r *QuizIDsRule) Check(filePath string) ([]Issue, error) {
	doc, ok, err := loadQuizDocument(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var issues []Issue
	firstSeen := make(map[string]int) // id -> file line of first use

	for i := range doc.Quizzes {
		q := &doc.Quizzes[i]

		if q.ID == "" {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     missingQuizIDMessage,
				Explanation: "Every quiz annotation needs a #id token; the id names the quiz in the extracted JSON and must stay stable across edits",
				Fix:         "Run: coursebuilder lint --fix (derives an id from the quiz title or stem)",
				Line:        q.FileLine,
			})
			continue
		}

		if !quizIDPattern.MatchString(q.ID) {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Quiz id %q contains invalid characters", q.ID),
				Explanation: "Quiz ids may only contain letters, digits, underscores and hyphens",
				Fix:         "Rename the id in the annotation line (e.g. #" + SuggestQuizID(q.ID) + ")",
				Line:        q.FileLine,
			})
			continue
		}

		if first, dup := firstSeen[q.ID]; dup {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Duplicate quiz id %q (first used on line %d)", q.ID, first),
				Explanation: "Quiz ids must be unique within a lesson; duplicates overwrite each other in the extracted JSON",
				Fix:         "Rename one of the duplicated ids",
				Line:        q.FileLine,
			})
			continue
		}
		firstSeen[q.ID] = q.FileLine
	}

	return issues, nil
}

// SuggestQuizID converts arbitrary text into a usable quiz id. Used both for
// suggestions in lint output and by the fixer when deriving ids from titles
// and stems.
func SuggestQuizID(text string) string {
	return slug.MakeShort(text)
}

package lint

import (
	"fmt"
	"strconv"

	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
)

// QuizPointsRule validates the points attribute of quiz annotations. An
// omitted attribute is allowed but reported, because silently-defaulted
// points are the most common cause of wrong course totals.
type QuizPointsRule struct {
	// DefaultPoints is the value the fixer writes for quizzes without a
	// points attribute. Zero means the built-in default.
	DefaultPoints float64
}

const quizPointsRuleName = "quiz-points"

// Name returns the name of the rule.
func (r *QuizPointsRule) Name() string {
	return quizPointsRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *QuizPointsRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// EffectiveDefault returns the points value applied when the attribute is
// absent.
func (r *QuizPointsRule) EffectiveDefault() float64 {
	if r.DefaultPoints > 0 {
		return r.DefaultPoints
	}
	return quiz.DefaultPoints
}

// Check validates quiz points in the file.
func (r *QuizPointsRule) Check(filePath string) ([]Issue, error) {
	doc, ok, err := loadQuizDocument(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var issues []Issue

	for _, f := range doc.Findings {
		if f.Code != quiz.FindingBadPoints {
			continue
		}
		issues = append(issues, Issue{
			FilePath:    filePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Unparseable points attribute: %s", f.Message),
			Explanation: "The points attribute must be a number, e.g. points=\"2\" or points=\"0.5\"",
			Fix:         "Correct the points attribute in the annotation line",
			Line:        f.FileLine,
		})
	}

	defaultPoints := formatPoints(r.EffectiveDefault())

	for i := range doc.Quizzes {
		q := &doc.Quizzes[i]

		if !q.HasPoints() {
			message := "Quiz annotation has no points attribute"
			if q.ID != "" {
				message = fmt.Sprintf("Quiz %q has no points attribute", q.ID)
			}
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     message,
				Explanation: fmt.Sprintf("Quizzes without explicit points are worth %s point(s); make the value explicit so course totals are intentional", defaultPoints),
				Fix:         fmt.Sprintf("Run: coursebuilder lint --fix (writes points=%q into the annotation)", defaultPoints),
				Line:        q.FileLine,
			})
			continue
		}

		// Unparseable values already surfaced as a finding above.
		if q.Points < 0 {
			message := fmt.Sprintf("Negative points value %s", q.RawPoints)
			if q.ID != "" {
				message = fmt.Sprintf("Quiz %q has negative points value %s", q.ID, q.RawPoints)
			}
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     message,
				Explanation: "Points must be zero or positive; negative values break course score totals",
				Fix:         "Set a non-negative points value in the annotation line",
				Line:        q.FileLine,
			})
		}
	}

	return issues, nil
}

// formatPoints renders a points value the way the fixer writes it: trimmed
// of trailing zeros, so 1.0 prints as "1" and 0.5 stays "0.5".
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

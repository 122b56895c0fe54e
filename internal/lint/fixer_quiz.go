package lint

import (
	"bytes"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
	"git.home.luguber.info/inful/coursebuilder/internal/slug"
)

// applyQuizIDFixes derives ids for quiz annotations that lack one. The id is
// slugged from the quiz title when present, falling back to the question
// stem, and de-duplicated against the other ids in the same lesson.
func (f *Fixer) applyQuizIDFixes(tally tallyMap, fixResult *FixResult, fingerprintTargets map[string]struct{}) {
	for _, p := range sortedTallyKeys(tally) {
		if !IsLessonFile(p) {
			continue
		}

		insertions, err := f.insertMissingQuizIDs(p)
		if err != nil {
			fixResult.Errors = append(fixResult.Errors, err)
			continue
		}
		if len(insertions) > 0 {
			fixResult.QuizIDsAdded = append(fixResult.QuizIDsAdded, insertions...)
			fixResult.credit(tally[p])
			// Annotation surgery changes content, so fingerprints must be refreshed.
			fingerprintTargets[p] = struct{}{}
		}
	}
}

// applyQuizPointsFixes writes the default points value into annotations that
// omit the points attribute, making the quiz's worth explicit.
func (f *Fixer) applyQuizPointsFixes(tally tallyMap, fixResult *FixResult, fingerprintTargets map[string]struct{}) {
	for _, p := range sortedTallyKeys(tally) {
		if !IsLessonFile(p) {
			continue
		}

		insertions, err := f.insertMissingQuizPoints(p)
		if err != nil {
			fixResult.Errors = append(fixResult.Errors, err)
			continue
		}
		if len(insertions) > 0 {
			fixResult.PointsAdded = append(fixResult.PointsAdded, insertions...)
			fixResult.credit(tally[p])
			// Annotation surgery changes content, so fingerprints must be refreshed.
			fingerprintTargets[p] = struct{}{}
		}
	}
}

func (f *Fixer) insertMissingQuizIDs(filePath string) ([]QuizIDInsertion, error) {
	lesson, doc, err := parseLessonForFix(filePath)
	if err != nil || doc == nil {
		return nil, err
	}

	taken := make(map[string]bool)
	for i := range doc.Quizzes {
		if id := doc.Quizzes[i].ID; id != "" {
			taken[id] = true
		}
	}

	body := lesson.Body()
	var edits []markdown.Edit
	var insertions []QuizIDInsertion

	for i := range doc.Quizzes {
		q := &doc.Quizzes[i]
		if q.ID != "" {
			continue
		}

		base := q.Title
		if base == "" {
			base = q.Stem
		}
		id := slug.Unique(SuggestQuizID(base), taken)

		start, end, ok := bodyLineSpan(body, q.Line)
		if !ok {
			continue
		}
		line := string(body[start:end])
		updated, inserted := insertIDIntoAnnotation(line, q.Class, id)
		if !inserted {
			continue
		}

		edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte(updated)})
		insertions = append(insertions, QuizIDInsertion{FilePath: filePath, Line: q.FileLine, ID: id})
	}

	if err := f.writeBodyEdits(filePath, lesson, edits, len(insertions)); err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, nil
	}
	return insertions, nil
}

func (f *Fixer) insertMissingQuizPoints(filePath string) ([]PointsInsertion, error) {
	lesson, doc, err := parseLessonForFix(filePath)
	if err != nil || doc == nil {
		return nil, err
	}

	points := formatPoints(f.defaultPointsValue())
	body := lesson.Body()
	var edits []markdown.Edit
	var insertions []PointsInsertion

	for i := range doc.Quizzes {
		q := &doc.Quizzes[i]
		if q.HasPoints() {
			continue
		}

		start, end, ok := bodyLineSpan(body, q.Line)
		if !ok {
			continue
		}
		line := string(body[start:end])
		updated, inserted := insertPointsIntoAnnotation(line, points)
		if !inserted {
			continue
		}

		edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte(updated)})
		insertions = append(insertions, PointsInsertion{FilePath: filePath, Line: q.FileLine, Points: points})
	}

	if err := f.writeBodyEdits(filePath, lesson, edits, len(insertions)); err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, nil
	}
	return insertions, nil
}

// parseLessonForFix loads a lesson and its quiz document. A nil document
// with nil error means the file is not fixable here (broken frontmatter is
// the frontmatter rule's problem, not ours).
func parseLessonForFix(filePath string) (*lessonmodel.ParsedLesson, *quiz.Document, error) {
	lesson, err := lessonmodel.ParseFile(filePath, lessonmodel.Options{})
	if err != nil {
		return nil, nil, nil //nolint:nilerr // unfixable files are skipped, not failed
	}

	doc, err := quiz.ParseLesson(lesson)
	if err != nil {
		return nil, nil, fmt.Errorf("scan quiz annotations in %s: %w", filePath, err)
	}
	return lesson, doc, nil
}

// writeBodyEdits applies annotation edits and writes the lesson back,
// honoring dry-run mode.
func (f *Fixer) writeBodyEdits(filePath string, lesson *lessonmodel.ParsedLesson, edits []markdown.Edit, count int) error {
	if len(edits) == 0 || count == 0 || f.dryRun {
		return nil
	}

	out, err := lesson.ApplyBodyEdits(edits)
	if err != nil {
		return fmt.Errorf("apply annotation edits to %s: %w", filePath, err)
	}
	if err := writeFixedFile(filePath, out); err != nil {
		return fmt.Errorf("annotation update for %s: %w", filePath, err)
	}
	return nil
}

// defaultPointsValue resolves the points value written for quizzes without
// an explicit attribute.
func (f *Fixer) defaultPointsValue() float64 {
	if f.linter != nil && f.linter.cfg != nil && f.linter.cfg.DefaultPoints > 0 {
		return f.linter.cfg.DefaultPoints
	}
	return quiz.DefaultPoints
}

// bodyLineSpan returns the byte range of a 1-based body line, excluding the
// trailing newline.
func bodyLineSpan(body []byte, line int) (int, int, bool) {
	if line < 1 {
		return 0, 0, false
	}

	start := 0
	for n := 1; n < line; n++ {
		idx := bytes.IndexByte(body[start:], '\n')
		if idx < 0 {
			return 0, 0, false
		}
		start += idx + 1
	}

	end := len(body)
	if idx := bytes.IndexByte(body[start:], '\n'); idx >= 0 {
		end = start + idx
	}
	return start, end, true
}

// insertIDIntoAnnotation places `#id` directly after the class token, the
// position the annotation convention uses.
func insertIDIntoAnnotation(line, class, id string) (string, bool) {
	end := classTokenEnd(line, class)
	if end < 0 || id == "" {
		return line, false
	}
	return line[:end] + " #" + id + line[end:], true
}

// insertPointsIntoAnnotation places `points="N"` before the closing brace.
func insertPointsIntoAnnotation(line, points string) (string, bool) {
	idx := strings.LastIndex(line, "}")
	if idx < 0 {
		return line, false
	}
	prefix := strings.TrimRight(line[:idx], " \t")
	return prefix + ` points="` + points + `" ` + line[idx:], true
}

// classTokenEnd locates the end of the `.class` token in an annotation line,
// requiring token boundaries so quoted values containing the class name are
// not matched.
func classTokenEnd(line, class string) int {
	token := "." + class
	from := 0
	for {
		idx := strings.Index(line[from:], token)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(token)

		beforeOK := idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t' || line[idx-1] == ':'
		afterOK := end == len(line) || line[end] == ' ' || line[end] == '\t' || line[end] == '}'
		if beforeOK && afterOK {
			return end
		}
		from = end
	}
}

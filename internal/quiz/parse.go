package quiz

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// Parse scans a lesson body for quiz annotations and assembles quiz blocks.
//
// Problems surface as Findings on the returned Document rather than errors;
// a body with no annotations yields an empty Document.
func Parse(body []byte) *Document {
	lines := strings.Split(string(body), "\n")
	fenced := markdown.FenceLineMask(body)

	doc := &Document{}

	for i, line := range lines {
		if fenced[i] {
			continue
		}
		if leadingIndent(line) >= 4 {
			// Indented code block; annotation text there is literal.
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !isIALLine(trimmed) {
			continue
		}

		attr, err := parseIAL(trimmed)
		if err != nil {
			doc.Findings = append(doc.Findings, Finding{
				Code:    FindingMalformedIAL,
				Message: fmt.Sprintf("malformed annotation: %v", err),
				Line:    i + 1,
			})
			continue
		}

		class := attr.quizClass()
		if class == "" {
			// Non-quiz annotation (presentation classes and the like).
			continue
		}

		q := buildQuiz(doc, attr, class, i+1)
		attachList(doc, &q, lines, fenced, i)
		doc.Quizzes = append(doc.Quizzes, q)
	}

	return doc
}

// ParseLesson parses the body of a ParsedLesson and maps body line numbers to
// file line numbers using the lesson's frontmatter offset.
func ParseLesson(lesson *lessonmodel.ParsedLesson) (*Document, error) {
	doc := Parse(lesson.Body())

	offset := lesson.LineOffset()
	for i := range doc.Quizzes {
		doc.Quizzes[i].FileLine = offset + doc.Quizzes[i].Line
	}
	for i := range doc.Findings {
		doc.Findings[i].FileLine = offset + doc.Findings[i].Line
	}

	return doc, nil
}

// buildQuiz assembles the attribute-level parts of a quiz and records
// attribute syntax findings.
func buildQuiz(doc *Document, attr *ial, class string, line int) Quiz {
	q := Quiz{
		ID:    attr.id,
		Class: class,
		Line:  line,
		Attrs: map[string]string{},
	}

	for key, value := range attr.attrs {
		switch key {
		case "title":
			q.Title = value
		case "points":
			q.RawPoints = value
		case "answer":
			q.RawAnswer = value
		default:
			q.Attrs[key] = value
		}
	}

	if q.RawPoints == "" {
		q.Points = DefaultPoints
	} else {
		points, err := ParsePoints(q.RawPoints)
		if err != nil {
			doc.Findings = append(doc.Findings, Finding{
				Code:    FindingBadPoints,
				Message: err.Error(),
				Line:    line,
				QuizID:  q.ID,
			})
		} else {
			q.Points = points
		}
	}

	if q.RawAnswer != "" {
		answers, err := ParseAnswerSet(q.RawAnswer)
		if err != nil {
			doc.Findings = append(doc.Findings, Finding{
				Code:    FindingBadAnswer,
				Message: err.Error(),
				Line:    line,
				QuizID:  q.ID,
			})
		} else {
			q.Answers = answers
		}
	}

	return q
}

// attachList locates the markdown list directly above the annotation line and
// fills in stem, choices and feedback. An annotation without a list above it
// is recorded as an orphan finding.
func attachList(doc *Document, q *Quiz, lines []string, fenced []bool, ialIdx int) {
	runStart := ialIdx
	for runStart > 0 {
		prev := runStart - 1
		trimmedPrev := strings.TrimSpace(lines[prev])
		if trimmedPrev == "" || fenced[prev] || isIALLine(trimmedPrev) {
			break
		}
		runStart = prev
	}

	if runStart == ialIdx {
		doc.Findings = append(doc.Findings, Finding{
			Code:    FindingOrphanIAL,
			Message: "quiz annotation has no content block above it",
			Line:    ialIdx + 1,
			QuizID:  q.ID,
		})
		return
	}

	items := parseListRun(lines[runStart:ialIdx], runStart)
	if len(items) == 0 {
		doc.Findings = append(doc.Findings, Finding{
			Code:    FindingOrphanIAL,
			Message: "quiz annotation is not attached to a list",
			Line:    ialIdx + 1,
			QuizID:  q.ID,
		})
		return
	}

	q.ListStartLine = items[0].line
	q.Stem = items[0].joinedText()
	for _, item := range items[1:] {
		q.Choices = append(q.Choices, Choice{
			Text:     item.joinedText(),
			Feedback: item.joinedFeedback(),
		})
	}
}

// listItem is one top-level list item with its nested feedback sub-items.
type listItem struct {
	text     []string
	feedback [][]string
	line     int // 1-based body line of the item marker
}

func (it *listItem) joinedText() string {
	return strings.TrimSpace(strings.Join(it.text, " "))
}

func (it *listItem) joinedFeedback() string {
	parts := make([]string, 0, len(it.feedback))
	for _, fb := range it.feedback {
		joined := strings.TrimSpace(strings.Join(fb, " "))
		if joined != "" {
			parts = append(parts, joined)
		}
	}
	return strings.Join(parts, "\n")
}

// parseListRun turns a contiguous block of non-blank lines into top-level
// list items. Markers at column zero start items, indented markers start
// feedback sub-items, anything else continues the preceding text.
func parseListRun(run []string, runStartIdx int) []listItem {
	items := make([]listItem, 0, len(run))

	for offset, raw := range run {
		line := strings.TrimRight(raw, "\r")
		indent := leadingIndent(line)
		content := strings.TrimLeft(line, " \t")

		text, isMarker := splitListMarker(content)
		switch {
		case isMarker && indent == 0:
			items = append(items, listItem{
				text: []string{text},
				line: runStartIdx + offset + 1,
			})
		case isMarker && indent > 0 && len(items) > 0:
			last := &items[len(items)-1]
			last.feedback = append(last.feedback, []string{text})
		case isMarker && indent > 0:
			// Indented marker with no parent item: treat as a top-level item
			// so sloppy indentation still yields a usable stem.
			items = append(items, listItem{
				text: []string{text},
				line: runStartIdx + offset + 1,
			})
		case len(items) > 0:
			last := &items[len(items)-1]
			if len(last.feedback) > 0 {
				fb := &last.feedback[len(last.feedback)-1]
				*fb = append(*fb, strings.TrimSpace(content))
			} else {
				last.text = append(last.text, strings.TrimSpace(content))
			}
		default:
			// Prose before the first marker; not part of the list.
		}
	}

	return items
}

// splitListMarker strips a bullet or ordered list marker and reports whether
// one was present.
func splitListMarker(content string) (string, bool) {
	if len(content) >= 2 {
		switch content[0] {
		case '-', '*', '+':
			if content[1] == ' ' || content[1] == '\t' {
				return strings.TrimSpace(content[2:]), true
			}
		}
	}

	digits := 0
	for digits < len(content) && content[digits] >= '0' && content[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(content) {
		sep := content[digits]
		if (sep == '.' || sep == ')') && (content[digits+1] == ' ' || content[digits+1] == '\t') {
			return strings.TrimSpace(content[digits+2:]), true
		}
	}

	return "", false
}

// leadingIndent counts leading whitespace columns, expanding tabs to four.
func leadingIndent(line string) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 4
		default:
			return indent
		}
	}
	return indent
}

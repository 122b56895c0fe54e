// Package quiz parses the inline quiz annotation micro-syntax used by lesson
// markdown:
//
//	- Which command resumes execution?
//	- `step`
//	    - Not quite. `step` moves one line at a time.
//	- `continue`
//	    - Correct!
//	{: .choose_best #continue_cmd title="Continue" points="2" answer="2" }
//
// A block attribute line (`{: ... }`) attaches to the markdown list directly
// above it. The first top-level item is the question stem, the remaining
// items are the choices (numbered from 1), and nested sub-items hold
// per-choice feedback. Annotation lines inside fenced code blocks are
// literal content and never parsed.
package quiz

// Quiz classes recognized in annotation lines.
const (
	ClassChooseBest = "choose_best"
	ClassChooseAll  = "choose_all"
	ClassFreeText   = "free_text"
)

// QuizClasses lists the annotation classes that mark a list as a quiz.
var QuizClasses = []string{ClassChooseBest, ClassChooseAll, ClassFreeText}

// Quiz is one parsed quiz block.
type Quiz struct {
	ID    string // from the #id token; empty when missing
	Class string // choose_best | choose_all | free_text
	Title string // title attribute; may be empty

	RawPoints string  // raw points attribute; empty when absent
	Points    float64 // parsed value; 1 when absent, 0 when unparseable

	RawAnswer string // raw answer attribute; empty when absent
	Answers   []int  // parsed 1-based choice indices; nil when absent or unparseable

	Stem    string
	Choices []Choice

	Line          int // 1-based body line of the annotation
	FileLine      int // 1-based file line; set when parsing a full lesson
	ListStartLine int // 1-based body line of the attached list; 0 when orphaned

	Attrs map[string]string // unrecognized attributes, preserved
}

// Choice is one answer option of a choose_best/choose_all quiz.
type Choice struct {
	Text     string
	Feedback string // nested sub-item text; may be empty
}

// HasAnswer reports whether the annotation carried an answer attribute.
func (q *Quiz) HasAnswer() bool {
	return q.RawAnswer != ""
}

// HasPoints reports whether the annotation carried a points attribute.
func (q *Quiz) HasPoints() bool {
	return q.RawPoints != ""
}

// Finding codes emitted by the parser. Lint rules translate these into
// issues; the extractor skips quizzes with structural findings.
const (
	FindingMalformedIAL = "malformed-annotation"
	FindingOrphanIAL    = "orphan-annotation"
	FindingBadAnswer    = "bad-answer-syntax"
	FindingBadPoints    = "bad-points-syntax"
)

// Finding is a syntax-level problem discovered while parsing annotations.
type Finding struct {
	Code     string
	Message  string
	Line     int // 1-based body line
	FileLine int // 1-based file line; set when parsing a full lesson
	QuizID   string
}

// Document holds everything quiz parsing discovered in one lesson body.
type Document struct {
	Quizzes  []Quiz
	Findings []Finding
}

// QuizByID returns the first quiz with the given id, or nil.
func (d *Document) QuizByID(id string) *Quiz {
	for i := range d.Quizzes {
		if d.Quizzes[i].ID == id {
			return &d.Quizzes[i]
		}
	}
	return nil
}

// TotalPoints sums the points of all quizzes in the document.
func (d *Document) TotalPoints() float64 {
	var total float64
	for i := range d.Quizzes {
		total += d.Quizzes[i].Points
	}
	return total
}

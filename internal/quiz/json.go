package quiz

import (
	"encoding/json"
)

// Record is the normalized export shape of one quiz block, consumed by the
// learning platform import.
type Record struct {
	ID      string         `json:"id"`
	Class   string         `json:"class"`
	Title   string         `json:"title,omitempty"`
	Points  float64        `json:"points"`
	Stem    string         `json:"stem"`
	Choices []RecordChoice `json:"choices,omitempty"`
	Answers []int          `json:"answers,omitempty"`
	Line    int            `json:"line,omitempty"`
}

// RecordChoice is one exported answer option.
type RecordChoice struct {
	Text     string `json:"text"`
	Feedback string `json:"feedback,omitempty"`
}

// Records converts parsed quizzes into export records. Validation is the
// linter's job; export callers are expected to have linted first.
func Records(doc *Document) []Record {
	records := make([]Record, 0, len(doc.Quizzes))
	for i := range doc.Quizzes {
		q := &doc.Quizzes[i]

		rec := Record{
			ID:     q.ID,
			Class:  q.Class,
			Title:  q.Title,
			Points: q.Points,
			Stem:   q.Stem,
			Line:   q.FileLine,
		}
		if rec.Line == 0 {
			rec.Line = q.Line
		}

		for _, c := range q.Choices {
			rec.Choices = append(rec.Choices, RecordChoice{Text: c.Text, Feedback: c.Feedback})
		}
		// Free-text quizzes are graded manually; a stray answer attribute
		// is a lint warning and never reaches the export.
		if q.Class != ClassFreeText && len(q.Answers) > 0 {
			rec.Answers = append(rec.Answers, q.Answers...)
		}

		records = append(records, rec)
	}
	return records
}

// MarshalRecords renders export records as indented JSON.
func MarshalRecords(records []Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

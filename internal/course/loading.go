package course

import (
	"fmt"
	"sort"
	"strconv"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
	"git.home.luguber.info/inful/coursebuilder/internal/lessonmodel"
)

// Lesson is a discovered lesson file together with its parsed document and
// the frontmatter fields that drive course ordering.
type Lesson struct {
	File     LessonFile
	Doc      *lessonmodel.ParsedLesson
	Fields   map[string]any
	Title    string   // frontmatter title, may be empty
	UID      string   // frontmatter uid, may be empty
	Position *float64 // frontmatter position, nil when absent
}

// EffectiveTitle returns the frontmatter title, falling back to a title
// derived from the file name.
func (l *Lesson) EffectiveTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return frontmatterops.TitleFromFilename(l.File.Name + l.File.Extension)
}

// sortKey orders lessons without an explicit position.
func (l *Lesson) sortKey() string {
	if l.File.Repository == "" {
		return l.File.RelativePath
	}
	return l.File.Repository + "/" + l.File.RelativePath
}

// LoadLessons loads and parses the content of discovered lesson files.
// A lesson that cannot be read or parsed fails the load; the linter reports
// those problems with more context before a build gets this far.
func LoadLessons(files []LessonFile) ([]Lesson, error) {
	lessons := make([]Lesson, 0, len(files))

	for i := range files {
		lf := &files[i]
		if err := lf.LoadContent(); err != nil {
			return nil, err
		}

		doc, err := lessonmodel.Parse(lf.Content, lessonmodel.Options{})
		if err != nil {
			return nil, fmt.Errorf("parse lesson %s: %w", lf.Path, err)
		}

		fields, err := doc.Fields()
		if err != nil {
			return nil, fmt.Errorf("parse lesson frontmatter %s: %w", lf.Path, err)
		}

		lesson := Lesson{
			File:     *lf,
			Doc:      doc,
			Fields:   fields,
			Position: positionFromFields(fields),
		}
		if title, ok := fields["title"].(string); ok {
			lesson.Title = title
		}
		if uid, ok := fields["uid"].(string); ok {
			lesson.UID = uid
		}

		lessons = append(lessons, lesson)
	}

	return lessons, nil
}

// OrderLessons sorts lessons by frontmatter position, then by repository and
// path. Lessons with an explicit position come before lessons without one.
func OrderLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		pi, pj := lessons[i].Position, lessons[j].Position
		switch {
		case pi != nil && pj != nil:
			if *pi != *pj {
				return *pi < *pj
			}
		case pi != nil:
			return true
		case pj != nil:
			return false
		}
		return lessons[i].sortKey() < lessons[j].sortKey()
	})
}

// positionFromFields extracts a numeric position from frontmatter. YAML
// unmarshals bare numbers as int or float64; quoted values arrive as strings.
func positionFromFields(fields map[string]any) *float64 {
	raw, ok := fields["position"]
	if !ok {
		return nil
	}

	var pos float64
	switch v := raw.(type) {
	case int:
		pos = float64(v)
	case int64:
		pos = float64(v)
	case float64:
		pos = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		pos = parsed
	default:
		return nil
	}

	return &pos
}

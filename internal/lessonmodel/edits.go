package lessonmodel

import (
	"git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// ApplyBodyEdits applies byte-range edits to the lesson body and returns the
// full, re-joined lesson bytes.
//
// Frontmatter bytes are preserved exactly.
func (d *ParsedLesson) ApplyBodyEdits(edits []markdown.Edit) ([]byte, error) {
	updatedBody, err := markdown.ApplyEdits(d.body, edits)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to apply body edits").Build()
	}

	out := frontmatter.Join(d.fmRaw, updatedBody, d.hadFM, d.style)
	return append([]byte(nil), out...), nil
}

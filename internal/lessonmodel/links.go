package lessonmodel

import (
	"git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// LinkRef pairs an extracted link with its resolved body and file line.
type LinkRef struct {
	Link     markdown.Link
	BodyLine int
	FileLine int
}

// Links extracts link-like constructs from the lesson body. The result is
// computed once per ParsedLesson.
func (d *ParsedLesson) Links() ([]markdown.Link, error) {
	d.linksOnce.Do(func() {
		links, err := markdown.ExtractLinks(d.body, markdown.Options{})
		if err != nil {
			d.linksErr = errors.WrapError(err, errors.CategoryContent, "failed to extract markdown links").Build()
			return
		}
		d.links = links
	})

	if d.linksErr != nil {
		return nil, d.linksErr
	}

	out := make([]markdown.Link, len(d.links))
	copy(out, d.links)
	return out, nil
}

// LinkRefs returns the lesson's links together with body/file line positions.
func (d *ParsedLesson) LinkRefs() ([]LinkRef, error) {
	links, err := d.Links()
	if err != nil {
		return nil, err
	}

	refs := make([]LinkRef, 0, len(links))
	searchStartLineByNeedle := make(map[string]int)

	for _, link := range links {
		dest := link.Destination
		needleKey := string(link.Kind) + "\x00" + dest

		bodyLine := d.FindNextLineContaining(dest, searchStartLineByNeedle[needleKey])
		searchStartLineByNeedle[needleKey] = bodyLine + 1

		refs = append(refs, LinkRef{
			Link:     link,
			BodyLine: bodyLine,
			FileLine: d.LineOffset() + bodyLine,
		})
	}

	return refs, nil
}

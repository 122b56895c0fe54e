// Package lessonmodel centralizes parsing of lesson markdown files into a
// frontmatter/body pair with stable style capture, so callers don't
// re-implement boundary handling.
package lessonmodel

import (
	"os"
	"sync"

	"git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// Options controls parsing behavior for ParsedLesson.
type Options struct{}

// ParsedLesson represents a lesson markdown file split into YAML frontmatter
// and body.
type ParsedLesson struct {
	original []byte
	fmRaw    []byte
	body     []byte
	hadFM    bool
	style    frontmatter.Style

	linksOnce sync.Once
	links     []markdown.Link
	linksErr  error
}

// Parse parses raw file content into a ParsedLesson.
func Parse(content []byte, _ Options) (*ParsedLesson, error) {
	fmRaw, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to split frontmatter").Build()
	}

	orig := append([]byte(nil), content...)
	bodyCopy := append([]byte(nil), body...)
	var fmCopy []byte
	if had {
		fmCopy = make([]byte, len(fmRaw))
		copy(fmCopy, fmRaw)
	}

	return &ParsedLesson{
		original: orig,
		fmRaw:    fmCopy,
		body:     bodyCopy,
		hadFM:    had,
		style:    style,
	}, nil
}

// ParseFile reads a lesson from disk and parses it into a ParsedLesson.
func ParseFile(path string, opts Options) (*ParsedLesson, error) {
	// #nosec G304 -- path is provided by internal callers (discovery pipelines).
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read lesson").
			WithContext("path", path).
			Build()
	}

	doc, err := Parse(content, opts)
	if err != nil {
		classified, ok := errors.AsClassified(err)
		if ok {
			return nil, errors.WrapError(classified, classified.Category(), "failed to parse lesson").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to parse lesson").
			WithContext("path", path).
			Build()
	}
	return doc, nil
}

// Original returns a copy of the original bytes.
func (d *ParsedLesson) Original() []byte {
	return append([]byte(nil), d.original...)
}

// HadFrontmatter reports whether the original lesson contained a YAML frontmatter block.
func (d *ParsedLesson) HadFrontmatter() bool {
	return d.hadFM
}

// FrontmatterRaw returns the raw YAML frontmatter bytes (without delimiters).
//
// If the lesson had no frontmatter, FrontmatterRaw returns nil.
func (d *ParsedLesson) FrontmatterRaw() []byte {
	if !d.hadFM {
		return nil
	}
	out := make([]byte, len(d.fmRaw))
	copy(out, d.fmRaw)
	return out
}

// Fields parses the YAML frontmatter into a map. Lessons without frontmatter
// yield an empty map.
func (d *ParsedLesson) Fields() (map[string]any, error) {
	if !d.hadFM {
		return map[string]any{}, nil
	}
	fields, err := frontmatter.ParseYAML(d.fmRaw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to parse frontmatter yaml").Build()
	}
	return fields, nil
}

// Body returns the Markdown body bytes (frontmatter removed).
func (d *ParsedLesson) Body() []byte {
	out := make([]byte, len(d.body))
	copy(out, d.body)
	return out
}

// Style returns the detected formatting style from frontmatter splitting.
func (d *ParsedLesson) Style() frontmatter.Style {
	return d.style
}

// Bytes re-joins frontmatter and body into full lesson bytes. The result
// is always a fresh slice; mutating it cannot reach the parsed document.
func (d *ParsedLesson) Bytes() []byte {
	if !d.hadFM {
		// Join passes the body through untouched in this case, so copy
		// here to keep the internal slice private.
		out := make([]byte, len(d.body))
		copy(out, d.body)
		return out
	}
	return frontmatter.Join(d.fmRaw, d.body, true, d.style)
}

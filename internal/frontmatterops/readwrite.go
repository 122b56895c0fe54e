// Package frontmatterops implements the read-modify-write operations
// the lint fixer applies to lesson frontmatter: stable uids, content
// fingerprints, and base field defaults.
package frontmatterops

import "git.home.luguber.info/inful/coursebuilder/internal/frontmatter"

// Shared frontmatter keys maintained by the fixer.
const (
	uidField     = "uid"
	lastmodField = "lastmod"
)

// Read splits a lesson into parsed frontmatter fields and body. A
// lesson without a frontmatter block yields had=false with an empty
// field map; an unclosed block yields ErrMissingClosingDelimiter.
func Read(content []byte) (fields map[string]any, body []byte, had bool, style frontmatter.Style, err error) {
	raw, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return nil, nil, false, style, err
	}
	fields, err = frontmatter.ParseYAML(raw)
	if err != nil {
		return nil, nil, had, style, err
	}
	return fields, body, had, style, nil
}

// Write is the inverse of Read. With had=false the body passes through
// unchanged, regardless of fields; a lesson that never had frontmatter
// does not grow one on rewrite.
func Write(fields map[string]any, body []byte, had bool, style frontmatter.Style) ([]byte, error) {
	if !had {
		return body, nil
	}
	raw, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return nil, err
	}
	return frontmatter.Join(raw, body, true, style), nil
}

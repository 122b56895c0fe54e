// Package frontmatter splits and reassembles the YAML frontmatter block
// of lesson markdown files without disturbing the body bytes.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a lesson opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Style records the newline shape of a file so rewrites can reproduce
// it byte for byte. It does not try to preserve YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

func detectStyle(content []byte) Style {
	style := Style{
		Newline:            "\n",
		HasTrailingNewline: bytes.HasSuffix(content, []byte("\n")),
	}
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		style.Newline = "\r\n"
	}
	return style
}

// Split separates a `---` delimited YAML frontmatter block from the
// Markdown body. When the content has no frontmatter, had is false and
// body is the full input. The returned frontmatter excludes the
// delimiter lines but keeps its trailing newline.
func Split(content []byte) (frontmatter, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	delim := []byte("---" + style.Newline)

	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, style, nil
	}
	rest := content[len(delim):]

	// An immediately-closed block is valid, empty frontmatter.
	if bytes.HasPrefix(rest, delim) {
		return []byte{}, rest[len(delim):], true, style, nil
	}

	closing := []byte(style.Newline + "---" + style.Newline)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(style.Newline)], rest[idx+len(closing):], true, style, nil
}

// Join is the inverse of Split: it wraps frontmatter back in its
// delimiters and prepends it to body. With had false the body passes
// through untouched.
func Join(frontmatter, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	delim := "---" + nl

	var out bytes.Buffer
	out.Grow(2*len(delim) + len(frontmatter) + len(body))
	out.WriteString(delim)
	out.Write(frontmatter)
	out.WriteString(delim)
	out.Write(body)
	return out.Bytes()
}

// ParseYAML parses raw frontmatter (without delimiters) into a map.
// Empty input yields an empty, non-nil map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(frontmatter) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

package markdown

import (
	"bytes"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// Heading describes one heading in a lesson body.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based body line
}

// ExtractHeadings parses a Markdown body and returns all headings in order.
func ExtractHeadings(body []byte, opts Options) ([]Heading, error) {
	root, err := ParseBody(body, opts)
	if err != nil {
		return nil, err
	}

	headings := make([]Heading, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}

		heading := Heading{Level: h.Level, Line: 1}
		if h.Lines().Len() > 0 {
			seg := h.Lines().At(0)
			heading.Text = strings.TrimSpace(string(body[seg.Start:seg.Stop]))
			heading.Line = lineForOffset(body, seg.Start)
		}
		headings = append(headings, heading)

		return gmast.WalkSkipChildren, nil
	})

	return headings, nil
}

// lineForOffset converts a byte offset into a 1-based line number.
func lineForOffset(body []byte, offset int) int {
	if offset > len(body) {
		offset = len(body)
	}
	return 1 + bytes.Count(body[:offset], []byte("\n"))
}

// Package markdown provides read-only analysis of lesson bodies: links,
// headings and fenced code blocks. It never re-renders Markdown; callers
// that modify content do so through byte-range edits.
package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is parsed for analysis. It is empty for
// now but keeps call sites stable if parsing ever grows settings.
type Options struct{}

// LinkKind distinguishes where in the Markdown a destination was found.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReference           LinkKind = "reference"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a single outgoing destination found in a lesson body.
type Link struct {
	Kind        LinkKind
	Destination string
}

// ParseBody parses a Markdown body (frontmatter already removed) into a
// Goldmark AST.
func ParseBody(body []byte, _ Options) (gmast.Node, error) {
	return goldmark.New().Parser().Parse(text.NewReader(body)), nil
}

// ExtractLinks collects every link-like construct in a body: inline and
// auto links, images, and reference definitions.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	ctx := parser.NewContext()
	root := goldmark.New().Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	var links []Link
	collect := func(kind LinkKind, dest []byte) {
		links = append(links, Link{Kind: kind, Destination: string(dest)})
	}
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			switch node := n.(type) {
			case *gmast.AutoLink:
				collect(LinkKindAuto, node.URL(body))
			case *gmast.Image:
				collect(LinkKindImage, node.Destination)
			case *gmast.Link:
				// Reference-style usages also land here; Goldmark
				// resolves them to a Link node with a Destination.
				collect(LinkKindInline, node.Destination)
			}
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		collect(LinkKindReferenceDefinition, ref.Destination())
	}

	// Goldmark is strictly CommonMark; lesson repositories in the wild
	// contain destinations with spaces that it silently drops. A
	// permissive pass keeps those visible to link checking.
	links = append(links, scanLooseLinks(body)...)

	if links == nil {
		links = []Link{}
	}
	return links, nil
}

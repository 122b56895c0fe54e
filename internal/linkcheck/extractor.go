package linkcheck

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/coursebuilder/internal/course"
	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// Link is a checkable URL extracted from a lesson body.
type Link struct {
	URL        string // destination as written
	Text       string // link text or alt text, when available
	Source     string // "markdown" or the HTML tag it came from
	IsExternal bool   // absolute http(s) URL pointing off-host
}

// ExtractLessonLinks collects links from a lesson: markdown links from the
// parsed body plus anything inside raw HTML fragments (iframes for embedded
// videos, img tags, plain anchors) that the markdown pass does not see.
func ExtractLessonLinks(lesson *course.Lesson) ([]Link, error) {
	mdLinks, err := lesson.Doc.Links()
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(mdLinks))
	for _, ml := range mdLinks {
		if ml.Kind == markdown.LinkKindReferenceDefinition && ml.Destination == "" {
			continue
		}
		links = append(links, Link{
			URL:        ml.Destination,
			Source:     "markdown",
			IsExternal: isExternalURL(ml.Destination),
		})
	}

	htmlLinks, err := extractHTMLLinks(lesson.Doc.Body())
	if err != nil {
		return nil, err
	}
	links = append(links, htmlLinks...)

	return dedupeLinks(links), nil
}

// extractHTMLLinks parses the body as HTML and walks the resulting tree.
// Markdown text parses as HTML text nodes, so only embedded fragments
// contribute element nodes with link attributes.
func extractHTMLLinks(body []byte) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node) (Link, bool) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			return Link{URL: href, Text: nodeText(n), Source: "a", IsExternal: isExternalURL(href)}, true
		}
	case "img":
		if src := getAttr(n, "src"); src != "" {
			return Link{URL: src, Text: getAttr(n, "alt"), Source: "img", IsExternal: isExternalURL(src)}, true
		}
	case "iframe", "video", "audio", "source", "embed":
		if src := getAttr(n, "src"); src != "" {
			return Link{URL: src, Source: n.Data, IsExternal: isExternalURL(src)}, true
		}
	}
	return Link{}, false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return strings.TrimSpace(b.String())
}

func isExternalURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// ShouldVerify reports whether a link is worth an HTTP check.
func ShouldVerify(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(l.URL, scheme) {
			return false
		}
	}
	return l.IsExternal
}

func dedupeLinks(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}

package markdown

import "strings"

// Fence describes one fenced code block found in a lesson body.
//
// Line numbers are 1-based body lines. EndLine is 0 when the fence is never
// closed before the end of the document.
type Fence struct {
	Marker  string // "```" or "~~~"
	Info    string // full info string after the opening marker
	Lang    string // first word of Info, lowercased
	Line    int    // opening fence line
	EndLine int    // closing fence line, 0 when unclosed
	Closed  bool
}

// ExtractFences scans a Markdown body line-by-line and returns all fenced code
// blocks in document order.
//
// The scan deliberately mirrors the fence handling used elsewhere for line
// mapping: a trimmed line starting with the active marker closes the block, a
// different marker inside a block is content.
func ExtractFences(body []byte) []Fence {
	lines := strings.Split(string(body), "\n")

	fences := make([]Fence, 0)
	open := -1 // index into fences of the currently open block

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		marker := ""
		switch {
		case strings.HasPrefix(trimmed, "```"):
			marker = "```"
		case strings.HasPrefix(trimmed, "~~~"):
			marker = "~~~"
		default:
			continue
		}

		if open >= 0 {
			if fences[open].Marker == marker {
				fences[open].EndLine = i + 1
				fences[open].Closed = true
				open = -1
			}
			// A different marker inside an open block is literal content.
			continue
		}

		info := strings.TrimSpace(strings.TrimLeft(trimmed, marker[:1]))
		lang := info
		if idx := strings.IndexAny(lang, " \t"); idx >= 0 {
			lang = lang[:idx]
		}

		fences = append(fences, Fence{
			Marker: marker,
			Info:   info,
			Lang:   strings.ToLower(lang),
			Line:   i + 1,
		})
		open = len(fences) - 1
	}

	return fences
}

// FenceLineMask returns, for each body line, whether that line is part of a
// fenced code block (delimiters included). An unclosed fence extends to the
// end of the document.
func FenceLineMask(body []byte) []bool {
	lines := strings.Split(string(body), "\n")
	mask := make([]bool, len(lines))

	inBlock := false
	activeMarker := ""

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		marker := ""
		switch {
		case strings.HasPrefix(trimmed, "```"):
			marker = "```"
		case strings.HasPrefix(trimmed, "~~~"):
			marker = "~~~"
		}

		if marker != "" {
			if !inBlock {
				inBlock = true
				activeMarker = marker
			} else if activeMarker == marker {
				inBlock = false
				activeMarker = ""
			}
			mask[i] = true
			continue
		}

		mask[i] = inBlock
	}

	return mask
}

package markdown

import "strings"

// scanLooseLinks finds link destinations that contain whitespace.
// CommonMark requires such destinations to be wrapped in angle
// brackets, so Goldmark never reports them, but lesson content uses
// them anyway and link checking should still see them.
func scanLooseLinks(body []byte) []Link {
	out := make([]Link, 0)
	var fence string

	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)

		if marker := fenceMarker(trimmed); marker != "" {
			switch fence {
			case "":
				fence = marker
			case marker:
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		line := dropCodeSpans(line)
		out = append(out, looseInlineLinks(line)...)
		out = append(out, looseReferenceDefinition(line)...)
	}
	return out
}

func fenceMarker(trimmed string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}

// dropCodeSpans removes inline code spans, delimiters included, so
// their contents are never mistaken for links. Unclosed backtick runs
// stay in place.
func dropCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '`' {
			out.WriteByte(s[i])
			i++
			continue
		}
		run := 1
		for i+run < len(s) && s[i+run] == '`' {
			run++
		}
		delim := s[i : i+run]
		rest := s[i+run:]
		closing := strings.Index(rest, delim)
		if closing == -1 {
			out.WriteString(delim)
			i += run
			continue
		}
		i += run + closing + run
	}
	return out.String()
}

// looseInlineLinks scans one line for "](" pairs, covering both inline
// links and images. Only destinations containing whitespace are
// reported; well-formed ones already came out of the Goldmark pass.
func looseInlineLinks(line string) []Link {
	out := make([]Link, 0)
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndexByte(line[:i], '[')
		if open == -1 {
			continue
		}
		end := strings.IndexByte(line[i+2:], ')')
		if end == -1 {
			continue
		}
		dest := line[i+2 : i+2+end]
		if !strings.ContainsAny(dest, " \t") {
			continue
		}
		kind := LinkKindInline
		if open > 0 && line[open-1] == '!' {
			kind = LinkKindImage
		}
		out = append(out, Link{Kind: kind, Destination: dest})
	}
	return out
}

// looseReferenceDefinition handles "[label]: destination" lines.
// Footnote definitions ([^1]: ...) are not reference links.
func looseReferenceDefinition(line string) []Link {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[^") {
		return nil
	}
	_, after, ok := strings.Cut(trimmed, "]:")
	if !ok {
		return nil
	}

	dest := strings.TrimSpace(after)
	for _, quote := range []string{` "`, ` '`} {
		if before, _, ok := strings.Cut(dest, quote); ok {
			dest = before
			break
		}
	}
	dest = strings.TrimSpace(dest)
	if dest == "" || !strings.ContainsAny(dest, " \t") {
		return nil
	}
	return []Link{{Kind: LinkKindReferenceDefinition, Destination: dest}}
}

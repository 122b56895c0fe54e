package quiz

import (
	"fmt"
	"strings"
)

// ial is one tokenized block attribute line.
type ial struct {
	classes []string
	id      string
	attrs   map[string]string // in token order semantics don't matter; keys are unique, last wins
}

// quizClass returns the first quiz class in the annotation, or "".
func (a *ial) quizClass() string {
	for _, c := range a.classes {
		for _, known := range QuizClasses {
			if c == known {
				return c
			}
		}
	}
	return ""
}

// isIALLine reports whether a trimmed line looks like a block attribute line.
// Kramdown processing instructions (`{::options ...}`) are not attribute
// lines and are ignored.
func isIALLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "{:") && !strings.HasPrefix(trimmed, "{::")
}

// parseIAL tokenizes the interior of a `{: ... }` line.
//
// Recognized tokens: `.class`, `#id`, `key="value"`, `key='value'` and
// unquoted `key=value`. Bare words are preserved as attributes with an empty
// value.
func parseIAL(trimmed string) (*ial, error) {
	if !strings.HasSuffix(trimmed, "}") {
		return nil, fmt.Errorf("missing closing brace")
	}

	interior := strings.TrimSpace(trimmed[2 : len(trimmed)-1])
	out := &ial{attrs: map[string]string{}}

	i := 0
	for i < len(interior) {
		if interior[i] == ' ' || interior[i] == '\t' {
			i++
			continue
		}

		switch interior[i] {
		case '.':
			token, next := scanBareToken(interior, i+1)
			if token == "" {
				return nil, fmt.Errorf("empty class token")
			}
			out.classes = append(out.classes, token)
			i = next
		case '#':
			token, next := scanBareToken(interior, i+1)
			if token == "" {
				return nil, fmt.Errorf("empty id token")
			}
			out.id = token
			i = next
		default:
			key, value, next, err := scanAttrToken(interior, i)
			if err != nil {
				return nil, err
			}
			out.attrs[key] = value
			i = next
		}
	}

	return out, nil
}

// scanBareToken reads from start until whitespace and returns the token and
// the index after it.
func scanBareToken(s string, start int) (string, int) {
	end := start
	for end < len(s) && s[end] != ' ' && s[end] != '\t' {
		end++
	}
	return s[start:end], end
}

// scanAttrToken reads a `key=value` or bare-word token starting at i.
func scanAttrToken(s string, i int) (key, value string, next int, err error) {
	end := i
	for end < len(s) && s[end] != ' ' && s[end] != '\t' && s[end] != '=' {
		end++
	}
	key = s[i:end]

	if end >= len(s) || s[end] != '=' {
		// Bare word; preserved with an empty value.
		return key, "", end, nil
	}

	end++ // consume '='
	if end >= len(s) {
		return key, "", end, nil
	}

	if quote := s[end]; quote == '"' || quote == '\'' {
		closing := strings.IndexByte(s[end+1:], quote)
		if closing < 0 {
			return "", "", 0, fmt.Errorf("unterminated %c-quoted value for %q", quote, key)
		}
		value = s[end+1 : end+1+closing]
		return key, value, end + 1 + closing + 1, nil
	}

	value, next = scanBareToken(s, end)
	return key, value, next, nil
}

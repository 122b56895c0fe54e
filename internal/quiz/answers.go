package quiz

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAnswerSet parses an answer attribute value into 1-based choice indices.
//
// Accepted forms: a single index ("3"), a comma-separated set ("1,3"), and
// the bracketed variant ("[1,3]") produced by some authoring tools. Order is
// preserved; duplicates are kept so the linter can flag them.
func ParseAnswerSet(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)

	if s == "" {
		return nil, fmt.Errorf("empty answer value")
	}

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("answer index %q is not a number", part)
		}
		out = append(out, n)
	}

	return out, nil
}

// ParsePoints parses a points attribute value.
func ParsePoints(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty points value")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("points %q is not a number", s)
	}
	return v, nil
}

// DefaultPoints is applied when an annotation omits the points attribute.
const DefaultPoints = 1.0

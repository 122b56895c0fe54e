// Package slug derives identifier slugs from human-readable text: quiz ids
// in the `[a-z0-9_]` shape the grading platform expects, and lesson bundle
// file names in the hyphen-separated shape lesson filenames use.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, drops combining marks, and recomposes.
// "Kökeritz" becomes "Kokeritz" rather than being mangled to underscores.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts free text into a quiz identifier slug: diacritics folded,
// lowercased, runs of non [a-z0-9] collapsed to single underscores.
//
// Make returns "" when no usable characters remain; callers decide the
// fallback.
func Make(s string) string {
	return sanitize(s, '_')
}

// MakeName converts free text into a lesson file-name slug. Like Make but
// hyphen-separated, so bundle files mirror the hyphenated lesson filenames
// they come from (01-getting-started.md -> 01-getting-started.json).
func MakeName(s string) string {
	return sanitize(s, '-')
}

func sanitize(s string, sep byte) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		// Fold failure leaves the original text; the character filter below
		// still produces a well-formed slug.
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))

	lastSep := true // suppress leading separator
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte(sep)
				lastSep = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), string(sep))
}

// MaxLen is the cap applied by MakeShort. Long stems produce unwieldy ids;
// the platform truncates around this length anyway.
const MaxLen = 48

// MakeShort is Make with the result truncated to MaxLen at an underscore
// boundary where possible.
func MakeShort(s string) string {
	slug := Make(s)
	if len(slug) <= MaxLen {
		return slug
	}

	cut := slug[:MaxLen]
	if idx := strings.LastIndexByte(cut, '_'); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

// Unique returns slug unchanged when unused, otherwise the first "<slug>_N"
// (N >= 2) not present in taken. The chosen value is recorded in taken.
func Unique(slug string, taken map[string]bool) string {
	if slug == "" {
		slug = "quiz"
	}

	candidate := slug
	for n := 2; taken[candidate]; n++ {
		candidate = slug + "_" + strconv.Itoa(n)
	}

	taken[candidate] = true
	return candidate
}

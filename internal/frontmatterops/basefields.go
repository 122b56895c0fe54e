package frontmatterops

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EnsureTitle sets title to fallback when missing or empty/whitespace.
func EnsureTitle(fields map[string]any, fallback string) (changed bool) {
	if fields == nil {
		return false
	}

	v, ok := fields["title"]
	if !ok || v == nil {
		fields["title"] = fallback
		return true
	}

	s, ok := v.(string)
	if !ok {
		return false
	}

	if strings.TrimSpace(s) == "" {
		fields["title"] = fallback
		return true
	}

	return false
}

// TitleFromFilename derives a human-readable title from a lesson filename.
//
// "03-adding-routes.md" becomes "Adding Routes": the extension and any
// leading ordering prefix (digits followed by - or _) are stripped,
// separators become spaces, and words are title-cased.
func TitleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i > 0 && i < len(name) && (name[i] == '-' || name[i] == '_') {
		name = name[i+1:]
	}

	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Untitled"
	}

	return cases.Title(language.English).String(name)
}

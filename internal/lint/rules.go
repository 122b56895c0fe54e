package lint

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const filenameRuleName = "filename-conventions"

// Extensions that indicate a backup or temp file when they appear before
// the final extension, as in lesson.md.bak.
var stackableExtensions = []string{
	".md", ".markdown", ".tmp", ".bak", ".backup", ".old", ".yaml", ".yml", ".json", ".toml",
}

// FilenameRule validates that lesson filenames follow bundle conventions:
// lowercase, hyphen-separated, no spaces or special characters.
type FilenameRule struct{}

func (r *FilenameRule) Name() string { return filenameRuleName }

func (r *FilenameRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check runs every filename convention check. A double extension
// short-circuits the rest: the file is a backup, not a badly named lesson.
func (r *FilenameRule) Check(filePath string) ([]Issue, error) {
	filename := filepath.Base(filePath)

	if hasDoubleExtension(filename) {
		return []Issue{r.issue(filePath, "Double extension detected",
			`File has a double extension that the bundle builder will misname.

Common problematic patterns:
  • .md.backup, .markdown.old (backup files)
  • .md.tmp, .md.bak (editor temp files)`,
			"Remove backup files from the content directory or use .gitignore")}, nil
	}

	var issues []Issue
	suggested := SuggestFilename(filename)

	if strings.ContainsFunc(filename, unicode.IsUpper) {
		lowered := strings.ToLower(filename)
		issues = append(issues, r.issue(filePath, "Filename contains uppercase letters",
			`Uppercase letters in filenames cause slug inconsistency and case-sensitivity
issues across different platforms.

Current:  `+filename+`
Suggested: `+lowered+`

Why this matters:
  • Lesson slugs in the bundle are derived from filenames
  • Case sensitivity varies by OS (Linux vs macOS/Windows)
  • Creates inconsistent quiz file names between checkouts`,
			"Rename to lowercase: "+lowered))
	}

	if strings.Contains(filename, " ") {
		issues = append(issues, r.issue(filePath, "Filename contains spaces",
			`Spaces in filenames create problematic URLs with %20 encoding
and break cross-references.

Current:  `+filename+`
Suggested: `+suggested+`

Why this matters:
  • Spaces become %20 in lesson URLs
  • Makes links harder to type and share
  • The bundle layout expects hyphen-separated filenames`,
			"Rename using hyphens: "+suggested))
	}

	if invalid := specialChars(filename); len(invalid) > 0 {
		joined := strings.Join(invalid, ", ")
		issues = append(issues, r.issue(filePath,
			"Filename contains special characters: "+joined,
			`Special characters are unsupported by lesson slug derivation and may cause
shell escaping issues.

Current:  `+filename+`
Suggested: `+suggested+`

Allowed characters: [a-z0-9-_.]
Invalid characters found: `+joined,
			"Rename to remove special characters: "+suggested))
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if trimmed := strings.Trim(stem, "-_"); trimmed != stem {
		issues = append(issues, r.issue(filePath,
			"Filename has leading or trailing hyphens/underscores",
			`Leading or trailing hyphens/underscores create malformed lesson slugs.

Current:  `+filename+`
Suggested: `+suggested,
			"Rename to remove leading/trailing separators: "+suggested))
	}

	return issues, nil
}

func (r *FilenameRule) issue(filePath, message, explanation, fix string) Issue {
	return Issue{
		FilePath:    filePath,
		Severity:    SeverityError,
		Rule:        r.Name(),
		Message:     message,
		Explanation: explanation,
		Fix:         fix,
	}
}

// hasDoubleExtension reports whether the second-to-last dot segment is
// itself a known file extension.
func hasDoubleExtension(filename string) bool {
	parts := strings.Split(filename, ".")
	if len(parts) < 3 {
		return false
	}
	inner := "." + parts[len(parts)-2]
	for _, ext := range stackableExtensions {
		if strings.EqualFold(inner, ext) {
			return true
		}
	}
	return false
}

// allowedFilenameRune matches the convention character set [a-z0-9-_.].
func allowedFilenameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.'
}

// specialChars returns each disallowed character once, in order of first
// appearance.
func specialChars(filename string) []string {
	seen := make(map[rune]bool)
	var chars []string
	for _, r := range filename {
		if allowedFilenameRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		chars = append(chars, string(r))
	}
	return chars
}

// SuggestFilename converts an arbitrary filename into the convention form:
// lowercase, spaces to hyphens, special characters dropped, hyphen runs
// collapsed. Double extensions keep only the final extension.
func SuggestFilename(filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	if i := strings.LastIndexByte(filename, '.'); i > 0 && strings.Count(filename, ".") >= 2 {
		name = filename[:i]
		ext = filename[i:]
	}

	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var b strings.Builder
	prevHyphen := false
	for _, r := range name {
		switch {
		case r == '-':
			if !prevHyphen {
				b.WriteByte('-')
			}
			prevHyphen = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			prevHyphen = false
		}
	}

	return strings.Trim(b.String(), "-_") + strings.ToLower(ext)
}

// DetectDefaultPath locates the course content directory. It prefers
// lessons/, then content/, then falls back to the working directory. The
// bool reports whether a conventional directory was found.
func DetectDefaultPath() (string, bool) {
	for _, candidate := range []string{"lessons", "content"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return ".", false
}

package lint

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/coursebuilder/internal/markdown"
)

// CodeFencesRule validates fenced code blocks: every fence is closed, carries
// a language tag, and the tag is one the course renderer can highlight.
type CodeFencesRule struct {
	// ExtraLanguages extends the recognized language set, for courses that
	// teach niche stacks.
	ExtraLanguages []string
}

const codeFencesRuleName = "code-fences"

// knownFenceLanguages is the base set of language tags course content uses.
// Tags are compared lowercased; aliases are listed alongside their canonical
// form.
var knownFenceLanguages = map[string]bool{
	"bash": true, "sh": true, "shell": true, "console": true, "zsh": true,
	"text": true, "plain": true, "plaintext": true, "output": true,
	"go": true, "golang": true,
	"python": true, "py": true,
	"ruby": true, "rb": true,
	"javascript": true, "js": true,
	"typescript": true, "ts": true,
	"jsx": true, "tsx": true,
	"java": true, "kotlin": true, "groovy": true,
	"c": true, "cpp": true, "c++": true, "csharp": true, "cs": true,
	"rust": true, "swift": true, "scala": true, "php": true, "perl": true,
	"json": true, "yaml": true, "yml": true, "toml": true, "ini": true,
	"xml": true, "html": true, "css": true, "scss": true,
	"sql": true, "graphql": true,
	"diff": true, "patch": true,
	"http": true, "curl": true,
	"dockerfile": true, "docker": true, "makefile": true, "make": true,
	"markdown": true, "md": true,
	"hcl": true, "terraform": true, "proto": true, "protobuf": true,
	"mermaid": true,
}

// Name returns the name of the rule.
func (r *CodeFencesRule) Name() string {
	return codeFencesRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *CodeFencesRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates code fences in the file.
func (r *CodeFencesRule) Check(filePath string) ([]Issue, error) {
	lesson, ok, err := loadLesson(filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	offset := lesson.LineOffset()

	var issues []Issue
	for _, fence := range markdown.ExtractFences(lesson.Body()) {
		line := offset + fence.Line

		if !fence.Closed {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityError,
				Rule:        r.Name(),
				Message:     "Unclosed code fence",
				Explanation: "An unclosed fence swallows the rest of the lesson, including any quiz annotations below it",
				Fix:         fmt.Sprintf("Add a closing %s line", fence.Marker),
				Line:        line,
			})
			// Everything after an unclosed fence is inside it.
			break
		}

		if fence.Lang == "" {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     "Code fence has no language tag",
				Explanation: "Untagged fences render without syntax highlighting; use `text` for deliberately plain blocks",
				Fix:         "Add a language tag after the opening fence, e.g. ```go",
				Line:        line,
			})
			continue
		}

		if !r.recognized(fence.Lang) {
			issues = append(issues, Issue{
				FilePath:    filePath,
				Severity:    SeverityWarning,
				Rule:        r.Name(),
				Message:     fmt.Sprintf("Unrecognized code fence language %q", fence.Lang),
				Explanation: "The course renderer falls back to plain text for unknown languages; check the tag for typos",
				Fix:         "Use a known language tag, or add this one to lint.extra_languages in coursebuilder.yaml",
				Line:        line,
			})
		}
	}

	return issues, nil
}

// recognized reports whether a lowercased language tag is in the base set or
// the configured extras.
func (r *CodeFencesRule) recognized(lang string) bool {
	if knownFenceLanguages[lang] {
		return true
	}
	for _, extra := range r.ExtraLanguages {
		if strings.EqualFold(extra, lang) {
			return true
		}
	}
	return false
}

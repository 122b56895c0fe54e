package lint

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
)

// FrontmatterRule checks that lesson files have parseable YAML frontmatter
// with the base fields the course pipeline relies on.
type FrontmatterRule struct{}

const (
	frontmatterRuleName       = "frontmatter"
	missingFrontmatterMessage = "Missing frontmatter"
	missingTitleMessage       = "Missing 'title' field in frontmatter"
	emptyTitleMessage         = "Empty 'title' field in frontmatter"
	missingUIDMessage         = "Missing uid in frontmatter"
	invalidUIDMessage         = "Invalid uid format in frontmatter"
)

// Name returns the name of the rule.
func (r *FrontmatterRule) Name() string {
	return frontmatterRuleName
}

// AppliesTo checks if the rule applies to the given file path.
func (r *FrontmatterRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

// Check validates that the file has frontmatter with required fields.
func (r *FrontmatterRule) Check(filePath string) ([]Issue, error) {
	var issues []Issue

	// #nosec G304 -- filePath comes from controlled lesson discovery/lint walk.
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fmBytes, _, had, _, splitErr := frontmatter.Split(content)
	if splitErr != nil {
		issues = append(issues, Issue{
			FilePath:    filePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Invalid frontmatter: %v", splitErr),
			Explanation: "Frontmatter must be valid YAML between --- delimiters",
			Fix:         "Fix the frontmatter delimiters",
			Line:        1,
		})
		return issues, nil
	}

	if !had {
		issues = append(issues, Issue{
			FilePath:    filePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     missingFrontmatterMessage,
			Explanation: "Lesson files should have YAML frontmatter with title and uid fields",
			Fix:         "Run: coursebuilder lint --fix (adds frontmatter with title and uid)",
			Line:        1,
		})
		return issues, nil
	}

	fields, parseErr := frontmatter.ParseYAML(fmBytes)
	if parseErr != nil {
		issues = append(issues, Issue{
			FilePath:    filePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     fmt.Sprintf("Invalid frontmatter: %v", parseErr),
			Explanation: "Frontmatter must be valid YAML between --- delimiters",
			Fix:         "Fix YAML syntax errors in frontmatter",
			Line:        1,
		})
		return issues, nil
	}

	issues = append(issues, r.checkTitle(filePath, fields)...)
	issues = append(issues, r.checkUID(filePath, fields)...)

	return issues, nil
}

// checkTitle validates the title field.
func (r *FrontmatterRule) checkTitle(filePath string, fields map[string]any) []Issue {
	titleAny, hasTitle := fields["title"]
	if !hasTitle {
		return []Issue{{
			FilePath:    filePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     missingTitleMessage,
			Explanation: "Lessons should carry an explicit title; the manifest falls back to a title derived from the filename",
			Fix:         "Run: coursebuilder lint --fix (derives a title from the filename)",
			Line:        1,
		}}
	}

	title, ok := titleAny.(string)
	if !ok || strings.TrimSpace(title) == "" {
		return []Issue{{
			FilePath:    filePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     emptyTitleMessage,
			Explanation: "The title is present but blank; the manifest falls back to a title derived from the filename",
			Fix:         "Run: coursebuilder lint --fix (derives a title from the filename)",
			Line:        1,
		}}
	}

	return nil
}

// checkUID validates the uid field.
func (r *FrontmatterRule) checkUID(filePath string, fields map[string]any) []Issue {
	uidAny, hasUID := fields["uid"]
	if !hasUID {
		return []Issue{{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  missingUIDMessage,
			Explanation: strings.TrimSpace(strings.Join([]string{
				"This lesson is expected to carry a stable unique identifier (uid) in its YAML frontmatter.",
				"The uid must be generated once and must never be changed.",
				"It should be a GUID/UUID string.",
			}, "\n")),
			Fix:  "Run: coursebuilder lint --fix (adds missing frontmatter uid fields)",
			Line: 0,
		}}
	}

	uidStr, ok := uidAny.(string)
	if !ok {
		return []Issue{r.invalidUIDIssue(filePath, fmt.Sprintf("uid must be a string, got %T", uidAny))}
	}

	uidStr = strings.TrimSpace(uidStr)
	if uidStr == "" {
		return []Issue{r.invalidUIDIssue(filePath, "uid is empty")}
	}

	if _, err := uuid.Parse(uidStr); err != nil {
		return []Issue{r.invalidUIDIssue(filePath, "uid must be a valid GUID/UUID")} //nolint:nilerr // reported as lint issue, not a hard error
	}

	return nil
}

func (r *FrontmatterRule) invalidUIDIssue(filePath, detail string) Issue {
	return Issue{
		FilePath: filePath,
		Severity: SeverityWarning,
		Rule:     frontmatterRuleName,
		Message:  invalidUIDMessage,
		Explanation: strings.TrimSpace(strings.Join([]string{
			"This lesson has a uid in YAML frontmatter, but it is not a valid GUID/UUID string.",
			"The uid must be stable and must never be changed once correct.",
			"",
			"Details: " + detail,
		}, "\n")),
		Fix:  "Manually update the uid to a valid GUID/UUID (do not change it once set).",
		Line: 0,
	}
}

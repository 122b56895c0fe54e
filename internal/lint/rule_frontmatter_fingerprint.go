package lint

import (
	"fmt"
	"os"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/coursebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/coursebuilder/internal/frontmatterops"
)

// FrontmatterFingerprintRule verifies that lesson files have a valid content fingerprint
// stored in YAML frontmatter.
//
// It uses github.com/inful/mdfp to:
//   - detect missing fingerprints
//   - detect mismatched fingerprints (content changed without updating the fingerprint)
//
// The fixer can regenerate fingerprints for any issues emitted by this rule.
type FrontmatterFingerprintRule struct{}

const frontmatterFingerprintRuleName = "frontmatter-fingerprint"

func (r *FrontmatterFingerprintRule) Name() string {
	return frontmatterFingerprintRuleName
}

func (r *FrontmatterFingerprintRule) AppliesTo(filePath string) bool {
	return IsLessonFile(filePath)
}

func (r *FrontmatterFingerprintRule) Check(filePath string) ([]Issue, error) {
	// #nosec G304 -- filePath comes from controlled lesson discovery/lint walk.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	frontmatterBytes, bodyBytes, hadFrontmatter, _, splitErr := frontmatter.Split(data)
	if splitErr != nil {
		//nolint:nilerr // Split failures are reported as lint issues, not fatal errors.
		return []Issue{r.fingerprintIssue(filePath, splitErr.Error())}, nil
	}

	if !hadFrontmatter {
		return []Issue{r.fingerprintIssue(filePath, "Missing or invalid fingerprint in frontmatter")}, nil
	}

	fields, parseErr := frontmatter.ParseYAML(frontmatterBytes)
	if parseErr != nil {
		return []Issue{r.fingerprintIssue(filePath, fmt.Sprintf("invalid YAML frontmatter: %v", parseErr))}, nil
	}

	currentAny, ok := fields[mdfp.FingerprintField]
	if !ok {
		return []Issue{r.fingerprintIssue(filePath, "Missing or invalid fingerprint in frontmatter")}, nil
	}

	currentFingerprint, ok := currentAny.(string)
	if !ok || strings.TrimSpace(currentFingerprint) == "" {
		return []Issue{r.fingerprintIssue(filePath, "Missing or invalid fingerprint in frontmatter")}, nil
	}

	expected, err := frontmatterops.ComputeFingerprint(fields, bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("compute fingerprint for check: %w", err)
	}
	if expected == currentFingerprint {
		return nil, nil
	}

	return []Issue{r.fingerprintIssue(filePath, "Missing or invalid fingerprint in frontmatter")}, nil
}

func (r *FrontmatterFingerprintRule) fingerprintIssue(filePath, message string) Issue {
	return Issue{
		FilePath: filePath,
		Severity: SeverityError,
		Rule:     frontmatterFingerprintRuleName,
		Message:  message,
		Explanation: strings.TrimSpace(strings.Join([]string{
			"This lesson is expected to carry a content fingerprint in its YAML frontmatter.",
			"The course pipeline uses these fingerprints to detect content changes reliably.",
			"",
			"This check is powered by github.com/inful/mdfp.",
		}, "\n")),
		Fix: "Run: coursebuilder lint --fix (regenerates frontmatter fingerprints)",
	}
}

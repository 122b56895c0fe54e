package lint

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Fixer performs automatic fixes for linting issues.
//
// The fix pipeline runs in a fixed order: file renames first (so content
// fixes land on the final paths), then frontmatter titles and uids, then
// quiz annotation surgery, and fingerprint refresh last. Every content
// change invalidates the file's fingerprint, so the refresh step has to see
// the union of everything the earlier steps touched.
type Fixer struct {
	linter      *Linter
	dryRun      bool
	force       bool
	autoConfirm bool
	gitRepo     *git.Repository // nil when not inside a Git checkout

	confirmIn  io.Reader
	confirmOut io.Writer
}

// NewFixer creates a new fixer with the given linter and options.
func NewFixer(linter *Linter, dryRun, force bool) *Fixer {
	f := &Fixer{
		linter:     linter,
		dryRun:     dryRun,
		force:      force,
		confirmIn:  os.Stdin,
		confirmOut: os.Stdout,
	}

	if repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true}); err == nil {
		f.gitRepo = repo
	}

	return f
}

// WithAutoConfirm returns the fixer with prompting disabled (for --yes / CI).
func (f *Fixer) WithAutoConfirm(v bool) *Fixer {
	f.autoConfirm = v
	return f
}

// Fix lints the given path and attempts to repair every fixable issue.
func (f *Fixer) Fix(path string) (*FixResult, error) {
	result, err := f.linter.LintPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to lint path: %w", err)
	}

	plan := planFixes(result)
	fixResult := newFixResult()

	if !plan.hasWork() {
		return fixResult, nil
	}

	if !f.dryRun && !f.autoConfirm {
		ok, confirmErr := f.confirmChanges(plan)
		if confirmErr != nil {
			return nil, confirmErr
		}
		if !ok {
			fixResult.Cancelled = true
			return fixResult, nil
		}
	}

	// Renames change the path set every later step works against.
	renames := f.applyRenames(plan.renameTargets, plan.renameTally, fixResult)

	fingerprintTargets := make(map[string]struct{})

	f.applyTitleFixes(remapTally(plan.titleTally, renames), fixResult, fingerprintTargets)
	f.applyUIDFixes(remapTally(plan.uidTally, renames), fixResult, fingerprintTargets)
	f.applyQuizIDFixes(remapTally(plan.quizIDTally, renames), fixResult, fingerprintTargets)
	f.applyQuizPointsFixes(remapTally(plan.pointsTally, renames), fixResult, fingerprintTargets)

	// Fingerprint refresh runs last: it has to cover both the stale
	// fingerprints the linter found and every file the steps above rewrote.
	fingerprintTally := remapTally(plan.fingerprintTally, renames)
	for p := range fingerprintTargets {
		if _, tracked := fingerprintTally[p]; !tracked {
			fingerprintTally[p] = issueTally{}
		}
	}
	f.applyFingerprintFixes(fingerprintTally, fixResult)

	return fixResult, nil
}

// issueTally counts the lint issues one fix will resolve, by severity.
type issueTally struct {
	errors   int
	warnings int
}

// tallyMap maps file paths to the issues a fix category resolves there.
type tallyMap map[string]issueTally

func (m tallyMap) add(path string, severity Severity) {
	t := m[path]
	switch severity {
	case SeverityError:
		t.errors++
	case SeverityWarning:
		t.warnings++
	}
	m[path] = t
}

// credit books a successful per-file fix into the result counters.
func (fr *FixResult) credit(t issueTally) {
	fr.ErrorsFixed += t.errors
	fr.WarningsFixed += t.warnings
}

// fixPlan groups the fixable lint issues by fix category and file.
type fixPlan struct {
	renameTargets map[string]struct{}
	renameTally   tallyMap

	titleTally       tallyMap
	uidTally         tallyMap
	quizIDTally      tallyMap
	pointsTally      tallyMap
	fingerprintTally tallyMap
}

func (p *fixPlan) hasWork() bool {
	return len(p.renameTargets) > 0 ||
		len(p.titleTally) > 0 ||
		len(p.uidTally) > 0 ||
		len(p.quizIDTally) > 0 ||
		len(p.pointsTally) > 0 ||
		len(p.fingerprintTally) > 0
}

// planFixes sorts lint issues into the fix categories the fixer knows how to
// repair. Issues without an automatic fix (bad answers, duplicate ids,
// unclosed fences) are left for the author.
func planFixes(result *Result) *fixPlan {
	plan := &fixPlan{
		renameTargets:    make(map[string]struct{}),
		renameTally:      make(tallyMap),
		titleTally:       make(tallyMap),
		uidTally:         make(tallyMap),
		quizIDTally:      make(tallyMap),
		pointsTally:      make(tallyMap),
		fingerprintTally: make(tallyMap),
	}

	for _, issue := range result.Issues {
		switch {
		case issue.Rule == filenameRuleName:
			plan.renameTargets[issue.FilePath] = struct{}{}
			plan.renameTally.add(issue.FilePath, issue.Severity)
		case issue.Rule == frontmatterRuleName && issue.Message == missingFrontmatterMessage:
			// Adding frontmatter writes both a title and a uid.
			plan.titleTally.add(issue.FilePath, issue.Severity)
			plan.uidTally.add(issue.FilePath, SeverityInfo)
		case issue.Rule == frontmatterRuleName && (issue.Message == missingTitleMessage || issue.Message == emptyTitleMessage):
			plan.titleTally.add(issue.FilePath, issue.Severity)
		case issue.Rule == frontmatterRuleName && issue.Message == missingUIDMessage:
			plan.uidTally.add(issue.FilePath, issue.Severity)
		case issue.Rule == quizIDsRuleName && issue.Message == missingQuizIDMessage:
			plan.quizIDTally.add(issue.FilePath, issue.Severity)
		case issue.Rule == quizPointsRuleName && strings.Contains(issue.Message, "no points attribute"):
			plan.pointsTally.add(issue.FilePath, issue.Severity)
		case issue.Rule == frontmatterFingerprintRuleName:
			plan.fingerprintTally.add(issue.FilePath, issue.Severity)
		}
	}

	return plan
}

// remapTally rewrites tally keys through the rename map so content fixes
// target files under their post-rename paths.
func remapTally(m tallyMap, renames map[string]string) tallyMap {
	if len(renames) == 0 {
		return m
	}

	out := make(tallyMap, len(m))
	for path, t := range m {
		if newPath, renamed := renames[path]; renamed {
			path = newPath
		}
		existing := out[path]
		existing.errors += t.errors
		existing.warnings += t.warnings
		out[path] = existing
	}
	return out
}

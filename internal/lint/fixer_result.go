package lint

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// FixResult contains the results of a fix operation.
type FixResult struct {
	FilesRenamed      []RenameOperation
	TitlesAdded       []string // files that received a derived title
	UIDsAdded         []string // files that received a generated uid
	QuizIDsAdded      []QuizIDInsertion
	PointsAdded       []PointsInsertion
	FingerprintsFixed []string // files whose fingerprint (and lastmod) were refreshed

	ErrorsFixed   int
	WarningsFixed int
	Cancelled     bool // user declined the confirmation prompt
	Errors        []error
}

// RenameOperation represents a file rename operation.
type RenameOperation struct {
	OldPath string
	NewPath string
	Success bool
	Error   error
}

// QuizIDInsertion records an id written into a quiz annotation line.
type QuizIDInsertion struct {
	FilePath string
	Line     int // 1-based file line of the annotation
	ID       string
}

// PointsInsertion records a points attribute written into a quiz annotation line.
type PointsInsertion struct {
	FilePath string
	Line     int // 1-based file line of the annotation
	Points   string
}

func newFixResult() *FixResult {
	return &FixResult{
		FilesRenamed: make([]RenameOperation, 0),
		Errors:       make([]error, 0),
	}
}

// HasErrors returns true if any errors occurred during fixing.
func (fr *FixResult) HasErrors() bool {
	return len(fr.Errors) > 0
}

// HasChanges returns true if any fix was applied (or would be, in dry-run).
func (fr *FixResult) HasChanges() bool {
	return len(fr.FilesRenamed) > 0 ||
		len(fr.TitlesAdded) > 0 ||
		len(fr.UIDsAdded) > 0 ||
		len(fr.QuizIDsAdded) > 0 ||
		len(fr.PointsAdded) > 0 ||
		len(fr.FingerprintsFixed) > 0
}

// CountAffectedFiles returns the number of unique files that were modified.
func (fr *FixResult) CountAffectedFiles() int {
	affected := make(map[string]bool)

	for _, rename := range fr.FilesRenamed {
		affected[rename.OldPath] = true
	}
	for _, p := range fr.TitlesAdded {
		affected[p] = true
	}
	for _, p := range fr.UIDsAdded {
		affected[p] = true
	}
	for _, ins := range fr.QuizIDsAdded {
		affected[ins.FilePath] = true
	}
	for _, ins := range fr.PointsAdded {
		affected[ins.FilePath] = true
	}
	for _, p := range fr.FingerprintsFixed {
		affected[p] = true
	}

	return len(affected)
}

// Summary returns a human-readable summary of the fix operation.
func (fr *FixResult) Summary() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Files renamed: %d\n", len(fr.FilesRenamed)))
	b.WriteString(fmt.Sprintf("Titles added: %d\n", len(fr.TitlesAdded)))
	b.WriteString(fmt.Sprintf("UIDs added: %d\n", len(fr.UIDsAdded)))
	b.WriteString(fmt.Sprintf("Quiz ids added: %d\n", len(fr.QuizIDsAdded)))
	b.WriteString(fmt.Sprintf("Points made explicit: %d\n", len(fr.PointsAdded)))
	b.WriteString(fmt.Sprintf("Fingerprints refreshed: %d\n", len(fr.FingerprintsFixed)))
	b.WriteString(fmt.Sprintf("Errors fixed: %d\n", fr.ErrorsFixed))
	b.WriteString(fmt.Sprintf("Warnings fixed: %d\n", fr.WarningsFixed))

	if len(fr.Errors) > 0 {
		b.WriteString(fmt.Sprintf("\nErrors encountered: %d\n", len(fr.Errors)))
		for _, err := range fr.Errors {
			b.WriteString(fmt.Sprintf("  • %v\n", err))
		}
	}

	return b.String()
}

// previewPlan renders what a fix plan will change, shown before the
// confirmation prompt.
func previewPlan(plan *fixPlan) string {
	var b strings.Builder

	b.WriteString("The following changes will be made:\n\n")

	if len(plan.renameTargets) > 0 {
		b.WriteString("FILE RENAMES:\n")
		for _, path := range sortedKeys(plan.renameTargets) {
			oldName := filepath.Base(path)
			b.WriteString(fmt.Sprintf("  %s → %s\n", oldName, SuggestFilename(oldName)))
		}
		b.WriteString("\n")
	}

	sections := []struct {
		title string
		tally tallyMap
	}{
		{"TITLES TO DERIVE:", plan.titleTally},
		{"UIDS TO GENERATE:", plan.uidTally},
		{"QUIZ IDS TO DERIVE:", plan.quizIDTally},
		{"POINTS TO MAKE EXPLICIT:", plan.pointsTally},
		{"FINGERPRINTS TO REFRESH:", plan.fingerprintTally},
	}

	for _, section := range sections {
		if len(section.tally) == 0 {
			continue
		}
		b.WriteString(section.title + "\n")
		for _, path := range sortedTallyKeys(section.tally) {
			b.WriteString(fmt.Sprintf("  • %s\n", path))
		}
		b.WriteString("\n")
	}

	total := len(plan.renameTargets) + len(plan.titleTally) + len(plan.uidTally) +
		len(plan.quizIDTally) + len(plan.pointsTally) + len(plan.fingerprintTally)
	b.WriteString("SUMMARY:\n")
	b.WriteString(fmt.Sprintf("  • %d change%s across the content tree\n", total, pluralize(total)))

	return b.String()
}

// DetailedPreview returns a line-by-line view of what was (or would be)
// changed. Shown in dry-run mode.
func (fr *FixResult) DetailedPreview() string {
	var b strings.Builder

	b.WriteString("DETAILED CHANGES PREVIEW\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(fr.FilesRenamed) > 0 {
		b.WriteString("[File Renames]\n")
		for i, rename := range fr.FilesRenamed {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, rename.OldPath))
			b.WriteString(fmt.Sprintf("   → %s\n\n", rename.NewPath))
		}
	}

	if len(fr.TitlesAdded) > 0 {
		b.WriteString("[Titles Derived From Filenames]\n")
		for i, p := range fr.TitlesAdded {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
		}
		b.WriteString("\n")
	}

	if len(fr.UIDsAdded) > 0 {
		b.WriteString("[UIDs Generated]\n")
		for i, p := range fr.UIDsAdded {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
		}
		b.WriteString("\n")
	}

	if len(fr.QuizIDsAdded) > 0 {
		b.WriteString("[Quiz IDs Inserted]\n")
		for i, ins := range fr.QuizIDsAdded {
			b.WriteString(fmt.Sprintf("%d. %s:%d\n", i+1, ins.FilePath, ins.Line))
			b.WriteString(fmt.Sprintf("   #%s\n\n", ins.ID))
		}
	}

	if len(fr.PointsAdded) > 0 {
		b.WriteString("[Points Made Explicit]\n")
		for i, ins := range fr.PointsAdded {
			b.WriteString(fmt.Sprintf("%d. %s:%d\n", i+1, ins.FilePath, ins.Line))
			b.WriteString(fmt.Sprintf("   points=%q\n\n", ins.Points))
		}
	}

	if len(fr.FingerprintsFixed) > 0 {
		b.WriteString("[Fingerprints Refreshed]\n")
		for i, p := range fr.FingerprintsFixed {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Total: %d file%s affected\n",
		fr.CountAffectedFiles(), pluralize(fr.CountAffectedFiles())))

	return b.String()
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTallyKeys(m tallyMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

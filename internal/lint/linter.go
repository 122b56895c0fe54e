package lint

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Repository housekeeping files that are never lessons, matched
// case-insensitively against the base name.
var ignoredBasenames = map[string]bool{
	"README.MD":          true,
	"CONTRIBUTING.MD":    true,
	"CHANGELOG.MD":       true,
	"LICENSE.MD":         true,
	"CODE_OF_CONDUCT.MD": true,
	"SECURITY.MD":        true,
}

func isIgnoredFile(filename string) bool {
	return ignoredBasenames[strings.ToUpper(filename)]
}

// Linter runs the configured rule set over lesson files.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter builds a linter with the full rule set. A nil config gets
// text output and defaults for every rule.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}
	return &Linter{
		cfg: cfg,
		rules: []Rule{
			&FilenameRule{},
			&FrontmatterRule{},
			&FrontmatterFingerprintRule{},
			&QuizIDsRule{},
			&QuizAnswersRule{},
			&QuizPointsRule{DefaultPoints: cfg.DefaultPoints},
			&QuizStructureRule{},
			&CodeFencesRule{ExtraLanguages: cfg.ExtraLanguages},
			&HeadingsRule{},
		},
	}
}

// Rules returns the configured rule set.
func (l *Linter) Rules() []Rule {
	return l.rules
}

// LintPath lints a single lesson file or a directory tree of them.
func (l *Linter) LintPath(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	result := &Result{Issues: []Issue{}}
	if !info.IsDir() {
		result.FilesTotal = 1
		return result, l.checkFile(path, result)
	}
	return result, l.walkTree(path, result)
}

// LintFiles lints an explicit file list, as handed over by git hooks.
// Missing and non-lesson files are skipped silently.
func (l *Linter) LintFiles(files []string) (*Result, error) {
	result := &Result{Issues: []Issue{}}

	for _, file := range files {
		if isIgnoredFile(filepath.Base(file)) || !IsLessonFile(file) {
			continue
		}
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		result.FilesTotal++
		if err := l.checkFile(file, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// walkTree lints every lesson file under dirPath, skipping hidden
// directories entirely.
func (l *Linter) walkTree(dirPath string, result *Result) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case strings.HasPrefix(d.Name(), ".") && d.Name() != ".":
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		case d.IsDir():
			return nil
		case isIgnoredFile(d.Name()) || !IsLessonFile(path):
			return nil
		}

		result.FilesTotal++
		return l.checkFile(path, result)
	})
}

// checkFile runs every enabled, applicable rule against one file and
// collects the surviving issues into result.
func (l *Linter) checkFile(filePath string, result *Result) error {
	for _, rule := range l.rules {
		if l.cfg.ruleDisabled(rule.Name()) || !rule.AppliesTo(filePath) {
			continue
		}

		issues, err := rule.Check(filePath)
		if err != nil {
			return err
		}

		for _, issue := range issues {
			severity, enabled := l.cfg.severityFor(issue.Rule, issue.Severity)
			if !enabled {
				continue
			}
			issue.Severity = severity
			if l.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	return nil
}

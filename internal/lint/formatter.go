package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

const rulerWidth = 60

// Formatter renders a lint result to an output stream.
type Formatter interface {
	Format(w io.Writer, result *Result, detectedPath string, wasAutoDetected bool) error
}

// NewFormatter selects a formatter by name. Unknown names fall back to text.
func NewFormatter(format string, useColor bool) Formatter {
	if format == "json" {
		return NewJSONFormatter()
	}
	return NewTextFormatter(useColor)
}

// printer wraps a writer and remembers the first write error so the
// formatting code can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) line(args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintln(p.w, args...)
	}
}

func (p *printer) ruler() {
	p.line(strings.Repeat("━", rulerWidth))
}

// TextFormatter renders results as human-readable text.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(useColor bool) *TextFormatter {
	return &TextFormatter{}
}

// Format writes the full text report: header, issues grouped per file,
// counts, and a closing verdict.
func (f *TextFormatter) Format(w io.Writer, result *Result, detectedPath string, wasAutoDetected bool) error {
	p := &printer{w: w}

	if wasAutoDetected {
		p.printf("Detected lesson directory: %s\n", detectedPath)
	}
	p.printf("Linting course content in: %s\n", detectedPath)
	p.ruler()
	p.line()

	for _, filePath := range sortedIssueFiles(result) {
		issues := issuesForFile(result, filePath)
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Line < issues[j].Line
		})
		for _, issue := range issues {
			f.writeIssue(p, filePath, issue)
			p.line()
		}
	}

	p.ruler()
	p.printf("Results:\n")
	p.printf("  %d files scanned\n", result.FilesTotal)

	if n := result.ErrorCount(); n > 0 {
		p.printf("  %d error%s (blocks build)\n", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		p.printf("  %d warning%s (should fix)\n", n, pluralize(n))
	}
	if n := countInfo(result); n > 0 {
		p.printf("  %d info (explicitly allowed)\n", n)
	}
	p.line()

	for _, msg := range verdict(result) {
		p.line(msg)
	}
	p.line()

	return p.err
}

// writeIssue renders one issue block. Annotation problems carry a line
// number, file-level problems don't.
func (f *TextFormatter) writeIssue(p *printer, filePath string, issue Issue) {
	location := filePath
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", filePath, issue.Line)
	}
	p.printf("%s %s\n", severityIcon(issue.Severity), location)
	p.printf("  %s: %s\n", issue.Severity, issue.Message)

	if issue.Explanation != "" {
		for line := range strings.SplitSeq(strings.TrimSpace(issue.Explanation), "\n") {
			p.printf("  %s\n", line)
		}
	}

	if issue.Fix != "" {
		p.line()
		p.printf("  Fix: %s\n", issue.Fix)
	}
}

func severityIcon(severity Severity) string {
	switch severity {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	case SeverityInfo:
		return "ℹ"
	}
	return ""
}

// verdict picks the closing message lines for the report.
func verdict(result *Result) []string {
	switch {
	case result.HasErrors():
		return []string{
			"❌ Course content has errors that will prevent the bundle build.",
			"   Run: coursebuilder lint --fix",
		}
	case result.HasWarnings():
		return []string{
			"⚠️  Course content has warnings. Consider fixing before commit.",
			"   To auto-fix: coursebuilder lint --fix",
		}
	case len(result.Issues) > 0:
		return []string{"ℹ️  All issues are informational."}
	}
	return []string{"✨ All course content passes linting!"}
}

func sortedIssueFiles(result *Result) []string {
	seen := make(map[string]bool)
	var files []string
	for _, issue := range result.Issues {
		if !seen[issue.FilePath] {
			seen[issue.FilePath] = true
			files = append(files, issue.FilePath)
		}
	}
	sort.Strings(files)
	return files
}

func issuesForFile(result *Result, filePath string) []Issue {
	var issues []Issue
	for _, issue := range result.Issues {
		if issue.FilePath == filePath {
			issues = append(issues, issue)
		}
	}
	return issues
}

func countInfo(result *Result) int {
	n := 0
	for _, issue := range result.Issues {
		if issue.Severity == SeverityInfo {
			n++
		}
	}
	return n
}

// pluralize returns "s" unless count is exactly one.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter renders results as indented JSON for tooling.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput is the top-level JSON report document.
type JSONOutput struct {
	Path            string      `json:"path"`
	WasAutoDetected bool        `json:"was_auto_detected"`
	FilesTotal      int         `json:"files_total"`
	ErrorCount      int         `json:"error_count"`
	WarningCount    int         `json:"warning_count"`
	InfoCount       int         `json:"info_count"`
	Issues          []JSONIssue `json:"issues"`
}

// JSONIssue is one issue entry in the JSON report.
type JSONIssue struct {
	FilePath    string `json:"file_path"`
	Severity    string `json:"severity"`
	Rule        string `json:"rule"`
	Message     string `json:"message"`
	Explanation string `json:"explanation,omitempty"`
	Fix         string `json:"fix,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// Format encodes the result as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, detectedPath string, wasAutoDetected bool) error {
	output := JSONOutput{
		Path:            detectedPath,
		WasAutoDetected: wasAutoDetected,
		FilesTotal:      result.FilesTotal,
		ErrorCount:      result.ErrorCount(),
		WarningCount:    result.WarningCount(),
		InfoCount:       countInfo(result),
	}

	for _, issue := range result.Issues {
		output.Issues = append(output.Issues, JSONIssue{
			FilePath:    issue.FilePath,
			Severity:    issue.Severity.String(),
			Rule:        issue.Rule,
			Message:     issue.Message,
			Explanation: issue.Explanation,
			Fix:         issue.Fix,
			Line:        issue.Line,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Exit codes by category. Anything not listed exits 1.
var cliExitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryAuth:       5,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryGit:        8,
	CategoryInternal:   10,
	CategoryContent:    11,
	CategoryBuild:      11,
	CategoryFileSystem: 11,
	CategoryDaemon:     12,
	CategoryRuntime:    12,
}

// CLIErrorAdapter turns errors into terminal output and process exit
// codes. In verbose mode the full classified form is shown; otherwise
// only the message.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter builds an adapter. A nil logger falls back to
// slog.Default.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor maps an error to the process exit code. nil maps to 0,
// unclassified errors to 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := cliExitCodes[c.Category()]; ok {
		return code
	}
	return 1
}

// FormatError renders the error for stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return c.Error()
	}
	return fmt.Sprintf("Error: %s", c.Message())
}

// HandleError prints the error to stderr, logs it when warranted, and
// exits the process. A nil error is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintf(os.Stderr, "%s\n", a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

// Non-fatal classified errors are already shown on stderr; logging them
// again would be noise unless the user asked for verbose output.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	c, ok := AsClassified(err)
	if !ok {
		return true
	}
	return c.Severity() == SeverityFatal
}

func (a *CLIErrorAdapter) logError(err error) {
	c, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(c.Category()))}
	if c.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), severityLevel(c.Severity()), c.Message(), attrs...)
}

// severityLevel maps classified severities to slog levels. Unknown
// severities log as errors.
func severityLevel(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

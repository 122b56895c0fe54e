package errors

// ErrorCategory classifies an error by the subsystem or failure mode it
// belongs to. Categories drive exit codes, HTTP status codes, and retry
// decisions.
type ErrorCategory string

// User input and lookup failures.
const (
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"
)

// External system failures.
const (
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"
)

// Content pipeline failures.
const (
	CategoryContent    ErrorCategory = "content"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"
)

// Process and infrastructure failures.
const (
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity describes how much of the program an error takes down.
type ErrorSeverity string

const (
	// SeverityFatal stops execution entirely.
	SeverityFatal ErrorSeverity = "fatal"
	// SeverityError fails the current operation.
	SeverityError ErrorSeverity = "error"
	// SeverityWarning degrades the result but work continues.
	SeverityWarning ErrorSeverity = "warning"
	// SeverityInfo has no functional impact.
	SeverityInfo ErrorSeverity = "info"
)

// RetryStrategy tells retry loops whether repeating the operation can help.
type RetryStrategy string

const (
	// RetryNever marks a permanent failure.
	RetryNever RetryStrategy = "never"
	// RetryImmediate allows an immediate re-attempt.
	RetryImmediate RetryStrategy = "immediate"
	// RetryBackoff allows re-attempts with growing delays.
	RetryBackoff RetryStrategy = "backoff"
	// RetryRateLimit allows a re-attempt after the rate limit window.
	RetryRateLimit RetryStrategy = "rate_limit"
	// RetryUserAction means only user intervention can fix the failure.
	RetryUserAction RetryStrategy = "user"
)

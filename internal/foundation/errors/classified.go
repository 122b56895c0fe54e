package errors

import "fmt"

// ClassifiedError is an error annotated with a category, a severity, a
// retry strategy, and structured context. Fields are immutable after
// construction; use ErrorBuilder or WithContext to derive new values.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	}
	return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

// Is matches another ClassifiedError with the same category and message,
// so sentinel classified errors work with errors.Is.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// WithContext returns a copy of the error with one more context entry.
// The receiver is left untouched.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	derived := *e
	derived.context = e.context.Merge(ErrorContext{key: value})
	return &derived
}

// IsCategory reports whether the error carries the given category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// IsSeverity reports whether the error carries the given severity.
func (e *ClassifiedError) IsSeverity(severity ErrorSeverity) bool {
	return e.severity == severity
}

// CanRetry reports whether a retry loop is allowed to re-attempt the
// operation. User-action errors are excluded: repeating them without
// intervention cannot succeed.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// IsFatal reports whether the error should stop execution.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// IsTransient reports whether the failure is expected to clear on its own.
func (e *ClassifiedError) IsTransient() bool {
	switch e.retry {
	case RetryImmediate, RetryBackoff, RetryRateLimit:
		return true
	}
	return false
}

// AsClassified returns the error as a *ClassifiedError when it is one.
func AsClassified(err error) (*ClassifiedError, bool) {
	c, ok := err.(*ClassifiedError)
	return c, ok
}

// IsClassified reports whether err is a *ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory reports whether err is classified with the given category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.IsCategory(category)
}

// HasSeverity reports whether err is classified with the given severity.
func HasSeverity(err error, severity ErrorSeverity) bool {
	c, ok := AsClassified(err)
	return ok && c.IsSeverity(severity)
}

// GetCategory returns err's category, defaulting to CategoryInternal for
// unclassified errors.
func GetCategory(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.Category()
	}
	return CategoryInternal
}

// GetSeverity returns err's severity, defaulting to SeverityError.
func GetSeverity(err error) ErrorSeverity {
	if c, ok := AsClassified(err); ok {
		return c.Severity()
	}
	return SeverityError
}

// GetRetryStrategy returns err's retry strategy, defaulting to RetryNever.
func GetRetryStrategy(err error) RetryStrategy {
	if c, ok := AsClassified(err); ok {
		return c.RetryStrategy()
	}
	return RetryNever
}

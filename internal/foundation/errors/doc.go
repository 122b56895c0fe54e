// Package errors defines the classified error model shared by every
// CourseBuilder component.
//
// Errors carry a category (config, content, git, build, ...), a severity,
// a retry strategy, and optional structured context. Builders keep
// construction terse:
//
//	return errors.GitError("clone failed").
//		WithCause(err).
//		WithContext("url", repoURL).
//		Build()
//
// The CLI and HTTP adapters translate classified errors into exit codes
// and status codes at the program edges.
package errors

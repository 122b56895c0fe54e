// Package git clones and synchronizes course content repositories into the
// workspace used by discovery and validation runs.
//
// It covers:
//   - Repository cloning with authentication (SSH, token, basic)
//   - Incremental updates with divergence detection and optional hard reset
//   - Retry logic with configurable backoff for transient failures
//   - Typed errors for structured classification upstream
package git

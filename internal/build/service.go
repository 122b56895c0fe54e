// Package build provides the canonical validation-run pipeline for
// CourseBuilder. All execution paths (CLI, daemon, tests) route through
// Service: sync repositories, discover lessons, lint, extract quizzes,
// assemble the manifest, and write the bundle.
package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/bundle"
	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/course"
	"git.home.luguber.info/inful/coursebuilder/internal/lint"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
)

// Service is the canonical interface for executing validation runs.
// Both CLI and daemon are thin wrappers over this interface.
type Service interface {
	// Run executes a complete validation run: sync → discover → lint →
	// extract → bundle. Returns a Result with detailed outcomes and any
	// error encountered.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a validation run.
type Request struct {
	// Config is the loaded configuration for this run.
	Config *config.Config

	// RunID identifies the run. Empty means the service generates one.
	RunID string

	// OutputDir overrides the configured bundle output directory.
	OutputDir string

	// RepoCacheDir points the repository sync at a persistent cache
	// (daemon mode). Empty means a throwaway workspace is created and
	// removed when the run finishes.
	RepoCacheDir string

	// Options provides optional run behavior modifiers.
	Options Options
}

// Options provides optional configuration for run behavior.
type Options struct {
	// SkipIfUnchanged skips lint and bundle stages when the discovered
	// content and configuration hash to the same values as the manifest
	// already in the output directory.
	SkipIfUnchanged bool

	// LintOnly stops the pipeline after the lint stage without writing
	// a bundle.
	LintOnly bool

	// DiscoverOnly stops the pipeline after lessons are discovered and
	// ordered, before any lint or extraction work.
	DiscoverOnly bool
}

// RepoSync records one repository's sync outcome within a run.
type RepoSync struct {
	Name     string
	URL      string
	Branch   string
	Commit   string
	Path     string
	Duration time.Duration
	Err      error
}

// LessonReport is the per-lesson slice of a run result used for run
// history events and API responses.
type LessonReport struct {
	Slug         string
	Path         string
	Repository   string
	QuizCount    int
	ErrorCount   int
	WarningCount int
}

// Result contains the outcome of a validation run.
type Result struct {
	RunID  string
	Status Status

	// Stage names the pipeline stage a failed run died in.
	Stage string

	Repos       []RepoSync
	Lessons     []LessonReport
	// CourseLessons holds the parsed lessons in course order, for callers
	// that post-process content (link verification in the daemon).
	CourseLessons []course.Lesson
	LintResult  *lint.Result
	Manifest    *manifest.CourseManifest
	ManifestHash string
	Bundle      *bundle.Result

	// StageDurations maps stage name to wall time spent in it.
	StageDurations map[string]time.Duration

	Skipped    bool
	SkipReason string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// SyncedRepoCount returns the number of repositories that synced cleanly.
func (r *Result) SyncedRepoCount() int {
	n := 0
	for i := range r.Repos {
		if r.Repos[i].Err == nil {
			n++
		}
	}
	return n
}

// FailedRepoCount returns the number of repositories that failed to sync.
func (r *Result) FailedRepoCount() int {
	return len(r.Repos) - r.SyncedRepoCount()
}

// Status represents the outcome of a validation run.
type Status string

const (
	// StatusSuccess indicates the run completed and the bundle was written.
	StatusSuccess Status = "success"

	// StatusFailed indicates the run encountered an error.
	StatusFailed Status = "failed"

	// StatusSkipped indicates the run was skipped (no content changes).
	StatusSkipped Status = "skipped"

	// StatusCancelled indicates the run was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped || s == StatusCancelled
}

// IsSuccess returns true if the run completed without failing.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}

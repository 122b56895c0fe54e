package daemon

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/build"
	"git.home.luguber.info/inful/coursebuilder/internal/eventstore"
	"git.home.luguber.info/inful/coursebuilder/internal/lint"
)

// EventEmitter persists run lifecycle events to the event store and keeps
// the run history projection current. All daemon-side run state flows
// through here; the HTTP API reads it back from the projection.
type EventEmitter struct {
	store      eventstore.Store
	projection *eventstore.RunHistoryProjection
}

// NewEventEmitter creates an emitter over the given store and projection.
func NewEventEmitter(store eventstore.Store, projection *eventstore.RunHistoryProjection) *EventEmitter {
	return &EventEmitter{
		store:      store,
		projection: projection,
	}
}

// EmitEvent persists an event and applies it to the projection.
func (e *EventEmitter) EmitEvent(ctx context.Context, event eventstore.Event) error {
	if e.store == nil {
		return nil // Event store not initialized
	}

	if err := e.store.Append(ctx, event.RunID(), event.Type(), event.Payload(), event.Metadata()); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}

	if e.projection != nil {
		e.projection.Apply(event)
	}

	return nil
}

// EmitRunStarted records the beginning of a validation run.
func (e *EventEmitter) EmitRunStarted(ctx context.Context, runID string, meta eventstore.RunStartedMeta) error {
	event, err := eventstore.NewRunStarted(runID, meta)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}

// EmitRunFailed records a run failure at a given stage.
func (e *EventEmitter) EmitRunFailed(ctx context.Context, runID, stage, errorMsg string) error {
	event, err := eventstore.NewRunFailed(runID, stage, errorMsg)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}

// EmitRunResult records the full event trail for a finished run: repo
// syncs, lesson lint outcomes, bundle output, terminal status, and the
// summarizing report. Event emission never fails the run itself; the
// first persistence error is returned for logging.
func (e *EventEmitter) EmitRunResult(ctx context.Context, res *build.Result) error {
	if res == nil {
		return nil
	}

	var firstErr error
	record := func(event eventstore.Event, err error) {
		if err == nil {
			err = e.EmitEvent(ctx, event)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, repo := range res.Repos {
		if repo.Err != nil {
			continue
		}
		record(eventstore.NewRepositorySynced(res.RunID, repo.Name, repo.Commit, repo.Path, repo.Duration))
	}

	lessonsByRepo := make(map[string][]string)
	for _, lesson := range res.Lessons {
		repo := lesson.Repository
		if repo == "" {
			repo = "local"
		}
		lessonsByRepo[repo] = append(lessonsByRepo[repo], lesson.Path)
	}
	for repoName, lessons := range lessonsByRepo {
		record(eventstore.NewLessonsDiscovered(res.RunID, repoName, lessons))
	}

	for _, lesson := range res.Lessons {
		record(eventstore.NewLessonLinted(res.RunID, lesson.Path, lesson.QuizCount, lesson.ErrorCount, lesson.WarningCount))
	}

	if res.Bundle != nil {
		record(eventstore.NewBundleWritten(res.RunID, res.Bundle.Path, res.ManifestHash, res.Bundle.FileCount, res.Bundle.Duration))
	}

	switch res.Status {
	case build.StatusSuccess, build.StatusSkipped:
		artifacts := map[string]string{}
		if res.Bundle != nil {
			artifacts["bundle"] = res.Bundle.Path
		}
		if res.ManifestHash != "" {
			artifacts["manifest_hash"] = res.ManifestHash
		}
		record(eventstore.NewRunCompleted(res.RunID, string(res.Status), res.Duration, artifacts))
	case build.StatusCancelled:
		record(eventstore.NewRunFailed(res.RunID, res.Stage, "run canceled"))
	}

	record(eventstore.NewRunReportGenerated(res.RunID, buildRunReport(res)))

	return firstErr
}

// buildRunReport condenses a run result into the report event payload.
func buildRunReport(res *build.Result) eventstore.RunReportData {
	report := eventstore.RunReportData{
		Outcome:     string(res.Status),
		SyncedRepos: res.SyncedRepoCount(),
		FailedRepos: res.FailedRepoCount(),
		LessonCount: len(res.Lessons),
	}

	if res.Manifest != nil {
		report.QuizCount = res.Manifest.Totals.Quizzes
		report.TotalPoints = res.Manifest.Totals.Points
	}

	if len(res.StageDurations) > 0 {
		report.StageDurations = make(map[string]int64, len(res.StageDurations))
		for stage, d := range res.StageDurations {
			report.StageDurations[stage] = d.Milliseconds()
		}
	}

	if res.LintResult != nil {
		if len(res.LintResult.Issues) > 0 {
			report.IssuesByRule = make(map[string]int)
		}
		for _, issue := range res.LintResult.Issues {
			report.IssuesByRule[issue.Rule]++
			msg := fmt.Sprintf("%s: %s (%s)", issue.FilePath, issue.Message, issue.Rule)
			if len(msg) > 500 {
				msg = msg[:500] + "…"
			}
			switch issue.Severity {
			case lint.SeverityError:
				report.Errors = append(report.Errors, msg)
			case lint.SeverityWarning:
				report.Warnings = append(report.Warnings, msg)
			}
		}
	}

	report.Summary = summarizeRun(res, report)
	return report
}

func summarizeRun(res *build.Result, report eventstore.RunReportData) string {
	switch res.Status {
	case build.StatusSkipped:
		return fmt.Sprintf("skipped: %s", res.SkipReason)
	case build.StatusFailed:
		return fmt.Sprintf("failed at %s stage (%d errors)", res.Stage, len(report.Errors))
	case build.StatusCancelled:
		return "canceled"
	default:
		return fmt.Sprintf("%d lessons, %d quizzes, %.1f points in %s",
			report.LessonCount, report.QuizCount, report.TotalPoints,
			res.Duration.Round(time.Millisecond))
	}
}

package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
)

// RunStartedMeta contains typed metadata for run start events.
type RunStartedMeta struct {
	Course  string `json:"course"`            // Course slug
	Trigger string `json:"trigger"`           // What started the run: watch|webhook|schedule|manual
	Reason  string `json:"reason,omitempty"`  // Human-readable trigger detail
}

// RunStarted is emitted when a validation run begins.
type RunStarted struct {
	BaseEvent
	Course string         `json:"course"`
	Config RunStartedMeta `json:"config"`
}

// NewRunStarted creates a RunStarted event with typed metadata.
func NewRunStarted(runID string, meta RunStartedMeta) (*RunStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"course": meta.Course,
		"config": meta,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal RunStarted payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}

	return &RunStarted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "RunStarted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Course: meta.Course,
		Config: meta,
	}, nil
}

// RepositorySynced is emitted when a content repository is cloned or updated.
type RepositorySynced struct {
	BaseEvent
	RepoName string        `json:"repo_name"`
	Commit   string        `json:"commit"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration_ms"`
}

// NewRepositorySynced creates a RepositorySynced event.
func NewRepositorySynced(runID, repoName, commit, path string, duration time.Duration) (*RepositorySynced, error) {
	payload, err := json.Marshal(map[string]any{
		"repo_name":   repoName,
		"commit":      commit,
		"path":        path,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal RepositorySynced payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("repo", repoName).
			Build()
	}

	return &RepositorySynced{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "RepositorySynced",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		RepoName: repoName,
		Commit:   commit,
		Path:     path,
		Duration: duration,
	}, nil
}

// LessonsDiscovered is emitted when lesson files are discovered.
type LessonsDiscovered struct {
	BaseEvent
	RepoName    string   `json:"repo_name"`
	LessonCount int      `json:"lesson_count"`
	Lessons     []string `json:"lessons"`
}

// NewLessonsDiscovered creates a LessonsDiscovered event.
func NewLessonsDiscovered(runID, repoName string, lessons []string) (*LessonsDiscovered, error) {
	payload, err := json.Marshal(map[string]any{
		"repo_name":    repoName,
		"lesson_count": len(lessons),
		"lessons":      lessons,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal LessonsDiscovered payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("repo", repoName).
			Build()
	}

	return &LessonsDiscovered{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "LessonsDiscovered",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		RepoName:    repoName,
		LessonCount: len(lessons),
		Lessons:     lessons,
	}, nil
}

// LessonLinted is emitted when a lesson finishes rule evaluation.
type LessonLinted struct {
	BaseEvent
	Path      string `json:"path"`
	QuizCount int    `json:"quiz_count"`
	Errors    int    `json:"errors"`
	Warnings  int    `json:"warnings"`
}

// NewLessonLinted creates a LessonLinted event.
func NewLessonLinted(runID, path string, quizCount, errorCount, warningCount int) (*LessonLinted, error) {
	payload, err := json.Marshal(map[string]any{
		"path":       path,
		"quiz_count": quizCount,
		"errors":     errorCount,
		"warnings":   warningCount,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal LessonLinted payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("lesson", path).
			Build()
	}

	return &LessonLinted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "LessonLinted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Path:      path,
		QuizCount: quizCount,
		Errors:    errorCount,
		Warnings:  warningCount,
	}, nil
}

// BundleWritten is emitted when the course bundle is written.
type BundleWritten struct {
	BaseEvent
	OutputPath   string        `json:"output_path"`
	ManifestHash string        `json:"manifest_hash"`
	FileCount    int           `json:"file_count"`
	Duration     time.Duration `json:"duration_ms"`
}

// NewBundleWritten creates a BundleWritten event.
func NewBundleWritten(runID, outputPath, manifestHash string, fileCount int, duration time.Duration) (*BundleWritten, error) {
	payload, err := json.Marshal(map[string]any{
		"output_path":   outputPath,
		"manifest_hash": manifestHash,
		"file_count":    fileCount,
		"duration_ms":   duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BundleWritten payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}

	return &BundleWritten{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "BundleWritten",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		OutputPath:   outputPath,
		ManifestHash: manifestHash,
		FileCount:    fileCount,
		Duration:     duration,
	}, nil
}

// RunCompleted is emitted when a validation run completes.
type RunCompleted struct {
	BaseEvent
	Status    string            `json:"status"`
	Duration  time.Duration     `json:"duration_ms"`
	Artifacts map[string]string `json:"artifacts"`
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(runID, status string, duration time.Duration, artifacts map[string]string) (*RunCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"artifacts":   artifacts,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal RunCompleted payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}

	return &RunCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "RunCompleted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Status:    status,
		Duration:  duration,
		Artifacts: artifacts,
	}, nil
}

// RunFailed is emitted when a validation run fails.
type RunFailed struct {
	BaseEvent
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewRunFailed creates a RunFailed event.
func NewRunFailed(runID, stage, errorMsg string) (*RunFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"stage": stage,
		"error": errorMsg,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal RunFailed payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("stage", stage).
			Build()
	}

	return &RunFailed{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "RunFailed",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Stage: stage,
		Error: errorMsg,
	}, nil
}

// RunReportData contains the key metrics from a validation run report.
type RunReportData struct {
	Outcome        string           `json:"outcome"`
	Summary        string           `json:"summary"`
	LessonCount    int              `json:"lesson_count"`
	QuizCount      int              `json:"quiz_count"`
	TotalPoints    float64          `json:"total_points"`
	SyncedRepos    int              `json:"synced_repos"`
	FailedRepos    int              `json:"failed_repos"`
	IssuesByRule   map[string]int   `json:"issues_by_rule,omitempty"`
	StageDurations map[string]int64 `json:"stage_durations_ms"` // stage -> milliseconds
	Errors         []string         `json:"errors,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// RunReportGenerated is emitted when a run report is finalized.
type RunReportGenerated struct {
	BaseEvent
	Report RunReportData `json:"report"`
}

// NewRunReportGenerated creates a RunReportGenerated event.
func NewRunReportGenerated(runID string, report RunReportData) (*RunReportGenerated, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal RunReportGenerated payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}

	return &RunReportGenerated{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      "RunReportGenerated",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Report: report,
	}, nil
}

package eventstore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventSerialization(t *testing.T) {
	runID := testRunID

	tests := []struct {
		name      string
		createFn  func() (Event, error)
		eventType string
	}{
		{
			name: "RunStarted",
			createFn: func() (Event, error) {
				return NewRunStarted(runID, RunStartedMeta{Course: "debugging", Trigger: "manual"})
			},
			eventType: "RunStarted",
		},
		{
			name: "RepositorySynced",
			createFn: func() (Event, error) {
				return NewRepositorySynced(runID, "lessons", "abc123", "/path/to/repo", 100*time.Millisecond)
			},
			eventType: "RepositorySynced",
		},
		{
			name: "LessonsDiscovered",
			createFn: func() (Event, error) {
				return NewLessonsDiscovered(runID, "lessons", []string{"intro.md", "stepping.md"})
			},
			eventType: "LessonsDiscovered",
		},
		{
			name: "LessonLinted",
			createFn: func() (Event, error) {
				return NewLessonLinted(runID, "lessons/intro.md", 4, 0, 2)
			},
			eventType: "LessonLinted",
		},
		{
			name: "BundleWritten",
			createFn: func() (Event, error) {
				return NewBundleWritten(runID, "/output", "hash123", 12, 2*time.Second)
			},
			eventType: "BundleWritten",
		},
		{
			name: "RunCompleted",
			createFn: func() (Event, error) {
				return NewRunCompleted(runID, "success", 5*time.Second, map[string]string{"bundle": "/output"})
			},
			eventType: "RunCompleted",
		},
		{
			name: "RunFailed",
			createFn: func() (Event, error) {
				return NewRunFailed(runID, "bundle", "failed to write bundle")
			},
			eventType: "RunFailed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create event
			event, err := tt.createFn()
			if err != nil {
				t.Fatalf("failed to create event: %v", err)
			}

			// Verify required fields
			if event.RunID() != runID {
				t.Errorf("expected run_id %s, got %s", runID, event.RunID())
			}
			if event.Type() != tt.eventType {
				t.Errorf("expected event_type %s, got %s", tt.eventType, event.Type())
			}
			if event.Timestamp().IsZero() {
				t.Error("timestamp should not be zero")
			}

			// Verify payload is valid JSON
			payload := event.Payload()
			if len(payload) == 0 {
				t.Error("payload should not be empty")
			}

			var data map[string]any
			if err := json.Unmarshal(payload, &data); err != nil {
				t.Errorf("failed to unmarshal payload: %v", err)
			}
		})
	}
}

func TestRunStartedFields(t *testing.T) {
	runID := testRunID
	meta := RunStartedMeta{
		Course:  "debugging",
		Trigger: "webhook",
		Reason:  "push to main",
	}

	event, err := NewRunStarted(runID, meta)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if event.Course != meta.Course {
		t.Errorf("expected course %s, got %s", meta.Course, event.Course)
	}
	if event.Config.Trigger != "webhook" {
		t.Errorf("expected config trigger=webhook, got %s", event.Config.Trigger)
	}
	if event.Config.Reason != "push to main" {
		t.Errorf("expected config reason, got %s", event.Config.Reason)
	}
}

func TestRepositorySyncedFields(t *testing.T) {
	runID := testRunID
	repoName := "lessons"
	commit := "abc123"
	path := "/path/to/repo"
	duration := 100 * time.Millisecond

	event, err := NewRepositorySynced(runID, repoName, commit, path, duration)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if event.RepoName != repoName {
		t.Errorf("expected repo_name %s, got %s", repoName, event.RepoName)
	}
	if event.Commit != commit {
		t.Errorf("expected commit %s, got %s", commit, event.Commit)
	}
	if event.Path != path {
		t.Errorf("expected path %s, got %s", path, event.Path)
	}
	if event.Duration != duration {
		t.Errorf("expected duration %v, got %v", duration, event.Duration)
	}
}

func TestLessonLintedFields(t *testing.T) {
	event, err := NewLessonLinted("run-123", "lessons/stepping.md", 3, 1, 2)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if event.Path != "lessons/stepping.md" {
		t.Errorf("expected path lessons/stepping.md, got %s", event.Path)
	}
	if event.QuizCount != 3 {
		t.Errorf("expected quiz_count 3, got %d", event.QuizCount)
	}
	if event.Errors != 1 || event.Warnings != 2 {
		t.Errorf("expected 1 error / 2 warnings, got %d/%d", event.Errors, event.Warnings)
	}
}

func TestRunFailedFields(t *testing.T) {
	runID := "run-123"
	stage := "bundle"
	errorMsg := "failed to write bundle"

	event, err := NewRunFailed(runID, stage, errorMsg)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if event.Stage != stage {
		t.Errorf("expected stage %s, got %s", stage, event.Stage)
	}
	if event.Error != errorMsg {
		t.Errorf("expected error %s, got %s", errorMsg, event.Error)
	}
}

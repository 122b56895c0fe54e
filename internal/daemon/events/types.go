package events

import "time"

// ValidationRequested indicates that a coherent full validation run should
// happen soon.
//
// This is an orchestration event used by the daemon's in-process control
// flow. It is not durable and is not written to internal/eventstore.
type ValidationRequested struct {
	Immediate   bool
	Source      string // watch|webhook|schedule|manual
	Reason      string
	RepoURL     string
	Branch      string
	RequestedAt time.Time
}

// RunNow is emitted by the RunDebouncer once it decides a validation run
// should start. Consumers enqueue a canonical full run job.
type RunNow struct {
	TriggeredAt   time.Time
	RequestCount  int
	LastSource    string
	LastReason    string
	LastRepoURL   string
	FirstRequest  time.Time
	LastRequest   time.Time
	DebounceCause string // "quiet", "max_delay", "after_running" or "immediate"
}

// RunFinished is emitted after a validation run reaches a terminal state.
// The update hub uses it to notify API clients.
type RunFinished struct {
	RunID      string
	Status     string
	Stage      string // failed stage, empty on success
	LessonCount int
	Duration   time.Duration
	FinishedAt time.Time
}

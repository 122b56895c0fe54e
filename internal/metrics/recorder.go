package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for validation-run and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|warning|failed|canceled
	AddRuleIssues(rule, severity string, n int)
	ObserveSyncRepoDuration(repo string, d time.Duration, success bool)
	IncSyncRepoResult(success bool)
	SetLessonCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)           {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                     {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                   {}
func (NoopRecorder) IncRunOutcome(string)                                 {}
func (NoopRecorder) AddRuleIssues(string, string, int)                    {}
func (NoopRecorder) ObserveSyncRepoDuration(string, time.Duration, bool)  {}
func (NoopRecorder) IncSyncRepoResult(bool)                               {}
func (NoopRecorder) SetLessonCount(int)                                   {}

package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("lint", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncStageResult("lint", ResultSuccess)
	pr.IncRunOutcome("success")
	pr.AddRuleIssues("quiz-answers", "error", 2)
	pr.ObserveSyncRepoDuration("lessons", 2*time.Second, true)
	pr.IncSyncRepoResult(true)
	pr.SetLessonCount(7)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

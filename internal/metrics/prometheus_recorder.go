package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	ruleIssues    *prom.CounterVec
	syncDuration  *prom.HistogramVec
	syncResults   *prom.CounterVec
	lessonCount   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "coursebuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual validation run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "coursebuilder",
			Name:      "run_duration_seconds",
			Help:      "Total validation run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coursebuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coursebuilder",
			Name:      "run_outcomes_total",
			Help:      "Validation run outcomes by final status",
		}, []string{"outcome"})
		pr.ruleIssues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coursebuilder",
			Name:      "lint_issues_total",
			Help:      "Lint issues found, by rule and severity",
		}, []string{"rule", "severity"})
		pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "coursebuilder",
			Name:      "sync_repo_duration_seconds",
			Help:      "Duration of individual repository sync operations",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"})
		pr.syncResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "coursebuilder",
			Name:      "sync_repo_results_total",
			Help:      "Repository sync results by success/failure",
		}, []string{"result"})
		pr.lessonCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "coursebuilder",
			Name:      "lessons",
			Help:      "Lessons discovered by the last validation run",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.ruleIssues, pr.syncDuration, pr.syncResults, pr.lessonCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddRuleIssues(rule, severity string, n int) {
	if p == nil || p.ruleIssues == nil || n <= 0 {
		return
	}
	p.ruleIssues.WithLabelValues(rule, severity).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveSyncRepoDuration(repo string, d time.Duration, success bool) {
	if p == nil || p.syncDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.syncDuration.WithLabelValues(repo, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSyncRepoResult(success bool) {
	if p == nil || p.syncResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.syncResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetLessonCount(n int) {
	if p == nil || p.lessonCount == nil {
		return
	}
	p.lessonCount.Set(float64(n))
}

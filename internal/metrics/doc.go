// Package metrics provides observability hooks for validation run metrics.
//
// The package implements the Null Object pattern: components receive a
// Recorder through dependency injection and default to NoopRecorder, so
// metrics collection never requires nil checks at call sites.
//
//	runner := pipeline.NewRunner(cfg)          // metrics.NoopRecorder{}
//	runner.Recorder = metrics.NewPrometheusRecorder(registry)
//
// The daemon activates PrometheusRecorder and serves the registry from its
// admin endpoint; one-shot CLI commands stay on the noop implementation.
package metrics

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/coursebuilder/internal/build"
	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/coursebuilder/internal/eventstore"
	"git.home.luguber.info/inful/coursebuilder/internal/linkcheck"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/metrics"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon is the continuous validation service. It watches content, syncs
// repositories on a schedule, accepts webhook pushes, and funnels every
// trigger through a debouncer into the run queue, which executes the
// shared validation pipeline.
type Daemon struct {
	config         *config.Config
	configFilePath string
	status         atomic.Value // Status
	startTime      time.Time
	stopChan       chan struct{}
	mu             sync.RWMutex

	// Trigger plumbing
	bus            *events.Bus
	debouncer      *RunDebouncer
	runQueue       *RunQueue
	scheduler      *Scheduler
	contentWatcher *ContentWatcher
	configWatcher  *ConfigWatcher
	workers        *WorkerGroup

	// HTTP surfaces
	apiServer   *APIServer
	adminServer *AdminServer
	updateHub   *UpdateHub

	// Run execution
	buildService build.Service
	linkChecker  *linkcheck.Checker

	// Event sourcing
	eventStore eventstore.Store
	projection *eventstore.RunHistoryProjection
	emitter    *EventEmitter

	// Observability
	registry *prometheus.Registry
	recorder metrics.Recorder
}

// NewDaemon creates a new daemon instance.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	return NewDaemonWithConfigFile(cfg, "")
}

// NewDaemonWithConfigFile creates a daemon that additionally watches its
// config file for changes.
func NewDaemonWithConfigFile(cfg *config.Config, configFilePath string) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if cfg.Daemon == nil {
		return nil, fmt.Errorf("daemon configuration is required")
	}

	d := &Daemon{
		config:         cfg,
		configFilePath: configFilePath,
		stopChan:       make(chan struct{}),
		bus:            events.NewBus(),
		workers:        &WorkerGroup{},
		updateHub:      NewUpdateHub(),
		recorder:       metrics.NoopRecorder{},
	}
	d.status.Store(StatusStopped)

	if cfg.Monitoring == nil || cfg.Monitoring.Metrics.IsEnabled() {
		d.registry = prometheus.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	d.buildService = build.NewService().WithRecorder(d.recorder)

	// Event store and run history projection.
	dataDir := cfg.Daemon.Storage.DataDir
	if dataDir == "" {
		dataDir = "./daemon-data"
	}
	eventsDB := cfg.Daemon.Storage.EventsDB
	if eventsDB == "" {
		eventsDB = filepath.Join(dataDir, "events.db")
	}
	store, err := eventstore.NewSQLiteStore(eventsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}
	d.eventStore = store
	d.projection = eventstore.NewRunHistoryProjection(store, 100)
	d.emitter = NewEventEmitter(store, d.projection)

	if err := d.projection.Rebuild(context.Background()); err != nil {
		slog.Warn("Failed to rebuild run history projection", logfields.Error(err))
		// Non-fatal: projection starts empty.
	}

	// Run queue executes validation runs; the daemon itself is the executor.
	d.runQueue = NewRunQueue(cfg.Daemon.Sync.QueueSize, cfg.Daemon.Sync.ConcurrentRuns, d)

	// The debouncer turns bursts of validation requests into single runs.
	debounce := cfg.Daemon.Debounce
	d.debouncer, err = NewRunDebouncer(d.bus, RunDebouncerConfig{
		QuietWindow:    debounce.QuietWindowDuration(),
		MaxDelay:       debounce.MaxDelayDuration(),
		CheckRunActive: func() bool { return d.runQueue.ActiveCount() > 0 },
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create run debouncer: %w", err)
	}

	d.scheduler, err = NewScheduler(d.bus)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if cfg.Daemon.Watch.IsEnabled() {
		paths := watchPaths(cfg)
		if len(paths) > 0 {
			d.contentWatcher, err = NewContentWatcher(paths, d.bus)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("failed to create content watcher: %w", err)
			}
		}
	}

	if configFilePath != "" {
		d.configWatcher, err = NewConfigWatcher(configFilePath, d)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create config watcher: %w", err)
		}
	}

	if cfg.Linkcheck.IsEnabled() {
		checker, err := linkcheck.NewChecker(cfg.Linkcheck)
		if err != nil {
			slog.Warn("Link checker unavailable", logfields.Error(err))
			// Non-fatal: runs proceed without link verification.
		} else {
			d.linkChecker = checker
		}
	}

	d.apiServer = NewAPIServer(cfg, d)
	d.adminServer = NewAdminServer(cfg, d)

	return d, nil
}

// watchPaths resolves the directories the content watcher should cover.
func watchPaths(cfg *config.Config) []string {
	if cfg.Daemon.Watch != nil && len(cfg.Daemon.Watch.Paths) > 0 {
		return cfg.Daemon.Watch.Paths
	}
	if cfg.Course.ContentDir != "" {
		return []string{cfg.Course.ContentDir}
	}
	return nil
}

// Start starts all daemon components and blocks until the context is
// canceled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	slog.Info("Starting coursebuilder daemon",
		logfields.Course(d.config.Course.Name),
		slog.Int("api_port", d.config.Daemon.HTTP.APIPort),
		slog.Int("admin_port", d.config.Daemon.HTTP.AdminPort))

	if err := d.apiServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start API server: %w", err)
	}
	if err := d.adminServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	d.runQueue.Start(ctx)

	d.workers.Go(func() {
		if err := d.debouncer.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Run debouncer exited", logfields.Error(err))
		}
	})
	<-d.debouncer.Ready()

	d.workers.Go(func() { d.consumeRunTriggers(ctx) })
	d.workers.Go(func() { d.updateHub.Run(ctx, d.bus) })

	d.scheduler.Start(ctx)
	if expr := d.config.Daemon.Sync.Schedule; expr != "" {
		if _, err := d.scheduler.ScheduleSync(expr); err != nil {
			slog.Error("Failed to schedule periodic sync", logfields.Error(err))
		}
	}

	if d.contentWatcher != nil {
		if err := d.contentWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start content watcher", logfields.Error(err))
		}
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		} else {
			slog.Info("Config watcher started")
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("Daemon started successfully")

	// Validate once on startup so state reflects the current content.
	d.TriggerRun("manual", "startup validation", false)

	d.mu.Unlock()

	select {
	case <-ctx.Done():
		slog.Info("Daemon stopping: context canceled")
	case <-d.stopChan:
		slog.Info("Daemon stopping: stop requested")
	}

	d.status.Store(StatusStopping)
	return nil
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	currentStatus := d.GetStatus()
	if currentStatus == StatusStopped || currentStatus == StatusStopping {
		return nil
	}

	d.status.Store(StatusStopping)
	slog.Info("Stopping coursebuilder daemon")

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}

	if d.contentWatcher != nil {
		if err := d.contentWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop content watcher", logfields.Error(err))
		}
	}

	if err := d.scheduler.Stop(ctx); err != nil {
		slog.Error("Failed to stop scheduler", logfields.Error(err))
	}

	d.runQueue.Stop(ctx)
	d.bus.Close()

	if err := d.workers.StopAndWait(ctx); err != nil {
		slog.Warn("Daemon workers did not stop cleanly", logfields.Error(err))
	}

	d.updateHub.Shutdown()

	if err := d.apiServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop API server", logfields.Error(err))
	}
	if err := d.adminServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop admin server", logfields.Error(err))
	}

	if d.eventStore != nil {
		if err := d.eventStore.Close(); err != nil {
			slog.Error("Failed to close event store", logfields.Error(err))
		}
	}

	d.status.Store(StatusStopped)
	slog.Info("Daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// consumeRunTriggers turns debounced RunNow events into queued runs.
func (d *Daemon) consumeRunTriggers(ctx context.Context) {
	ch, unsubscribe := events.Subscribe[events.RunNow](d.bus, 8)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			job := &RunJob{
				ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
				Type:      runTypeForSource(evt.LastSource),
				Reason:    evt.LastReason,
				CreatedAt: time.Now(),
			}
			if err := d.runQueue.Enqueue(job); err != nil {
				slog.Error("Failed to enqueue validation run",
					slog.String("cause", evt.DebounceCause),
					logfields.Error(err))
			}
		}
	}
}

func runTypeForSource(source string) RunType {
	switch source {
	case "watch":
		return RunTypeWatch
	case "webhook":
		return RunTypeWebhook
	case "schedule":
		return RunTypeScheduled
	default:
		return RunTypeManual
	}
}

// Execute implements RunExecutor: one full validation run with event
// emission and optional link verification.
func (d *Daemon) Execute(ctx context.Context, job *RunJob) error {
	cfg := d.GetConfig()

	if err := d.emitter.EmitRunStarted(ctx, job.ID, eventstore.RunStartedMeta{
		Course:  cfg.Course.Name,
		Trigger: string(job.Type),
		Reason:  job.Reason,
	}); err != nil {
		slog.Warn("Failed to record run start", logfields.RunID(job.ID), logfields.Error(err))
	}

	req := build.Request{
		Config:       cfg,
		RunID:        job.ID,
		OutputDir:    cfg.Output.Directory,
		RepoCacheDir: d.repoCacheDir(cfg),
		Options: build.Options{
			SkipIfUnchanged: true,
		},
	}

	result, runErr := d.buildService.Run(ctx, req)

	if result != nil {
		if err := d.emitter.EmitRunResult(ctx, result); err != nil {
			slog.Warn("Failed to record run events", logfields.RunID(job.ID), logfields.Error(err))
		}
	}
	if runErr != nil {
		stage := "run"
		if result != nil && result.Stage != "" {
			stage = result.Stage
		}
		if err := d.emitter.EmitRunFailed(ctx, job.ID, stage, runErr.Error()); err != nil {
			slog.Warn("Failed to record run failure", logfields.RunID(job.ID), logfields.Error(err))
		}
	}

	if runErr == nil && result != nil && result.Status == build.StatusSuccess {
		d.verifyLinks(ctx, job.ID, result)
	}

	d.publishRunFinished(ctx, job.ID, result)
	return runErr
}

// repoCacheDir resolves where synced repositories live.
func (d *Daemon) repoCacheDir(cfg *config.Config) string {
	if cfg.Daemon == nil {
		return ""
	}
	if cfg.Daemon.Storage.RepoCacheDir != "" {
		return cfg.Daemon.Storage.RepoCacheDir
	}
	dataDir := cfg.Daemon.Storage.DataDir
	if dataDir == "" {
		dataDir = "./daemon-data"
	}
	return filepath.Join(dataDir, "repositories")
}

// verifyLinks runs external link verification after a successful run.
func (d *Daemon) verifyLinks(ctx context.Context, runID string, result *build.Result) {
	if d.linkChecker == nil || len(result.CourseLessons) == 0 {
		return
	}

	summary, err := d.linkChecker.CheckLessons(ctx, d.GetConfig().Course.Name, runID, result.CourseLessons)
	if err != nil {
		slog.Warn("Link verification failed", logfields.RunID(runID), logfields.Error(err))
		return
	}
	slog.Info("Link verification complete",
		logfields.RunID(runID),
		slog.Int("lessons", summary.LessonsChecked),
		slog.Int("links", summary.LinksChecked),
		slog.Int("broken", summary.Broken))
}

// publishRunFinished notifies bus subscribers (SSE hub) of the outcome.
func (d *Daemon) publishRunFinished(ctx context.Context, runID string, result *build.Result) {
	evt := events.RunFinished{
		RunID:      runID,
		Status:     "failed",
		FinishedAt: time.Now(),
	}
	if result != nil {
		evt.Status = string(result.Status)
		evt.Stage = result.Stage
		evt.LessonCount = len(result.Lessons)
		evt.Duration = result.Duration
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.bus.Publish(pubCtx, evt); err != nil {
		slog.Debug("Run finished notification dropped", logfields.Error(err))
	}
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns the daemon start time.
func (d *Daemon) GetStartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// GetRunProjection returns the run history projection for queries.
func (d *Daemon) GetRunProjection() *eventstore.RunHistoryProjection {
	return d.projection
}

// GetConfig returns the current daemon configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// TriggerRun requests a validation run through the normal debounce path.
// Immediate requests bypass the quiet window.
func (d *Daemon) TriggerRun(source, reason string, immediate bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.bus.Publish(ctx, events.ValidationRequested{
		Immediate:   immediate,
		Source:      source,
		Reason:      reason,
		RequestedAt: time.Now(),
	}); err != nil {
		slog.Error("Failed to publish validation request", logfields.Error(err))
	}
}

// ReloadConfig applies a new configuration and triggers a revalidation.
// Components that bind ports or paths at startup keep their old settings
// until restart.
func (d *Daemon) ReloadConfig(ctx context.Context, newConfig *config.Config) error {
	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	slog.Info("Configuration applied", logfields.Course(newConfig.Course.Name))

	d.TriggerRun("manual", "config reload", true)
	return nil
}

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// RunType represents what triggered a validation run.
type RunType string

const (
	RunTypeManual    RunType = "manual"    // API-triggered run
	RunTypeScheduled RunType = "scheduled" // Cron-triggered repo sync run
	RunTypeWebhook   RunType = "webhook"   // Forge push webhook
	RunTypeWatch     RunType = "watch"     // Local content change
)

// RunJobStatus represents the current status of a queued run.
type RunJobStatus string

const (
	RunJobQueued    RunJobStatus = "queued"
	RunJobRunning   RunJobStatus = "running"
	RunJobCompleted RunJobStatus = "completed"
	RunJobFailed    RunJobStatus = "failed"
)

// RunJob represents a single validation run in the queue.
type RunJob struct {
	ID          string       `json:"id"`
	Type        RunType      `json:"type"`
	Reason      string       `json:"reason,omitempty"`
	Status      RunJobStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string       `json:"error,omitempty"`

	cancel context.CancelFunc
}

// RunExecutor executes one validation run. The queue owns job lifecycle;
// the executor owns the pipeline.
type RunExecutor interface {
	Execute(ctx context.Context, job *RunJob) error
}

// RunQueue serializes validation runs through a bounded queue with a fixed
// worker count.
type RunQueue struct {
	jobs        chan *RunJob
	workers     int
	maxSize     int
	executor    RunExecutor
	mu          sync.RWMutex
	active      map[string]*RunJob
	history     []*RunJob
	historySize int
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewRunQueue creates a run queue with the specified size and worker count.
func NewRunQueue(maxSize, workers int, executor RunExecutor) *RunQueue {
	if maxSize <= 0 {
		maxSize = 50
	}
	if workers <= 0 {
		workers = 2
	}

	return &RunQueue{
		jobs:        make(chan *RunJob, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		executor:    executor,
		active:      make(map[string]*RunJob),
		historySize: 50,
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing jobs with the configured number of workers.
func (q *RunQueue) Start(ctx context.Context) {
	slog.Info("Starting run queue", slog.Int("workers", q.workers), slog.Int("max_size", q.maxSize))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop gracefully shuts down the run queue, canceling active runs.
func (q *RunQueue) Stop(ctx context.Context) {
	slog.Info("Stopping run queue")

	q.stopOnce.Do(func() { close(q.stopChan) })

	q.mu.Lock()
	for _, job := range q.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	slog.Info("Run queue stopped")
}

// Enqueue adds a new run job to the queue.
func (q *RunQueue) Enqueue(job *RunJob) error {
	if job == nil {
		return ferrors.ValidationError("job cannot be nil").Build()
	}
	if job.ID == "" {
		return ferrors.ValidationError("job ID is required").Build()
	}

	job.Status = RunJobQueued

	select {
	case q.jobs <- job:
		slog.Info("Run enqueued",
			logfields.RunID(job.ID),
			logfields.RunType(string(job.Type)))
		return nil
	default:
		return ferrors.DaemonError("run queue is full").
			WithContext("max_size", fmt.Sprintf("%d", q.maxSize)).
			Build()
	}
}

// Length returns the current queue length.
func (q *RunQueue) Length() int {
	return len(q.jobs)
}

// ActiveCount returns the number of runs currently executing.
func (q *RunQueue) ActiveCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.active)
}

// GetActiveJobs returns a copy of currently active jobs.
func (q *RunQueue) GetActiveJobs() []*RunJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make([]*RunJob, 0, len(q.active))
	for _, job := range q.active {
		active = append(active, job)
	}
	return active
}

// GetHistory returns recent completed jobs, newest last.
func (q *RunQueue) GetHistory() []*RunJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	history := make([]*RunJob, len(q.history))
	copy(history, q.history)
	return history
}

func (q *RunQueue) worker(ctx context.Context, workerID string) {
	defer q.wg.Done()

	slog.Debug("Run worker started", slog.String("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Run worker stopped by context", slog.String("worker_id", workerID))
			return
		case <-q.stopChan:
			slog.Debug("Run worker stopped by stop signal", slog.String("worker_id", workerID))
			return
		case job := <-q.jobs:
			if job != nil {
				q.processJob(ctx, job, workerID)
			}
		}
	}
}

func (q *RunQueue) processJob(ctx context.Context, job *RunJob, workerID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	startTime := time.Now()
	job.StartedAt = &startTime
	job.Status = RunJobRunning

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	slog.Info("Run started",
		logfields.RunID(job.ID),
		logfields.RunType(string(job.Type)),
		slog.String("worker", workerID))

	err := q.executor.Execute(jobCtx, job)

	endTime := time.Now()
	job.CompletedAt = &endTime
	job.Duration = endTime.Sub(*job.StartedAt)

	q.mu.Lock()
	delete(q.active, job.ID)
	q.addToHistory(job)
	q.mu.Unlock()

	if err != nil {
		job.Status = RunJobFailed
		job.Error = err.Error()
		slog.Error("Run failed",
			logfields.RunID(job.ID),
			logfields.RunType(string(job.Type)),
			slog.Duration("duration", job.Duration),
			logfields.Error(err))
	} else {
		job.Status = RunJobCompleted
		slog.Info("Run completed",
			logfields.RunID(job.ID),
			logfields.RunType(string(job.Type)),
			slog.Duration("duration", job.Duration))
	}
}

// addToHistory appends a completed job, maintaining the size limit.
// Caller must hold q.mu.
func (q *RunQueue) addToHistory(job *RunJob) {
	q.history = append(q.history, job)

	if len(q.history) > q.historySize {
		copy(q.history, q.history[len(q.history)-q.historySize:])
		q.history = q.history[:q.historySize]
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu       sync.Mutex
	executed []string
	fail     map[string]error
	block    chan struct{} // when set, Execute waits until closed
}

func (e *recordingExecutor) Execute(ctx context.Context, job *RunJob) error {
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.mu.Lock()
	e.executed = append(e.executed, job.ID)
	e.mu.Unlock()
	if e.fail != nil {
		return e.fail[job.ID]
	}
	return nil
}

func (e *recordingExecutor) executedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.executed))
	copy(out, e.executed)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRunQueueExecutesJobs(t *testing.T) {
	exec := &recordingExecutor{}
	q := NewRunQueue(10, 1, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop(context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(&RunJob{
			ID:        fmt.Sprintf("job-%d", i),
			Type:      RunTypeManual,
			CreatedAt: time.Now(),
		}))
	}

	waitFor(t, 2*time.Second, func() bool { return len(exec.executedIDs()) == 3 })

	history := q.GetHistory()
	require.Len(t, history, 3)
	for _, job := range history {
		assert.Equal(t, RunJobCompleted, job.Status)
		assert.NotNil(t, job.StartedAt)
		assert.NotNil(t, job.CompletedAt)
	}
}

func TestRunQueueRecordsFailures(t *testing.T) {
	exec := &recordingExecutor{fail: map[string]error{"bad": errors.New("sync exploded")}}
	q := NewRunQueue(10, 1, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(&RunJob{ID: "bad", Type: RunTypeScheduled, CreatedAt: time.Now()}))

	waitFor(t, 2*time.Second, func() bool { return len(q.GetHistory()) == 1 })

	job := q.GetHistory()[0]
	assert.Equal(t, RunJobFailed, job.Status)
	assert.Contains(t, job.Error, "sync exploded")
}

func TestRunQueueRejectsWhenFull(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{})}
	q := NewRunQueue(1, 1, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, q.Enqueue(&RunJob{ID: "running", CreatedAt: time.Now()}))
	waitFor(t, 2*time.Second, func() bool { return q.ActiveCount() == 1 })
	require.NoError(t, q.Enqueue(&RunJob{ID: "queued", CreatedAt: time.Now()}))

	err := q.Enqueue(&RunJob{ID: "overflow", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")

	close(exec.block)
	q.Stop(context.Background())
}

func TestRunQueueValidatesJobs(t *testing.T) {
	q := NewRunQueue(5, 1, &recordingExecutor{})

	require.Error(t, q.Enqueue(nil))
	require.Error(t, q.Enqueue(&RunJob{}))
}

func TestRunQueueTracksActiveJobs(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{})}
	q := NewRunQueue(5, 2, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(&RunJob{ID: "a", CreatedAt: time.Now()}))
	require.NoError(t, q.Enqueue(&RunJob{ID: "b", CreatedAt: time.Now()}))
	waitFor(t, 2*time.Second, func() bool { return q.ActiveCount() == 2 })

	active := q.GetActiveJobs()
	require.Len(t, active, 2)
	for _, job := range active {
		assert.Equal(t, RunJobRunning, job.Status)
	}

	close(exec.block)
	waitFor(t, 2*time.Second, func() bool { return q.ActiveCount() == 0 })
	q.Stop(context.Background())
}

package daemon

import (
	"context"
	"sync"
)

// WorkerGroup owns the daemon's background goroutines. It exists to make
// shutdown safe: WaitGroup.Add must never race with Wait, so both run
// under the same lock and Go refuses work once shutdown has begun.
type WorkerGroup struct {
	mu      sync.Mutex
	workers sync.WaitGroup
	closed  bool
}

// Go runs fn on its own goroutine. It reports false, without starting
// anything, when fn is nil or the group is already shutting down.
func (g *WorkerGroup) Go(fn func()) bool {
	if fn == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.workers.Add(1)

	go func() {
		defer g.workers.Done()
		fn()
	}()
	return true
}

// StopAndWait rejects further workers and blocks until the running ones
// exit or ctx expires. Workers keep running past a context timeout; the
// caller only stops waiting for them.
func (g *WorkerGroup) StopAndWait(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		g.workers.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-idle:
		return nil
	}
}

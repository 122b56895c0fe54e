package daemon

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
)

type RunDebouncerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration

	// CheckRunActive reports whether a validation run is currently executing.
	// When true, the debouncer will avoid emitting RunNow and will instead
	// schedule exactly one follow-up run after the active run finishes.
	CheckRunActive func() bool

	// PollInterval controls how often the debouncer polls for run completion
	// after it has detected that a run is active.
	PollInterval time.Duration
}

// RunDebouncer coalesces bursts of ValidationRequested events into a single
// RunNow.
//
//   - quiet window debounce: a run starts after the events go quiet
//   - max delay: a steady stream of events cannot postpone the run forever
//   - if a run is already active, exactly one follow-up is queued
//   - Immediate requests (webhooks) bypass the quiet window
//
// It is safe to run as a single goroutine.
type RunDebouncer struct {
	bus *events.Bus
	cfg RunDebouncerConfig

	mu        sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}

	pending         bool
	pendingAfterRun bool
	firstRequestAt  time.Time
	lastRequestAt   time.Time
	lastSource      string
	lastReason      string
	lastRepoURL     string
	requestCount    int
	pollingAfterRun bool
}

func NewRunDebouncer(bus *events.Bus, cfg RunDebouncerConfig) (*RunDebouncer, error) {
	if bus == nil {
		return nil, ferrors.ValidationError("bus is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	if cfg.CheckRunActive == nil {
		cfg.CheckRunActive = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}

	return &RunDebouncer{bus: bus, cfg: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once Run has fully initialized and subscribed to events.
// This is primarily intended for tests and deterministic startup sequencing.
func (d *RunDebouncer) Ready() <-chan struct{} {
	return d.ready
}

func (d *RunDebouncer) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}

	reqCh, unsubscribe := events.Subscribe[events.ValidationRequested](d.bus, 64)
	defer unsubscribe()

	d.readyOnce.Do(func() { close(d.ready) })

	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	pollTimer := newStoppedTimer()

	var (
		quietC <-chan time.Time
		maxC   <-chan time.Time
		pollC  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-reqCh:
			if !ok {
				return nil
			}
			d.onRequest(req)

			if req.Immediate {
				if d.tryEmit(ctx, "immediate") {
					quietC = nil
					maxC = nil
				}
			} else {
				resetTimer(quietTimer, d.cfg.QuietWindow)
				quietC = quietTimer.C

				if d.shouldStartMaxTimer() {
					resetTimer(maxTimer, d.cfg.MaxDelay)
					maxC = maxTimer.C
				}
			}

		case <-quietC:
			if d.tryEmit(ctx, "quiet") {
				quietC = nil
				maxC = nil
			}
			// else: run active; we keep pollingAfterRun until completion.

		case <-maxC:
			if d.tryEmit(ctx, "max_delay") {
				quietC = nil
				maxC = nil
			}

		case <-pollC:
			if d.tryEmitAfterRunning(ctx) {
				pollC = nil
				quietC = nil
				maxC = nil
				continue
			}
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}

		// Start polling only when we have pendingAfterRun.
		if d.shouldPollAfterRun() && pollC == nil {
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}

func (d *RunDebouncer) onRequest(req events.ValidationRequested) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := req.RequestedAt
	if now.IsZero() {
		now = time.Now()
	}

	if !d.pending {
		d.pending = true
		d.firstRequestAt = now
		d.requestCount = 0
	}

	d.lastRequestAt = now
	d.lastSource = req.Source
	d.lastReason = req.Reason
	d.lastRepoURL = req.RepoURL
	d.requestCount++
}

func (d *RunDebouncer) shouldStartMaxTimer() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending && d.requestCount == 1
}

func (d *RunDebouncer) shouldPollAfterRun() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingAfterRun && !d.pollingAfterRun
}

func (d *RunDebouncer) tryEmit(ctx context.Context, cause string) bool {
	d.mu.Lock()
	pending := d.pending
	first := d.firstRequestAt
	last := d.lastRequestAt
	count := d.requestCount
	source := d.lastSource
	reason := d.lastReason
	repoURL := d.lastRepoURL
	if !pending {
		d.mu.Unlock()
		return true
	}

	if d.cfg.CheckRunActive() {
		d.pendingAfterRun = true
		d.mu.Unlock()
		return false
	}

	d.pending = false
	d.pendingAfterRun = false
	d.pollingAfterRun = false
	d.mu.Unlock()

	evt := events.RunNow{
		TriggeredAt:   time.Now(),
		RequestCount:  count,
		LastSource:    source,
		LastReason:    reason,
		LastRepoURL:   repoURL,
		FirstRequest:  first,
		LastRequest:   last,
		DebounceCause: cause,
	}

	_ = d.bus.Publish(ctx, evt)
	return true
}

func (d *RunDebouncer) tryEmitAfterRunning(ctx context.Context) bool {
	d.mu.Lock()
	if !d.pendingAfterRun {
		d.mu.Unlock()
		return true
	}
	d.pollingAfterRun = true
	d.mu.Unlock()

	if d.cfg.CheckRunActive() {
		return false
	}

	// Run finished; emit exactly one follow-up.
	return d.tryEmit(ctx, "after_running")
}

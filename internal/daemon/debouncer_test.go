package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
)

func startDebouncer(t *testing.T, bus *events.Bus, cfg RunDebouncerConfig) {
	t.Helper()

	debouncer, err := NewRunDebouncer(bus, cfg)
	require.NoError(t, err)

	ctx := t.Context()
	go func() { _ = debouncer.Run(ctx) }()

	select {
	case <-debouncer.Ready():
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for debouncer ready")
	}
}

func TestRunDebouncer_BurstCoalescesToSingleRun(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	var active atomic.Bool
	startDebouncer(t, bus, RunDebouncerConfig{
		QuietWindow:    25 * time.Millisecond,
		MaxDelay:       200 * time.Millisecond,
		CheckRunActive: active.Load,
		PollInterval:   10 * time.Millisecond,
	})

	runNowCh, unsub := events.Subscribe[events.RunNow](bus, 10)
	defer unsub()

	for range 5 {
		require.NoError(t, bus.Publish(context.Background(), events.ValidationRequested{Source: "watch", Reason: "test"}))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-runNowCh:
		require.GreaterOrEqual(t, got.RequestCount, 1)
		require.Equal(t, "watch", got.LastSource)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for RunNow")
	}

	select {
	case <-runNowCh:
		t.Fatal("expected only one RunNow for burst")
	case <-time.After(75 * time.Millisecond):
		// ok
	}
}

func TestRunDebouncer_MaxDelayForcesRun(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	var active atomic.Bool
	startDebouncer(t, bus, RunDebouncerConfig{
		QuietWindow:    200 * time.Millisecond, // would postpone forever if requests keep coming
		MaxDelay:       60 * time.Millisecond,
		CheckRunActive: active.Load,
		PollInterval:   10 * time.Millisecond,
	})

	runNowCh, unsub := events.Subscribe[events.RunNow](bus, 10)
	defer unsub()

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, bus.Publish(context.Background(), events.ValidationRequested{Source: "watch", Reason: "test"}))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-runNowCh:
		require.Equal(t, "max_delay", got.DebounceCause)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for max-delay RunNow")
	}
}

func TestRunDebouncer_ActiveRunQueuesOneFollowUp(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	var active atomic.Bool
	active.Store(true)

	startDebouncer(t, bus, RunDebouncerConfig{
		QuietWindow:    20 * time.Millisecond,
		MaxDelay:       50 * time.Millisecond,
		CheckRunActive: active.Load,
		PollInterval:   10 * time.Millisecond,
	})

	runNowCh, unsub := events.Subscribe[events.RunNow](bus, 10)
	defer unsub()

	for range 10 {
		require.NoError(t, bus.Publish(context.Background(), events.ValidationRequested{Source: "watch", Reason: "test"}))
	}

	select {
	case <-runNowCh:
		t.Fatal("expected no RunNow while a run is active")
	case <-time.After(100 * time.Millisecond):
		// ok
	}

	active.Store(false)

	select {
	case got := <-runNowCh:
		require.Equal(t, "after_running", got.DebounceCause)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for follow-up RunNow")
	}

	select {
	case <-runNowCh:
		t.Fatal("expected exactly one follow-up RunNow")
	case <-time.After(75 * time.Millisecond):
		// ok
	}
}

func TestRunDebouncer_ImmediateBypassesQuietWindow(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	var active atomic.Bool
	startDebouncer(t, bus, RunDebouncerConfig{
		QuietWindow:    200 * time.Millisecond,
		MaxDelay:       500 * time.Millisecond,
		CheckRunActive: active.Load,
		PollInterval:   10 * time.Millisecond,
	})

	runNowCh, unsub := events.Subscribe[events.RunNow](bus, 10)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), events.ValidationRequested{Source: "webhook", Reason: "push", Immediate: true}))

	select {
	case got := <-runNowCh:
		require.Equal(t, "immediate", got.DebounceCause)
		require.Equal(t, "webhook", got.LastSource)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for immediate RunNow")
	}
}

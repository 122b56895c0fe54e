package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// UpdateHub pushes run completion notices to connected HTTP clients over
// Server-Sent Events. Authoring tools subscribe to refresh their view when
// the daemon finishes a validation run.
type UpdateHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	closed  bool
}

// NewUpdateHub creates an empty hub.
func NewUpdateHub() *UpdateHub {
	return &UpdateHub{
		clients: make(map[chan []byte]struct{}),
	}
}

// Run subscribes to run completions on the bus and broadcasts them until
// the context is canceled.
func (h *UpdateHub) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.RunFinished](bus, 16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(evt)
		}
	}
}

func (h *UpdateHub) broadcast(evt events.RunFinished) {
	payload, err := json.Marshal(map[string]any{
		"run_id":       evt.RunID,
		"status":       evt.Status,
		"stage":        evt.Stage,
		"lesson_count": evt.LessonCount,
		"duration_ms":  evt.Duration.Milliseconds(),
		"finished_at":  evt.FinishedAt.Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("Failed to marshal update notification", logfields.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// Slow client, drop this notice rather than block the bus.
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *UpdateHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects all clients.
func (h *UpdateHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// ServeHTTP implements the SSE endpoint.
func (h *UpdateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ch := make(chan []byte, 8)
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, live := h.clients[ch]; live {
			delete(h.clients, ch)
			close(ch)
		}
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: run\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
	smw "git.home.luguber.info/inful/coursebuilder/internal/server/middleware"
)

// APIServer exposes the daemon's public surface: run status and history,
// the current manifest, push webhooks, manual triggers, and the SSE
// update stream.
type APIServer struct {
	config       *config.Config
	daemon       *Daemon
	server       *http.Server
	errorAdapter *ferrors.HTTPErrorAdapter
	mchain       func(http.Handler) http.Handler
	webhook      *WebhookHandler
}

// NewAPIServer creates the API server. Start binds the port.
func NewAPIServer(cfg *config.Config, daemon *Daemon) *APIServer {
	adapter := ferrors.NewHTTPErrorAdapter(slog.Default())
	return &APIServer{
		config:       cfg,
		daemon:       daemon,
		errorAdapter: adapter,
		mchain:       smw.Chain(slog.Default(), adapter),
		webhook:      NewWebhookHandler(cfg, daemon),
	}
}

// Start binds the API port and begins serving. The port is bound before
// the serve goroutine starts so startup failures surface immediately.
func (s *APIServer) Start(ctx context.Context) error {
	port := s.config.Daemon.HTTP.APIPort
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("api port %d: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRunByID)
	mux.HandleFunc("/api/manifest", s.handleManifest)
	mux.HandleFunc("/api/lessons", s.handleLessons)
	mux.HandleFunc("/api/trigger", s.handleTrigger)
	mux.Handle("/api/updates", s.daemon.updateHub)
	mux.Handle("/webhook", s.webhook)

	s.server = &http.Server{
		Handler:           s.mchain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("API server listening", slog.Int("port", port))
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", logfields.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server.
func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

type statusResponse struct {
	Status      string     `json:"status"`
	Course      string     `json:"course"`
	UptimeSec   int64      `json:"uptime_seconds"`
	ActiveRuns  int        `json:"active_runs"`
	QueuedRuns  int        `json:"queued_runs"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	LastRunOK   *bool      `json:"last_run_ok,omitempty"`
	SSEClients  int        `json:"sse_clients"`
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	resp := statusResponse{
		Status:     string(s.daemon.GetStatus()),
		Course:     s.daemon.GetConfig().Course.Name,
		UptimeSec:  int64(time.Since(s.daemon.GetStartTime()).Seconds()),
		ActiveRuns: s.daemon.runQueue.ActiveCount(),
		QueuedRuns: s.daemon.runQueue.Length(),
		SSEClients: s.daemon.updateHub.ClientCount(),
	}

	if p := s.daemon.GetRunProjection(); p != nil {
		if t := p.LastSyncTime(); !t.IsZero() {
			resp.LastSync = &t
		}
		if last := p.GetLastCompletedRun(); last != nil {
			resp.LastRunID = last.RunID
			ok := last.Status != "failed"
			resp.LastRunOK = &ok
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	p := s.daemon.GetRunProjection()
	if p == nil {
		s.errorAdapter.WriteErrorResponse(w, r, ferrors.DaemonError("run history unavailable").Build())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": p.GetHistory()})
}

func (s *APIServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		s.errorAdapter.WriteErrorResponse(w, r, ferrors.ValidationError("invalid run id").Build())
		return
	}

	p := s.daemon.GetRunProjection()
	if p == nil {
		s.errorAdapter.WriteErrorResponse(w, r, ferrors.DaemonError("run history unavailable").Build())
		return
	}

	run, found := p.GetRun(runID)
	if !found {
		s.errorAdapter.WriteErrorResponse(w, r, ferrors.NotFoundError("run not found").
			WithContext("run_id", runID).
			Build())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleManifest serves the manifest from the latest bundle.
func (s *APIServer) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	m, err := s.loadCurrentManifest()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleLessons serves the lesson entries of the latest manifest.
func (s *APIServer) handleLessons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	m, err := s.loadCurrentManifest()
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"course":  m.Course,
		"totals":  m.Totals,
		"lessons": m.Lessons,
	})
}

func (s *APIServer) loadCurrentManifest() (*manifest.CourseManifest, error) {
	outputDir := s.daemon.GetConfig().Output.Directory
	if outputDir == "" {
		outputDir = "./bundle"
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NotFoundError("no bundle has been produced yet").
				WithContext("action", "trigger a validation run first").
				UserAction().
				Build()
		}
		return nil, ferrors.FileSystemError("failed to read manifest").WithCause(err).Build()
	}

	return manifest.FromJSON(data)
}

type triggerRequest struct {
	Reason    string `json:"reason,omitempty"`
	Immediate bool   `json:"immediate,omitempty"`
}

func (s *APIServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req triggerRequest
	if r.Body != nil {
		// Empty bodies are fine: trigger with defaults.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			s.errorAdapter.WriteErrorResponse(w, r, ferrors.ValidationError("invalid trigger request body").
				WithCause(err).
				Build())
			return
		}
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual API trigger"
	}

	s.daemon.TriggerRun("manual", reason, req.Immediate)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"reason": reason,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", logfields.Error(err))
	}
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

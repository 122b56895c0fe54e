package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/metrics"
	smw "git.home.luguber.info/inful/coursebuilder/internal/server/middleware"
)

// AdminServer exposes operational endpoints on a separate port: liveness,
// readiness, and Prometheus metrics. Keeping these off the API port lets
// deployments firewall the public surface without losing probes.
type AdminServer struct {
	config *config.Config
	daemon *Daemon
	server *http.Server
	mchain func(http.Handler) http.Handler
}

// NewAdminServer creates the admin server. Start binds the port.
func NewAdminServer(cfg *config.Config, daemon *Daemon) *AdminServer {
	adapter := ferrors.NewHTTPErrorAdapter(slog.Default())
	return &AdminServer{
		config: cfg,
		daemon: daemon,
		mchain: smw.Chain(slog.Default(), adapter),
	}
}

// Start binds the admin port and begins serving.
func (s *AdminServer) Start(ctx context.Context) error {
	port := s.config.Daemon.HTTP.AdminPort
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("admin port %d: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)

	if s.daemon.registry != nil {
		path := "/metrics"
		if s.config.Monitoring != nil && s.config.Monitoring.Metrics.Path != "" {
			path = s.config.Monitoring.Metrics.Path
		}
		mux.Handle(path, metrics.HTTPHandler(s.daemon.registry))
		slog.Info("Metrics endpoint enabled", logfields.Path(path), slog.Int("port", port))
	}

	s.server = &http.Server{
		Handler:           s.mchain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Admin server listening", slog.Int("port", port))
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Admin server error", logfields.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the admin server.
func (s *AdminServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// handleHealthz reports process liveness.
func (s *AdminServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports whether the daemon is ready to accept triggers.
func (s *AdminServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.GetStatus()
	if status != StatusRunning {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"daemon": string(status),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

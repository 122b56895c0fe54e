package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// WebhookHandler accepts push notifications from Git forges (GitHub,
// GitLab, Gitea all send a compatible shape) and requests a validation
// run when the push touches a configured content repository.
type WebhookHandler struct {
	config       *config.Config
	daemon       *Daemon
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewWebhookHandler constructs the push webhook handler.
func NewWebhookHandler(cfg *config.Config, daemon *Daemon) *WebhookHandler {
	return &WebhookHandler{
		config:       cfg,
		daemon:       daemon,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// pushPayload is the common subset of forge push event payloads.
type pushPayload struct {
	Ref        string `json:"ref"` // refs/heads/<branch>
	Repository struct {
		FullName string `json:"full_name"`
		CloneURL string `json:"clone_url"`
		SSHURL   string `json:"ssh_url"`
		HTMLURL  string `json:"html_url"`
		URL      string `json:"url"`
	} `json:"repository"`
}

func (p *pushPayload) branch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// urls returns every URL variant the payload offers for matching.
func (p *pushPayload) urls() []string {
	var out []string
	for _, u := range []string{p.Repository.CloneURL, p.Repository.SSHURL, p.Repository.HTMLURL, p.Repository.URL} {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		derr := ferrors.ValidationError("invalid JSON payload").
			WithContext("content_type", r.Header.Get("Content-Type")).
			WithCause(err).
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, derr)
		return
	}

	repo, matched := h.matchRepository(&payload)
	if !matched {
		// Unknown repository: acknowledge without triggering so forges
		// don't retry, but make the mismatch visible.
		slog.Info("Webhook for unconfigured repository ignored",
			slog.String("full_name", payload.Repository.FullName),
			logfields.URL(payload.Repository.CloneURL))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	branch := payload.branch()
	if repo.Branch != "" && branch != "" && branch != repo.Branch {
		slog.Debug("Webhook push for non-tracked branch ignored",
			logfields.Repository(repo.Name),
			slog.String("branch", branch))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	immediate := h.config.Daemon.Debounce.IsWebhookImmediate()
	h.daemon.TriggerRun("webhook", fmt.Sprintf("push to %s", repo.Name), immediate)

	slog.Info("Webhook push accepted",
		logfields.Repository(repo.Name),
		slog.String("branch", branch),
		slog.Bool("immediate", immediate))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"repository": repo.Name,
		"timestamp":  time.Now().UTC(),
	})
}

// matchRepository finds the configured repository a push belongs to.
// URLs are compared loosely: scheme and .git suffix differences between
// the forge payload and the config should not break matching.
func (h *WebhookHandler) matchRepository(payload *pushPayload) (*config.Repository, bool) {
	repos := h.daemon.GetConfig().Repositories
	for i := range repos {
		for _, u := range payload.urls() {
			if repoURLsEqual(repos[i].URL, u) {
				return &repos[i], true
			}
		}
	}
	return nil, false
}

func repoURLsEqual(a, b string) bool {
	return normalizeRepoURL(a) == normalizeRepoURL(b)
}

func normalizeRepoURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	u = strings.TrimSuffix(u, ".git")
	u = strings.TrimSuffix(u, "/")
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		u = strings.TrimPrefix(u, prefix)
	}
	// git@host:org/repo -> host/org/repo
	if at := strings.Index(u, "@"); at >= 0 {
		u = u[at+1:]
		u = strings.Replace(u, ":", "/", 1)
	}
	return u
}

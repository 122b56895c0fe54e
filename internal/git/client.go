package git

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	appcfg "git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Client runs Git operations against the sync workspace. Configure it via
// the With* helpers before first use; the zero retry guard makes the
// public entry points wrap themselves in the retry policy exactly once.
type Client struct {
	workspaceDir string
	syncCfg      *appcfg.SyncConfig // depth, retries, divergence policy
	progress     io.Writer          // clone progress sink, nil suppresses output
	inRetry      bool
}

// NewClient creates a Git client rooted at workspaceDir.
func NewClient(workspaceDir string) *Client { return &Client{workspaceDir: workspaceDir} }

// WithSyncConfig attaches sync tuning to the client (fluent helper).
func (c *Client) WithSyncConfig(cfg *appcfg.SyncConfig) *Client { c.syncCfg = cfg; return c }

// WithProgress directs clone/fetch progress output to w.
func (c *Client) WithProgress(w io.Writer) *Client { c.progress = w; return c }

// CloneRepository clones a repository into the workspace, replacing any
// previous checkout, honoring the configured retry policy.
func (c *Client) CloneRepository(repo appcfg.Repository) (string, error) {
	if c.inRetry {
		return c.cloneOnce(repo)
	}
	return c.withRetry("clone", repo.Name, func() (string, error) { return c.cloneOnce(repo) })
}

// UpdateRepository refreshes an existing checkout, or clones when the
// workspace has none, honoring the configured retry policy.
func (c *Client) UpdateRepository(repo appcfg.Repository) (string, error) {
	if c.inRetry {
		return c.updateOnce(repo)
	}
	return c.withRetry("update", repo.Name, func() (string, error) { return c.updateOnce(repo) })
}

func (c *Client) repoPath(repo appcfg.Repository) string {
	return filepath.Join(c.workspaceDir, repo.Name)
}

func (c *Client) cloneOnce(repo appcfg.Repository) (string, error) {
	repoPath := c.repoPath(repo)
	slog.Debug("Cloning repository",
		logfields.URL(repo.URL), logfields.Name(repo.Name),
		slog.String("branch", repo.Branch), logfields.Path(repoPath))

	// A stale checkout at the target path is discarded, not reused.
	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts, err := c.cloneOptions(repo)
	if err != nil {
		return "", err
	}
	repository, err := git.PlainClone(repoPath, false, opts)
	if err != nil {
		return "", classifyCloneError(repo.URL, err)
	}

	attrs := []any{logfields.Name(repo.Name), logfields.URL(repo.URL), logfields.Path(repoPath)}
	if ref, herr := repository.Head(); herr == nil {
		attrs = append(attrs, slog.String("commit", shortHash(ref.Hash())))
	}
	slog.Info("Repository cloned", attrs...)
	return repoPath, nil
}

func (c *Client) cloneOptions(repo appcfg.Repository) (*git.CloneOptions, error) {
	opts := &git.CloneOptions{URL: repo.URL, Progress: c.progress}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		opts.SingleBranch = true
	}
	if c.syncCfg != nil && c.syncCfg.ShallowDepth > 0 {
		opts.Depth = c.syncCfg.ShallowDepth
	}
	if repo.Auth != nil {
		auth, err := c.getAuthentication(repo.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to setup authentication: %w", err)
		}
		opts.Auth = auth
	}
	return opts, nil
}

func (c *Client) updateOnce(repo appcfg.Repository) (string, error) {
	repoPath := c.repoPath(repo)
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		slog.Debug("Repository missing, cloning", logfields.Name(repo.Name))
		return c.cloneOnce(repo)
	}
	return c.refreshClone(repoPath, repo)
}

// Message fragments that identify known clone failure modes. go-git does
// not expose typed errors for these, so the text is the only signal.
var cloneFailureMarkers = []struct {
	markers []string
	wrap    func(url string, err error) error
}{
	{[]string{"authentication", "auth fail", "invalid username or password"},
		func(url string, err error) error { return &AuthError{Op: "clone", URL: url, Err: err} }},
	{[]string{"not found", "repository does not exist"},
		func(url string, err error) error { return &NotFoundError{Op: "clone", URL: url, Err: err} }},
	{[]string{"unsupported protocol", "protocol not supported"},
		func(url string, err error) error { return &UnsupportedProtocolError{Op: "clone", URL: url, Err: err} }},
	{[]string{"rate limit", "too many requests"},
		func(url string, err error) error { return &RateLimitError{Op: "clone", URL: url, Err: err} }},
	{[]string{"timeout", "i/o timeout"},
		func(url string, err error) error { return &NetworkTimeoutError{Op: "clone", URL: url, Err: err} }},
}

// classifyCloneError converts raw go-git clone failures into typed errors
// so callers can decide retryability without string parsing.
func classifyCloneError(url string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, class := range cloneFailureMarkers {
		for _, marker := range class.markers {
			if strings.Contains(msg, marker) {
				return class.wrap(url, err)
			}
		}
	}
	return fmt.Errorf("failed to clone repository %s: %w", url, err)
}

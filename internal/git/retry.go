package git

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	appcfg "git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/retry"
)

// Rate-limited remotes need a longer cool-down than the base backoff.
const rateLimitDelayFactor = 3.0

// withRetry reruns an operation until it succeeds, fails permanently,
// or exhausts the configured retry budget. With no sync config the
// operation runs exactly once.
func (c *Client) withRetry(op, repoName string, fn func() (string, error)) (string, error) {
	if c.syncCfg == nil || c.syncCfg.MaxRetries <= 0 {
		return fn()
	}
	policy := c.retryPolicy()

	var lastErr error
	for attempt := 0; attempt <= c.syncCfg.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying git operation",
				slog.String("operation", op),
				logfields.Name(repoName),
				slog.Int("attempt", attempt))
		}
		c.inRetry = true
		path, err := fn()
		c.inRetry = false
		if err == nil {
			return path, nil
		}
		lastErr = err
		if isPermanentGitError(err) {
			slog.Error("Giving up on git operation",
				slog.String("operation", op),
				logfields.Name(repoName),
				logfields.Error(err))
			return "", err
		}
		if attempt < c.syncCfg.MaxRetries {
			time.Sleep(retryDelay(policy, attempt+1, err))
		}
	}
	return "", fmt.Errorf("git %s failed after %d retries: %w", op, c.syncCfg.MaxRetries, lastErr)
}

func (c *Client) retryPolicy() retry.Policy {
	parse := func(s string, fallback time.Duration) time.Duration {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
		return fallback
	}
	return retry.NewPolicy(
		appcfg.NormalizeRetryBackoff(string(c.syncCfg.RetryBackoff)),
		parse(c.syncCfg.RetryInitialDelay, 500*time.Millisecond),
		parse(c.syncCfg.RetryMaxDelay, 10*time.Second),
		c.syncCfg.MaxRetries,
	)
}

// retryDelay scales the policy delay for error classes that deserve a
// longer wait before the next attempt.
func retryDelay(policy retry.Policy, attempt int, err error) time.Duration {
	d := policy.Delay(attempt)
	if errors.As(err, new(*RateLimitError)) {
		d = time.Duration(float64(d) * rateLimitDelayFactor)
	}
	return d
}

// isPermanentGitError decides retryability. Typed errors carry the
// decision directly; untyped go-git errors fall back to message
// markers.
func isPermanentGitError(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.As(err, new(*AuthError)),
		errors.As(err, new(*NotFoundError)),
		errors.As(err, new(*UnsupportedProtocolError)),
		errors.As(err, new(*RemoteDivergedError)):
		return true
	case errors.As(err, new(*RateLimitError)),
		errors.As(err, new(*NetworkTimeoutError)):
		return false
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"auth", "permission", "denied",
		"not found", "no such remote", "invalid reference",
		"unsupported protocol",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

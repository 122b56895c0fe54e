package git

import (
	"strings"

	"git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors for
// reporting layers that want category/retry metadata instead of typed errors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}

	// Already classified
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())

	var builder *errors.ErrorBuilder
	switch {
	case strings.Contains(l, "authentication failed") || strings.Contains(l, "not authorized") || strings.Contains(l, "could not read username") || strings.Contains(l, "invalid credentials"):
		builder = errors.AuthError("git authentication failed")
	case strings.Contains(l, "repository not found") || strings.Contains(l, "not found") || strings.Contains(l, "does not exist"):
		builder = errors.NotFoundError("git repository not found")
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		builder = errors.NetworkError("git remote rate limited").WithRetry(errors.RetryRateLimit)
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout") || strings.Contains(l, "no route to host"):
		builder = errors.NetworkError("git network failure")
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		builder = errors.ConfigError("git unsupported protocol")
	case strings.Contains(l, "diverged") || strings.Contains(l, "non-fast-forward"):
		builder = errors.GitError("git branch diverged").WithRetry(errors.RetryNever).WithContext("diverged", true)
	default:
		builder = errors.GitError("git operation failed")
	}

	return builder.
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url).
		Build()
}

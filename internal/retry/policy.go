// Package retry holds the backoff policy the git layer applies to
// transient sync failures.
package retry

import (
	"errors"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// Policy describes how long to wait between retry attempts. Values are
// fixed at construction.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultPolicy is linear backoff: 1s, 2s, capped at 30s, two retries
// after the first failure.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy builds a policy from config values. Zero or invalid fields
// keep their defaults so a partially filled sync config still yields a
// usable policy.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()

	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before the given retry. Retries count from 1;
// zero or negative means no wait.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		d = p.Initial << (attempt - 1)
		if d < p.Initial { // shift overflow
			d = p.Max
		}
	default:
		d = time.Duration(attempt) * p.Initial
	}

	if d > p.Max {
		return p.Max
	}
	return d
}

// Validate reports whether the policy can actually be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return errors.New("initial delay must be positive")
	}
	if p.Max <= 0 {
		return errors.New("max delay must be positive")
	}
	if p.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	return nil
}

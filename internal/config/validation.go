package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateCourse(); err != nil {
		return err
	}
	if err := cv.validateRepositories(); err != nil {
		return err
	}
	if err := cv.validateLint(); err != nil {
		return err
	}
	if err := cv.validateLinkcheck(); err != nil {
		return err
	}
	if err := cv.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// validateCourse ensures the content source is usable.
func (cv *configurationValidator) validateCourse() error {
	if cv.config.Course.ContentDir == "" && len(cv.config.Repositories) == 0 {
		return errors.New("either course.content_dir or repositories must be configured")
	}
	return nil
}

// validateRepositories validates repository-specific configuration.
func (cv *configurationValidator) validateRepositories() error {
	names := make(map[string]bool)
	for _, repo := range cv.config.Repositories {
		if repo.Name == "" {
			return errors.New("repository name cannot be empty")
		}
		if names[repo.Name] {
			return fmt.Errorf("duplicate repository name: %s", repo.Name)
		}
		names[repo.Name] = true

		if repo.URL == "" {
			return fmt.Errorf("repository %s: url cannot be empty", repo.Name)
		}

		if repo.Auth != nil {
			if err := cv.validateRepoAuth(repo); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateRepoAuth validates repository authentication configuration.
func (cv *configurationValidator) validateRepoAuth(repo Repository) error {
	switch repo.Auth.Type {
	case AuthTypeToken, AuthTypeSSH, AuthTypeBasic, AuthTypeNone, "":
		// Valid auth type
	default:
		return fmt.Errorf("repository %s: unsupported auth type: %s", repo.Name, repo.Auth.Type)
	}

	if repo.Auth.Type == AuthTypeBasic {
		if repo.Auth.Username == "" || repo.Auth.Password == "" {
			return fmt.Errorf("repository %s: basic auth requires username and password", repo.Name)
		}
	}

	return nil
}

// validateLint validates lint tuning options.
func (cv *configurationValidator) validateLint() error {
	if cv.config.Lint.DefaultPoints != nil && *cv.config.Lint.DefaultPoints < 0 {
		return fmt.Errorf("lint.default_points cannot be negative: %v", *cv.config.Lint.DefaultPoints)
	}

	for _, lang := range cv.config.Lint.ExtraLanguages {
		if strings.TrimSpace(lang) == "" {
			return errors.New("lint.extra_languages entries cannot be empty")
		}
	}

	for rule, raw := range cv.config.Lint.Severity {
		if NormalizeSeverityLevel(raw) == "" {
			return fmt.Errorf("lint.severity[%s]: invalid level %q (allowed: error|warning|info|off)", rule, raw)
		}
	}

	return nil
}

// validateLinkcheck validates link verification settings.
func (cv *configurationValidator) validateLinkcheck() error {
	lc := cv.config.Linkcheck
	if lc == nil {
		return nil
	}

	for field, raw := range map[string]string{
		"linkcheck.cache_ttl":          lc.CacheTTL,
		"linkcheck.cache_ttl_failures": lc.CacheTTLFailures,
		"linkcheck.request_timeout":    lc.RequestTimeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s: %s: %w", field, raw, err)
		}
	}

	if lc.MaxConcurrent < 0 {
		return fmt.Errorf("linkcheck.max_concurrent cannot be negative: %d", lc.MaxConcurrent)
	}
	if lc.MaxRedirects < 0 {
		return fmt.Errorf("linkcheck.max_redirects cannot be negative: %d", lc.MaxRedirects)
	}

	return nil
}

// validateDaemon validates daemon configuration.
func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon
	if d == nil {
		return nil
	}

	for name, port := range map[string]int{
		"daemon.http.api_port":   d.HTTP.APIPort,
		"daemon.http.admin_port": d.HTTP.AdminPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s out of range: %d", name, port)
		}
	}
	if d.HTTP.APIPort == d.HTTP.AdminPort {
		return fmt.Errorf("daemon.http.api_port and admin_port must differ (both %d)", d.HTTP.APIPort)
	}

	if err := cv.validateSyncSchedule(d.Sync.Schedule); err != nil {
		return err
	}
	if d.Sync.ConcurrentRuns < 1 {
		return fmt.Errorf("daemon.sync.concurrent_runs must be positive: %d", d.Sync.ConcurrentRuns)
	}
	if d.Sync.QueueSize < 1 {
		return fmt.Errorf("daemon.sync.queue_size must be positive: %d", d.Sync.QueueSize)
	}

	if err := cv.validateDebounce(d.Debounce); err != nil {
		return err
	}

	return nil
}

// validateSyncSchedule checks the shape of the cron expression.
// Full parsing is left to the scheduler at daemon start.
func (cv *configurationValidator) validateSyncSchedule(schedule string) error {
	trimmed := strings.TrimSpace(schedule)
	if trimmed == "" {
		return errors.New("daemon.sync.schedule cannot be empty")
	}
	if fields := strings.Fields(trimmed); len(fields) != 5 {
		return fmt.Errorf("daemon.sync.schedule must be a 5-field cron expression, got %q", schedule)
	}
	return nil
}

// validateDebounce validates debounce durations and their relationship.
func (cv *configurationValidator) validateDebounce(d *DebounceConfig) error {
	if d == nil {
		return nil
	}

	quiet, err := time.ParseDuration(d.QuietWindow)
	if err != nil {
		return fmt.Errorf("invalid daemon.debounce.quiet_window: %s: %w", d.QuietWindow, err)
	}
	maxDelay, err := time.ParseDuration(d.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid daemon.debounce.max_delay: %s: %w", d.MaxDelay, err)
	}

	if quiet <= 0 {
		return fmt.Errorf("daemon.debounce.quiet_window must be positive: %s", d.QuietWindow)
	}
	if maxDelay < quiet {
		return fmt.Errorf("daemon.debounce.max_delay (%s) must be >= quiet_window (%s)", d.MaxDelay, d.QuietWindow)
	}

	return nil
}

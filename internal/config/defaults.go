package config

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/coursebuilder/internal/slug"
)

const (
	defaultDebounceQuiet    = "2s"
	defaultDebounceMaxDelay = "15s"
	defaultContentDir       = "./content"
	defaultOutputDir        = "./bundle"
	defaultDataDir          = "./coursebuilder-data"
	defaultSyncSchedule     = "0 */4 * * *" // every 4 hours
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&CourseDefaultApplier{},
			&RepositoryDefaultApplier{},
			&LintDefaultApplier{},
			&LinkcheckDefaultApplier{},
			&DaemonDefaultApplier{},
			&MonitoringDefaultApplier{},
			&OutputDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) DefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// CourseDefaultApplier handles Course configuration defaults.
type CourseDefaultApplier struct{}

func (a *CourseDefaultApplier) Domain() string { return "course" }

func (a *CourseDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Course.Name == "" {
		cfg.Course.Name = "Untitled Course"
	}
	if cfg.Course.Slug == "" {
		cfg.Course.Slug = slug.Make(cfg.Course.Name)
	}
	// Local content by default; repository mode fetches into the cache dir instead.
	if cfg.Course.ContentDir == "" && len(cfg.Repositories) == 0 {
		cfg.Course.ContentDir = defaultContentDir
	}
	return nil
}

// RepositoryDefaultApplier handles Repository configuration defaults.
type RepositoryDefaultApplier struct{}

func (a *RepositoryDefaultApplier) Domain() string { return "repositories" }

func (a *RepositoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Repositories {
		if len(cfg.Repositories[i].Paths) == 0 {
			cfg.Repositories[i].Paths = []string{"lessons"}
		}
		if cfg.Repositories[i].Branch == "" {
			cfg.Repositories[i].Branch = "main"
		}
	}
	return nil
}

// LintDefaultApplier handles Lint configuration defaults.
type LintDefaultApplier struct{}

func (a *LintDefaultApplier) Domain() string { return "lint" }

func (a *LintDefaultApplier) ApplyDefaults(cfg *Config) error {
	for rule, raw := range cfg.Lint.Severity {
		norm := NormalizeSeverityLevel(raw)
		if norm != "" {
			cfg.Lint.Severity[rule] = string(norm)
		}
		// Preserve invalid values so validation can raise an error
	}
	return nil
}

// LinkcheckDefaultApplier handles Linkcheck configuration defaults.
type LinkcheckDefaultApplier struct{}

func (a *LinkcheckDefaultApplier) Domain() string { return "linkcheck" }

func (a *LinkcheckDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Linkcheck == nil {
		return nil
	}
	lc := cfg.Linkcheck
	if lc.NATSURL == "" {
		lc.NATSURL = "nats://localhost:4222"
	}
	if lc.Subject == "" {
		lc.Subject = "coursebuilder.links.broken"
	}
	if lc.KVBucket == "" {
		lc.KVBucket = "coursebuilder-link-cache"
	}
	if lc.CacheTTL == "" {
		lc.CacheTTL = "24h"
	}
	if lc.CacheTTLFailures == "" {
		lc.CacheTTLFailures = "1h"
	}
	if lc.MaxConcurrent == 0 {
		lc.MaxConcurrent = 10
	}
	if lc.RequestTimeout == "" {
		lc.RequestTimeout = "10s"
	}
	if lc.MaxRedirects == 0 {
		lc.MaxRedirects = 3
	}
	if lc.RateLimitDelay == "" {
		lc.RateLimitDelay = "100ms"
	}
	return nil
}

// DaemonDefaultApplier handles Daemon configuration defaults.
type DaemonDefaultApplier struct{}

func (a *DaemonDefaultApplier) Domain() string { return "daemon" }

func (a *DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon == nil {
		return nil // No daemon config to apply defaults to
	}
	d := cfg.Daemon

	if d.HTTP.APIPort == 0 {
		d.HTTP.APIPort = 8080
	}
	if d.HTTP.AdminPort == 0 {
		d.HTTP.AdminPort = 8081
	}

	if d.Sync.Schedule == "" {
		d.Sync.Schedule = defaultSyncSchedule
	}
	if d.Sync.ConcurrentRuns == 0 {
		d.Sync.ConcurrentRuns = 2
	}
	if d.Sync.QueueSize == 0 {
		d.Sync.QueueSize = 50
	}
	if d.Sync.MaxRetries == 0 {
		d.Sync.MaxRetries = 3
	}
	if d.Sync.RetryBackoff == "" {
		d.Sync.RetryBackoff = RetryBackoffLinear
	}
	if d.Sync.RetryInitialDelay == "" {
		d.Sync.RetryInitialDelay = "500ms"
	}
	if d.Sync.RetryMaxDelay == "" {
		d.Sync.RetryMaxDelay = "10s"
	}

	if d.Storage.DataDir == "" {
		d.Storage.DataDir = defaultDataDir
	}
	if d.Storage.RepoCacheDir == "" {
		d.Storage.RepoCacheDir = filepath.Join(d.Storage.DataDir, "repositories")
	}
	if d.Storage.EventsDB == "" {
		d.Storage.EventsDB = filepath.Join(d.Storage.DataDir, "events.db")
	}

	if d.Watch == nil {
		d.Watch = &WatchConfig{}
	}
	if len(d.Watch.Paths) == 0 && cfg.Course.ContentDir != "" {
		d.Watch.Paths = []string{cfg.Course.ContentDir}
	}

	if d.Debounce == nil {
		d.Debounce = &DebounceConfig{}
	}
	if d.Debounce.QuietWindow == "" {
		d.Debounce.QuietWindow = defaultDebounceQuiet
	}
	if d.Debounce.MaxDelay == "" {
		d.Debounce.MaxDelay = defaultDebounceMaxDelay
	}
	if d.Debounce.WebhookImmediate == nil {
		v := true
		d.Debounce.WebhookImmediate = &v
	}

	return nil
}

// MonitoringDefaultApplier handles Monitoring configuration defaults.
type MonitoringDefaultApplier struct{}

func (a *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (a *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring == nil {
		cfg.Monitoring = &MonitoringConfig{}
	}

	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	} else {
		cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	} else {
		cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
	}

	return nil
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (a *OutputDefaultApplier) Domain() string { return "output" }

func (a *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	return nil
}

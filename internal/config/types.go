package config

import (
	"strings"
	"time"
)

// Config represents the full coursebuilder configuration.
type Config struct {
	Version      string            `yaml:"version,omitempty"`
	Course       CourseConfig      `yaml:"course"`
	Repositories []Repository      `yaml:"repositories,omitempty"`
	Lint         LintConfig        `yaml:"lint,omitempty"`
	Linkcheck    *LinkcheckConfig  `yaml:"linkcheck,omitempty"`
	Daemon       *DaemonConfig     `yaml:"daemon,omitempty"`
	Monitoring   *MonitoringConfig `yaml:"monitoring,omitempty"`
	Output       OutputConfig      `yaml:"output"`
}

// CourseConfig identifies the course and where its content lives.
type CourseConfig struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug,omitempty"`
	Description string `yaml:"description,omitempty"`
	// ContentDir is the local lesson root. Used directly in local mode and as
	// the default watch path in daemon mode. When repositories are configured,
	// content is fetched into the daemon's repo cache instead.
	ContentDir string `yaml:"content_dir,omitempty"`
}

// Repository represents a Git repository holding course content.
type Repository struct {
	URL    string            `yaml:"url"`
	Name   string            `yaml:"name"`
	Branch string            `yaml:"branch,omitempty"`
	Auth   *AuthConfig       `yaml:"auth,omitempty"`
	Paths  []string          `yaml:"paths,omitempty"` // Lesson roots inside the repo, defaults to ["lessons"]
	Tags   map[string]string `yaml:"tags,omitempty"`  // Additional metadata
}

// AuthType enumerates supported authentication methods (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // ssh|token|basic|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// IsZero reports whether no auth method is specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// LintConfig tunes the lint rules.
type LintConfig struct {
	// DefaultPoints is assigned to quizzes without an explicit points
	// attribute. nil means 1.
	DefaultPoints *float64 `yaml:"default_points,omitempty"`
	// ExtraLanguages extends the recognized fence language set.
	ExtraLanguages []string `yaml:"extra_languages,omitempty"`
	// Severity overrides per rule name: error|warning|info|off.
	Severity map[string]string `yaml:"severity,omitempty"`
}

// EffectiveDefaultPoints returns the configured default point value, or 1.
func (l LintConfig) EffectiveDefaultPoints() float64 {
	if l.DefaultPoints == nil {
		return 1
	}
	return *l.DefaultPoints
}

// SeverityLevel enumerates lint severity override values.
type SeverityLevel string

const (
	SeverityOverrideError   SeverityLevel = "error"
	SeverityOverrideWarning SeverityLevel = "warning"
	SeverityOverrideInfo    SeverityLevel = "info"
	SeverityOverrideOff     SeverityLevel = "off"
)

// NormalizeSeverityLevel canonicalizes user input returning empty string if unknown.
func NormalizeSeverityLevel(raw string) SeverityLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SeverityOverrideError):
		return SeverityOverrideError
	case string(SeverityOverrideWarning):
		return SeverityOverrideWarning
	case string(SeverityOverrideInfo):
		return SeverityOverrideInfo
	case string(SeverityOverrideOff):
		return SeverityOverrideOff
	default:
		return ""
	}
}

// LinkcheckConfig configures external link verification.
type LinkcheckConfig struct {
	Enabled          *bool  `yaml:"enabled,omitempty"` // nil means enabled when the section is present
	NATSURL          string `yaml:"nats_url,omitempty"`
	Subject          string `yaml:"subject,omitempty"`
	KVBucket         string `yaml:"kv_bucket,omitempty"`
	CacheTTL         string `yaml:"cache_ttl,omitempty"`
	CacheTTLFailures string `yaml:"cache_ttl_failures,omitempty"`
	MaxConcurrent    int    `yaml:"max_concurrent,omitempty"`
	RequestTimeout   string `yaml:"request_timeout,omitempty"`
	RateLimitDelay   string `yaml:"rate_limit_delay,omitempty"` // pause between lessons
	ExternalOnly     bool   `yaml:"external_only,omitempty"`
	FollowRedirects  *bool  `yaml:"follow_redirects,omitempty"` // nil means true
	MaxRedirects     int    `yaml:"max_redirects,omitempty"`
}

// IsEnabled reports whether link checking should run.
func (l *LinkcheckConfig) IsEnabled() bool {
	if l == nil {
		return false
	}
	if l.Enabled == nil {
		return true
	}
	return *l.Enabled
}

// ShouldFollowRedirects reports whether the verifier follows HTTP redirects.
func (l *LinkcheckConfig) ShouldFollowRedirects() bool {
	if l == nil || l.FollowRedirects == nil {
		return true
	}
	return *l.FollowRedirects
}

// DaemonConfig represents daemon-specific configuration.
type DaemonConfig struct {
	HTTP     HTTPConfig      `yaml:"http,omitempty"`
	Sync     SyncConfig      `yaml:"sync,omitempty"`
	Storage  StorageConfig   `yaml:"storage,omitempty"`
	Watch    *WatchConfig    `yaml:"watch,omitempty"`
	Debounce *DebounceConfig `yaml:"debounce,omitempty"`
}

// HTTPConfig represents HTTP server configuration.
type HTTPConfig struct {
	APIPort   int `yaml:"api_port,omitempty"`   // Status/runs/manifest/webhook endpoints
	AdminPort int `yaml:"admin_port,omitempty"` // healthz/readyz/metrics endpoints
}

// SyncConfig represents periodic repository synchronization configuration.
type SyncConfig struct {
	Schedule       string `yaml:"schedule,omitempty"`        // Cron expression for repo sync
	ConcurrentRuns int    `yaml:"concurrent_runs,omitempty"` // Max parallel validation runs
	QueueSize      int    `yaml:"queue_size,omitempty"`      // Max queued run requests

	// Git fetch tuning.
	ShallowDepth       int              `yaml:"shallow_depth,omitempty"`         // 0 means full clone
	HardResetOnDiverge bool             `yaml:"hard_reset_on_diverge,omitempty"` // reset local branch when remote diverged
	MaxRetries         int              `yaml:"max_retries,omitempty"`           // retries for transient git failures
	RetryBackoff       RetryBackoffMode `yaml:"retry_backoff,omitempty"`         // fixed|linear|exponential (default linear)
	RetryInitialDelay  string           `yaml:"retry_initial_delay,omitempty"`   // e.g. "500ms"
	RetryMaxDelay      string           `yaml:"retry_max_delay,omitempty"`       // e.g. "10s"
}

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// StorageConfig represents daemon storage configuration.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir,omitempty"`       // Root for daemon state
	RepoCacheDir string `yaml:"repo_cache_dir,omitempty"` // Directory for cached repositories, default {data_dir}/repositories
	EventsDB     string `yaml:"events_db,omitempty"`      // SQLite run-history path, default {data_dir}/events.db
}

// WatchConfig configures local content watching.
type WatchConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty"` // nil means true
	Paths   []string `yaml:"paths,omitempty"`   // defaults to [course.content_dir]
}

// IsEnabled reports whether the content watcher should run.
func (w *WatchConfig) IsEnabled() bool {
	if w == nil || w.Enabled == nil {
		return true
	}
	return *w.Enabled
}

// DebounceConfig tunes how file events coalesce into validation runs.
type DebounceConfig struct {
	QuietWindow      string `yaml:"quiet_window,omitempty"` // run after this much event silence
	MaxDelay         string `yaml:"max_delay,omitempty"`    // run at latest this long after the first event
	WebhookImmediate *bool  `yaml:"webhook_immediate,omitempty"`
}

// QuietWindowDuration returns the quiet window, falling back to the default on parse failure.
func (d *DebounceConfig) QuietWindowDuration() time.Duration {
	if d == nil {
		return mustDuration(defaultDebounceQuiet)
	}
	if v, err := time.ParseDuration(d.QuietWindow); err == nil && v > 0 {
		return v
	}
	return mustDuration(defaultDebounceQuiet)
}

// MaxDelayDuration returns the max delay, falling back to the default on parse failure.
func (d *DebounceConfig) MaxDelayDuration() time.Duration {
	if d == nil {
		return mustDuration(defaultDebounceMaxDelay)
	}
	if v, err := time.ParseDuration(d.MaxDelay); err == nil && v > 0 {
		return v
	}
	return mustDuration(defaultDebounceMaxDelay)
}

// IsWebhookImmediate reports whether webhook-triggered runs bypass the quiet window.
func (d *DebounceConfig) IsWebhookImmediate() bool {
	if d == nil || d.WebhookImmediate == nil {
		return true
	}
	return *d.WebhookImmediate
}

func mustDuration(s string) time.Duration {
	v, err := time.ParseDuration(s)
	if err != nil {
		panic("bad built-in duration: " + s)
	}
	return v
}

// MonitoringConfig represents observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics,omitempty"`
	Logging MonitoringLogging `yaml:"logging,omitempty"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // nil means true
	Path    string `yaml:"path,omitempty"`
}

// IsEnabled reports whether Prometheus metrics are exposed.
func (m MonitoringMetrics) IsEnabled() bool {
	if m.Enabled == nil {
		return true
	}
	return *m.Enabled
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// OutputConfig represents bundle output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     *bool  `yaml:"clean,omitempty"` // Clean output directory before build; nil means true
}

// CleanEnabled reports whether the bundle directory is cleaned before writing.
func (o OutputConfig) CleanEnabled() bool {
	if o.Clean == nil {
		return true
	}
	return *o.Clean
}

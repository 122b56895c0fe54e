package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads a configuration file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version != "" && config.Version != "1" && !strings.HasPrefix(config.Version, "1.") {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1)", config.Version)
	}

	// Apply defaults before validation so canonical values drive the checks
	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults applies default values to configuration.
func applyDefaults(config *Config) error {
	applier := NewDefaultApplier()
	return applier.ApplyDefaults(config)
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	enabled := true
	exampleConfig := Config{
		Version: "1",
		Course: CourseConfig{
			Name:        "Intro to Debugging",
			Slug:        "intro-to-debugging",
			Description: "Hands-on debugger fundamentals with inline quizzes",
			ContentDir:  "./content",
		},
		Repositories: []Repository{
			{
				URL:    "https://git.example.com/courses/intro-to-debugging.git",
				Name:   "intro-to-debugging",
				Branch: "main",
				Paths:  []string{"lessons"},
				Auth: &AuthConfig{
					Type:  AuthTypeToken,
					Token: "${COURSE_GIT_TOKEN}",
				},
			},
		},
		Lint: LintConfig{
			ExtraLanguages: []string{"gdb"},
			Severity: map[string]string{
				"headings": "off",
			},
		},
		Linkcheck: &LinkcheckConfig{
			Enabled:      &enabled,
			NATSURL:      "nats://localhost:4222",
			ExternalOnly: true,
		},
		Daemon: &DaemonConfig{
			HTTP: HTTPConfig{
				APIPort:   8080,
				AdminPort: 8081,
			},
			Sync: SyncConfig{
				Schedule:       "0 */4 * * *",
				ConcurrentRuns: 2,
				QueueSize:      50,
			},
			Storage: StorageConfig{
				DataDir: "./coursebuilder-data",
			},
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{
				Enabled: &enabled,
				Path:    "/metrics",
			},
			Logging: MonitoringLogging{
				Level:  LogLevelInfo,
				Format: LogFormatText,
			},
		},
		Output: OutputConfig{
			Directory: "./bundle",
			Clean:     &enabled,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

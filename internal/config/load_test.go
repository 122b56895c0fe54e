package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coursebuilder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	configContent := `version: "1"

course:
  name: Intro to Debugging
  slug: intro-to-debugging
  content_dir: ./content

repositories:
  - url: https://git.example.com/courses/intro.git
    name: intro
    branch: main
    paths: ["lessons"]
    auth:
      type: token
      token: secret

lint:
  default_points: 2
  extra_languages: ["gdb"]
  severity:
    headings: "off"

linkcheck:
  enabled: true
  nats_url: nats://localhost:4222

daemon:
  http:
    api_port: 9080
    admin_port: 9081
  sync:
    schedule: "0 */6 * * *"
    concurrent_runs: 3
    queue_size: 100
  storage:
    data_dir: ./data

output:
  directory: ./bundle
  clean: true
`

	cfg, err := Load(writeConfigFile(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Course.Name != "Intro to Debugging" {
		t.Errorf("course name = %q", cfg.Course.Name)
	}
	if len(cfg.Repositories) != 1 || cfg.Repositories[0].Name != "intro" {
		t.Fatalf("unexpected repositories: %+v", cfg.Repositories)
	}
	if cfg.Repositories[0].Auth == nil || cfg.Repositories[0].Auth.Token != "secret" {
		t.Errorf("auth not parsed: %+v", cfg.Repositories[0].Auth)
	}
	if got := cfg.Lint.EffectiveDefaultPoints(); got != 2 {
		t.Errorf("default points = %v, want 2", got)
	}
	if cfg.Lint.Severity["headings"] != "off" {
		t.Errorf("severity override = %q", cfg.Lint.Severity["headings"])
	}
	if !cfg.Linkcheck.IsEnabled() {
		t.Error("expected linkcheck enabled")
	}
	if cfg.Daemon.HTTP.APIPort != 9080 || cfg.Daemon.HTTP.AdminPort != 9081 {
		t.Errorf("daemon ports = %d/%d", cfg.Daemon.HTTP.APIPort, cfg.Daemon.HTTP.AdminPort)
	}
	if cfg.Daemon.Sync.Schedule != "0 */6 * * *" {
		t.Errorf("sync schedule = %q", cfg.Daemon.Sync.Schedule)
	}
	if !cfg.Output.CleanEnabled() {
		t.Error("expected output.clean true")
	}
}

func TestLoad_MinimalConfig_AppliesDefaults(t *testing.T) {
	configContent := `course:
  name: Intro to Debugging
`

	cfg, err := Load(writeConfigFile(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Course.Slug != "intro_to_debugging" {
		t.Errorf("slug default = %q", cfg.Course.Slug)
	}
	if cfg.Course.ContentDir != "./content" {
		t.Errorf("content_dir default = %q", cfg.Course.ContentDir)
	}
	if got := cfg.Lint.EffectiveDefaultPoints(); got != 1 {
		t.Errorf("default points = %v, want 1", got)
	}
	if cfg.Output.Directory != "./bundle" {
		t.Errorf("output directory default = %q", cfg.Output.Directory)
	}
	if !cfg.Output.CleanEnabled() {
		t.Error("expected output.clean default true")
	}
	if cfg.Monitoring == nil || cfg.Monitoring.Logging.Level != LogLevelInfo {
		t.Errorf("monitoring logging default not applied: %+v", cfg.Monitoring)
	}
	if cfg.Monitoring.Logging.Format != LogFormatText {
		t.Errorf("logging format default = %q", cfg.Monitoring.Logging.Format)
	}
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("COURSEBUILDER_TEST_TOKEN", "tok-123")

	configContent := `course:
  name: Env Course
  content_dir: ./content
repositories:
  - url: https://git.example.com/c.git
    name: c
    auth:
      type: token
      token: ${COURSEBUILDER_TEST_TOKEN}
`

	cfg, err := Load(writeConfigFile(t, configContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Repositories[0].Auth.Token != "tok-123" {
		t.Errorf("token = %q, want expanded env value", cfg.Repositories[0].Auth.Token)
	}
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_UnsupportedVersion_ReturnsError(t *testing.T) {
	configContent := `version: "9"
course:
  name: X
`
	if _, err := Load(writeConfigFile(t, configContent)); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	if _, err := Load(writeConfigFile(t, ": not yaml")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestInit_WritesLoadableExample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coursebuilder.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	// A second Init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if cfg.Course.Name == "" {
		t.Error("example config has empty course name")
	}
	if cfg.Daemon == nil {
		t.Error("example config has no daemon section")
	}
}

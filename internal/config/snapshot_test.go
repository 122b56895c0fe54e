package config

import "testing"

func snapshotBase() Config {
	return Config{
		Course: CourseConfig{Name: "C", Slug: "c", ContentDir: "./content"},
		Repositories: []Repository{
			{Name: "a", URL: "https://x/a.git", Branch: "main", Paths: []string{"lessons"}},
			{Name: "b", URL: "https://x/b.git", Branch: "main", Paths: []string{"lessons"}},
		},
		Output: OutputConfig{Directory: "./bundle"},
	}
}

func TestSnapshot_StableAcrossRepositoryOrder(t *testing.T) {
	a := snapshotBase()
	b := snapshotBase()
	b.Repositories[0], b.Repositories[1] = b.Repositories[1], b.Repositories[0]

	if a.Snapshot() != b.Snapshot() {
		t.Error("snapshot should not depend on repository order")
	}
}

func TestSnapshot_ChangesWithLintSeverity(t *testing.T) {
	a := snapshotBase()
	b := snapshotBase()
	b.Lint.Severity = map[string]string{"headings": "off"}

	if a.Snapshot() == b.Snapshot() {
		t.Error("snapshot should change when lint severity changes")
	}
}

func TestSnapshot_ChangesWithContentDir(t *testing.T) {
	a := snapshotBase()
	b := snapshotBase()
	b.Course.ContentDir = "./elsewhere"

	if a.Snapshot() == b.Snapshot() {
		t.Error("snapshot should change when content_dir changes")
	}
}

func TestSnapshot_IgnoresDaemonPorts(t *testing.T) {
	a := snapshotBase()
	b := snapshotBase()
	b.Daemon = &DaemonConfig{HTTP: HTTPConfig{APIPort: 9999, AdminPort: 9998}}

	if a.Snapshot() != b.Snapshot() {
		t.Error("snapshot should not depend on daemon ports")
	}
}

func TestSnapshot_NilConfig(t *testing.T) {
	var c *Config
	if c.Snapshot() != "" {
		t.Error("nil config snapshot should be empty")
	}
}

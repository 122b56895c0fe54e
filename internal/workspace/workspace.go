// Package workspace provisions the directories validation runs sync
// repositories into.
//
// One-shot runs (the build command) use an ephemeral workspace: a unique
// temp directory that is removed when the run finishes. Daemon runs use a
// persistent workspace rooted in the configured data directory, so clones
// survive across runs and later syncs are incremental fetches.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// Manager owns one workspace directory for the lifetime of a run (or, in
// persistent mode, the lifetime of the daemon's repo cache).
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewManager returns a manager for an ephemeral workspace under baseDir.
// An empty baseDir means the system temp directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager returns a manager whose workspace is the fixed
// directory baseDir/name. Cleanup leaves it in place.
func NewPersistentManager(baseDir, name string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if name == "" {
		name = "repositories"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, name),
		persistent: true,
	}
}

// Create makes the workspace directory. Ephemeral workspaces get a fresh
// unique directory each call; persistent ones are created once and reused.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("create repo cache directory: %w", err)
		}
		slog.Debug("Using persistent sync workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "coursebuilder-sync-")
	if err != nil {
		return fmt.Errorf("create sync workspace: %w", err)
	}
	m.dir = dir
	slog.Debug("Created sync workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the workspace directory, empty before Create.
func (m *Manager) GetPath() string {
	return m.dir
}

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept
// so the next run fetches instead of recloning.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("remove sync workspace: %w", err)
	}
	m.dir = ""
	return nil
}

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

// configReloadDebounce coalesces the burst of filesystem events most
// editors emit on save into a single reload.
const configReloadDebounce = 2 * time.Second

// ConfigWatcher watches the configuration file and hands validated new
// configurations to the daemon.
type ConfigWatcher struct {
	configPath string
	daemon     *Daemon
	watcher    *fsnotify.Watcher
	debounce   time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
}

// NewConfigWatcher creates a watcher for the given config file path.
func NewConfigWatcher(configPath string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath: absPath,
		daemon:     daemon,
		watcher:    watcher,
		debounce:   configReloadDebounce,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins watching. The watch is placed on the containing directory
// rather than the file itself: editors that save via rename-replace would
// otherwise orphan the watch.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", "config_path", cw.configPath)
	go cw.run(ctx)
	return nil
}

// Stop shuts the watcher down.
func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	slog.Info("Stopping configuration watcher")
	close(cw.stopChan)

	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", "error", err)
		}
	}
	return nil
}

// run consumes filesystem events and drives the debounce timer. Reloads
// happen on this goroutine, after the timer fires with no further events.
func (cw *ConfigWatcher) run(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	timer := time.NewTimer(cw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-cw.stopChan:
			timer.Stop()
			return

		case <-timer.C:
			pending = false
			if err := cw.reload(ctx); err != nil {
				slog.Error("Failed to reload configuration", "error", err)
			}

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Op&fsnotify.Remove != 0 {
				slog.Warn("Config file removed", "file", event.Name)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			slog.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(cw.debounce)
			pending = true

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

// reload loads, validates, and applies the changed configuration.
func (cw *ConfigWatcher) reload(ctx context.Context) error {
	slog.Info("Reloading configuration", "config_path", cw.configPath)

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if err := cw.checkReloadable(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := cw.daemon.ReloadConfig(ctx, newConfig); err != nil {
		return fmt.Errorf("failed to apply new configuration: %w", err)
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}

// checkReloadable rejects changes that cannot take effect in a running
// daemon. Port changes are applied lazily, so they only warn.
func (cw *ConfigWatcher) checkReloadable(newConfig *config.Config) error {
	current := cw.daemon.GetConfig()

	if newConfig.Version != current.Version {
		return fmt.Errorf("configuration version change requires daemon restart")
	}

	if newConfig.Daemon != nil && current.Daemon != nil {
		if newConfig.Daemon.HTTP.APIPort != current.Daemon.HTTP.APIPort ||
			newConfig.Daemon.HTTP.AdminPort != current.Daemon.HTTP.AdminPort {
			slog.Warn("HTTP port changes detected - restart required for new ports to take effect")
		}
	}
	return nil
}

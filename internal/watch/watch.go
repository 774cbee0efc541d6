// Package watch runs the pipeline on an interval for deployments
// without an external scheduler, reloading configuration when the
// config file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calebhart/jobsift/internal/config"
)

// Manager drives scheduled runs. RunOnce is the whole pipeline behind
// a function so the manager stays testable without Gmail or Sheets.
type Manager struct {
	ConfigPath string
	Interval   time.Duration
	RunOnce    func(ctx context.Context, cfg *config.Config) error

	// RestartBackoff delays the next attempt after a failed run.
	RestartBackoff time.Duration
	Logf           func(format string, args ...any)
}

// NewManager creates a manager with sane pacing defaults.
func NewManager(configPath string, interval time.Duration, runOnce func(ctx context.Context, cfg *config.Config) error) *Manager {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Manager{
		ConfigPath:     configPath,
		Interval:       interval,
		RunOnce:        runOnce,
		RestartBackoff: 30 * time.Second,
		Logf:           log.Printf,
	}
}

// Run blocks until ctx is done, running the pipeline immediately and
// then on every interval tick. Run failures are logged, backed off,
// and do not stop the schedule; the pipeline's own label state makes
// an interrupted run safe to repeat.
func (m *Manager) Run(ctx context.Context) error {
	cfg, err := config.Load(m.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reload := make(chan struct{}, 1)
	watcher, err := m.watchConfig(ctx, reload)
	if err != nil {
		m.Logf("watch: config watching unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	m.runOnce(ctx, cfg)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reload:
			fresh, err := config.Load(m.ConfigPath)
			if err != nil {
				m.Logf("watch: reloading config: %v", err)
				continue
			}
			cfg = fresh
			m.Logf("watch: config reloaded from %s", m.ConfigPath)
		case <-ticker.C:
			m.runOnce(ctx, cfg)
		}
	}
}

func (m *Manager) runOnce(ctx context.Context, cfg *config.Config) {
	if err := m.RunOnce(ctx, cfg); err != nil {
		m.Logf("watch: run failed: %v", err)
		select {
		case <-time.After(m.RestartBackoff):
		case <-ctx.Done():
		}
	}
}

// watchConfig signals reload when the config file is written or
// replaced. The parent directory is watched because editors and
// config management tools typically swap the file atomically.
func (m *Manager) watchConfig(ctx context.Context, reload chan<- struct{}) (*fsnotify.Watcher, error) {
	path := m.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.Logf("watch: watcher error: %v", err)
			}
		}
	}()
	return watcher, nil
}

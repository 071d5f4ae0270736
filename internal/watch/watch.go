// Package watch reloads the composition when the configuration file changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is invoked once per debounced burst of changes.
type ReloadFunc func(ctx context.Context) error

// ConfigWatcher monitors one configuration file.
type ConfigWatcher struct {
	configPath string
	reload     ReloadFunc
	debounce   time.Duration
	watcher    *fsnotify.Watcher

	stopOnce sync.Once
	stop     chan struct{}
	trigger  chan struct{}
	done     sync.WaitGroup
}

// Option configures a ConfigWatcher.
type Option func(*ConfigWatcher)

// WithDebounce sets the quiet period before a reload fires.
func WithDebounce(d time.Duration) Option {
	return func(cw *ConfigWatcher) { cw.debounce = d }
}

// NewConfigWatcher prepares a watcher for configPath.
func NewConfigWatcher(configPath string, reload ReloadFunc, opts ...Option) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve config path").
			WithCause(err).
			WithContext(logfields.KeyPath, configPath).
			Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.FileSystemError("failed to create file watcher").WithCause(err).Build()
	}

	cw := &ConfigWatcher{
		configPath: absPath,
		reload:     reload,
		debounce:   DefaultDebounce,
		watcher:    w,
		stop:       make(chan struct{}),
		trigger:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(cw)
	}
	return cw, nil
}

// Start watches the directory holding the file, which survives editors that
// replace the file on save.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return errors.FileSystemError("failed to watch config directory").
			WithCause(err).
			WithContext(logfields.KeyPath, dir).
			Build()
	}
	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	cw.done.Add(2)
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop ends both loops and closes the watcher. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		close(cw.stop)
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
		cw.done.Wait()
	})
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	defer cw.done.Done()
	name := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stop:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				cw.triggerReload()
			case event.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.Path(event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	defer cw.done.Done()
	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stop:
			return
		case <-cw.trigger:
			timer.Reset(cw.debounce)
		case <-timer.C:
			if err := cw.reload(ctx); err != nil {
				slog.Error("Failed to reload configuration", logfields.Path(cw.configPath), logfields.Error(err))
			}
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.trigger <- struct{}{}:
	default:
	}
}

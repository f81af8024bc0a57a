// Package fileconfig supplies a fsnotify-backed watcher that reloads
// AppConfig whenever the on-disk YAML file changes, grounded on the
// watcher/select-loop shape marmos91-dittofs's `logs` command uses to
// tail a log file (internal/config.Load itself stays the one-shot
// viper/yaml reader; this package layers live reload on top).
package fileconfig

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/AireshBhat/nramh-lis/internal/config"
)

// Watcher reloads an AppConfig from path whenever the file is written in
// place, and hands the new value to each registered subscriber. The watch
// is on the file itself, so once the file is replaced by a rename, later
// changes are not seen.
type Watcher struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu          sync.RWMutex
	current     config.AppConfig
	subscribers []func(config.AppConfig)

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Watcher over path, performing an initial Load so
// Current() is populated even before the watch loop starts.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("initial config load: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch config file %q: %w", path, err)
	}

	return &Watcher{
		path:    path,
		logger:  logger,
		watcher: fw,
		current: *cfg,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Current returns the most recently loaded AppConfig.
func (w *Watcher) Current() config.AppConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers fn to be called, with the newly loaded config, every
// time the watched file is rewritten. fn is invoked synchronously from
// the watch goroutine; it must not block.
func (w *Watcher) OnChange(fn func(config.AppConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, fn)
}

// Run blocks, servicing fsnotify events until Stop is called. Intended to
// run in its own goroutine.
func (w *Watcher) Run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err, "path", w.path)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", "error", err, "path", w.path)
		return
	}

	w.mu.Lock()
	w.current = *cfg
	subscribers := append([]func(config.AppConfig){}, w.subscribers...)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	for _, fn := range subscribers {
		fn(*cfg)
	}
}

// Stop terminates the watch loop and releases the underlying fsnotify
// handle. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	<-w.doneCh
}

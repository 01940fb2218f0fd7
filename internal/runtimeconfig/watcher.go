package runtimeconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a change is applied
const DefaultDebounce = 100 * time.Millisecond

// LoadFunc reads a registration from path
type LoadFunc func(path string) (providers.Registration, error)

// Registrar receives reloaded registrations
type Registrar interface {
	Register(reg providers.Registration) error
}

// Watcher reapplies a registry file whenever it changes
type Watcher struct {
	path     string
	load     LoadFunc
	target   Registrar
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	running bool
	reloads int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for path. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(path string, load LoadFunc, target Registrar, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		load:     load,
		target:   target,
		logger:   logger.Named("registry-watcher"),
		debounce: debounce,
	}
}

// Reload loads the file once and registers its contents
func (w *Watcher) Reload() error {
	reg, err := w.load(w.path)
	if err != nil {
		return err
	}
	if err := w.target.Register(reg); err != nil {
		return fmt.Errorf("failed to register %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	w.logger.Info("registry reloaded",
		zap.String("path", w.path),
		zap.Int("providers", len(reg.Providers)),
		zap.Int("routes", len(reg.Routing)))
	return nil
}

// Reloads returns how many reloads have been applied
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Start begins watching in the background until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.loop(ctx, fsw, w.stopCh, w.doneCh)

	w.logger.Info("registry watcher started",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce))
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("registry file event",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			w.schedule()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("registry watcher error", zap.Error(err))
		}
	}
}

// relevant keeps writes and replacements of the watched file only
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.Reload(); err != nil {
			w.logger.Error("registry reload failed, keeping previous registry",
				zap.String("path", w.path),
				zap.Error(err))
		}
	})
}

// Stop ends the watch and cancels any pending reload
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	fsw, stopCh, doneCh := w.fsw, w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.logger.Info("registry watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

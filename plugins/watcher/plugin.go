// Package watcher monitors the scripted plugin directory and signals when
// its contents change so the session can rediscover scripted commands.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/abacus/pkg/log"
	"github.com/bft-labs/abacus/plugins/script"
)

// Watcher turns fsnotify events for plugin files into debounced change
// notifications. It never touches the registry; the session reacts to
// Changes between commands.
type Watcher struct {
	mu sync.Mutex

	dir           string
	debounceDelay time.Duration
	logger        log.Logger

	changes  chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the watcher.
type Config struct {
	// DebounceDelay is how long to wait after the last file event before
	// signalling a change.
	// Default: 200 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 200 * time.Millisecond}
}

// New creates a watcher for dir.
func New(dir string, cfg Config, logger log.Logger) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		dir:           dir,
		debounceDelay: cfg.DebounceDelay,
		logger:        logger,
		changes:       make(chan struct{}, 1),
	}
}

// Name returns the plugin identifier.
func (w *Watcher) Name() string {
	return "pluginwatcher"
}

// Changes delivers one value per burst of plugin file changes. Bursts that
// arrive before the previous value is received are coalesced.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching the plugin directory.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("plugin watcher started", log.String("dir", w.dir))

	w.wg.Add(1)
	go w.watchLoop(watchCtx, fw)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !script.Supported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("plugin file changed",
				log.String("file", filepath.Base(event.Name)),
				log.String("op", event.Op.String()))
			w.debounceNotify(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("plugin watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceNotify(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

package tokencache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"stratus/pkg/logging"
)

const watcherSubsystem = "CacheWatcher"

// DefaultPollInterval is the fallback polling interval when fsnotify is not available.
const DefaultPollInterval = 2 * time.Second

// DefaultDebounceInterval is the time to wait after the last change before
// OnChange runs. A save is a temp file write plus a rename.
const DefaultDebounceInterval = 250 * time.Millisecond

// WatcherConfig holds configuration for a Watcher.
type WatcherConfig struct {
	// Path is the cache file to watch, usually FileStore.Path(key).
	Path string

	// PollInterval is the fallback polling interval.
	PollInterval time.Duration

	// Debounce is the quiet period before OnChange runs.
	Debounce time.Duration

	// OnChange is called when the cache file is written, replaced or removed,
	// for instance by another stratus process signing in or out.
	OnChange func()
}

// Watcher monitors a file-backed token cache for changes made by other
// processes. It uses fsnotify on the cache directory and falls back to
// polling the file's modification time.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	// lastState is the polled modification time; zero when the file is absent.
	lastState time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a Watcher. It does not start watching.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}
}

// Start begins watching. Starting a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	dir := filepath.Dir(w.config.Path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn(watcherSubsystem, "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		logging.Warn(watcherSubsystem, "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges(w.stopCh)
		return nil
	}

	w.fsWatcher = watcher
	go w.processEvents(w.stopCh, watcher.Events, watcher.Errors)

	logging.Debug(watcherSubsystem, "Watching %s for token cache changes", dir)
	return nil
}

// processEvents handles fsnotify events. The channels are passed in so Stop
// can clear the fields without racing this goroutine.
func (w *Watcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error(watcherSubsystem, err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.config.Path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	logging.Debug(watcherSubsystem, "Token cache changed: %s", event.Op)
	w.triggerDebounced()
}

func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.lastState = w.currentState()

	for {
		select {
		case <-stopCh:
			return

		case <-ticker.C:
			if state := w.currentState(); !state.Equal(w.lastState) {
				w.lastState = state
				logging.Debug(watcherSubsystem, "Token cache change detected via polling")
				w.triggerDebounced()
			}
		}
	}
}

func (w *Watcher) currentState() time.Time {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Stop stops the watcher. Stopping a stopped watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn(watcherSubsystem, "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

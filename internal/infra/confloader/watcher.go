package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before
// callbacks run.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to configuration files.
//
// Directories are watched rather than files so that editors which replace
// the file by rename are still seen. Events for other files in the same
// directory are ignored, and a burst of events for one file produces a
// single callback.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu        sync.RWMutex
	files     map[string]struct{}
	callbacks []func(path string)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets the quiet period. Zero fires on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher. Nothing is reported until StartAsync.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		files:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds a configuration file.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	if err := w.fs.Add(filepath.Dir(path)); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("watching config file", "file", path)
	return nil
}

// OnChange registers a callback that receives the changed file's path.
// Callbacks run on the watcher goroutine, one at a time.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// StartAsync starts delivering changes on a background goroutine.
func (w *Watcher) StartAsync() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()
}

func (w *Watcher) run() {
	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.watched(name) {
				continue
			}
			pending[name] = struct{}{}
			if w.debounce <= 0 {
				w.flush(pending)
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.flush(pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher and waits for a running callback to return.
// Calling Stop more than once is safe.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) watched(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[name]
	return ok
}

// flush reports and clears every pending path.
func (w *Watcher) flush(pending map[string]struct{}) {
	w.mu.RLock()
	callbacks := append([]func(string){}, w.callbacks...)
	w.mu.RUnlock()

	for path := range pending {
		delete(pending, path)
		w.logger.Debug("config file changed", "file", path)
		for _, cb := range callbacks {
			cb(path)
		}
	}
}

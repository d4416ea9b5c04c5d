package fragment

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"frag-viewer/pkg/debug"
)

// DefaultDebounce coalesces bursts of filesystem events; converters
// write fragment files in many small chunks.
const DefaultDebounce = 250 * time.Millisecond

// Watcher notifies when the fragment library changes on disk.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()

	fw   *fsnotify.Watcher
	done chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the event coalescing window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher watches the library directory and invokes onChange
// (debounced) whenever fragment files appear, change, or disappear.
func NewWatcher(lib *Library, onChange func(), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      lib.Dir(),
		debounce: DefaultDebounce,
		onChange: onChange,
		fw:       fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins delivering change notifications.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends watching. Safe to call once.
func (w *Watcher) Stop() {
	close(w.done)
	w.fw.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			debug.Log("fragment watcher: %s", event)
			w.trigger()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("fragment watcher: %v", err)
		}
	}
}

// trigger schedules the change callback, restarting the debounce window
// on each new event.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

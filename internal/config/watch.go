package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// RosterWatcher reloads a roster file when it changes on disk and hands
// each successfully parsed roster to the registered callback. Parse
// failures keep the previous roster in effect.
type RosterWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	// Logf receives debug output when set; nil disables logging.
	Logf func(format string, args ...any)

	mu       sync.Mutex
	onReload func([]models.WorkerProfile)
	closed   bool
}

// WatchRoster starts watching the roster file. The callback runs on the
// watcher goroutine for every valid reload.
func WatchRoster(path string, onReload func([]models.WorkerProfile)) (*RosterWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create roster watcher: %w", err)
	}

	// Watch the directory: editors replace files rather than writing in
	// place, which drops the watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch roster directory: %w", err)
	}

	rw := &RosterWatcher{
		path:     path,
		watcher:  watcher,
		done:     make(chan struct{}),
		onReload: onReload,
	}
	go rw.run()
	return rw, nil
}

func (rw *RosterWatcher) logf(format string, args ...any) {
	if rw.Logf != nil {
		rw.Logf(format, args...)
	}
}

func (rw *RosterWatcher) run() {
	for {
		select {
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(rw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			roster, err := LoadRoster(rw.path)
			if err != nil {
				rw.logf("roster reload skipped: %v", err)
				continue
			}
			rw.logf("roster reloaded: %d workers", len(roster))
			rw.mu.Lock()
			cb := rw.onReload
			rw.mu.Unlock()
			if cb != nil {
				cb(roster)
			}
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logf("roster watcher error: %v", err)
		case <-rw.done:
			return
		}
	}
}

// Close stops the watcher.
func (rw *RosterWatcher) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.closed {
		return nil
	}
	rw.closed = true
	close(rw.done)
	return rw.watcher.Close()
}

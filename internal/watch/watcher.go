// Package watch reports changes to the open readout file.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of writes a DAQ flush produces.
const DefaultDebounce = 500 * time.Millisecond

// FileChangedMsg is sent when the watched file was written or replaced.
type FileChangedMsg struct {
	Path string
}

// Sender can receive messages (matches *tea.Program).
type Sender interface {
	Send(msg tea.Msg)
}

// Watcher watches one file through its directory so that files replaced by
// rename are still seen.
type Watcher struct {
	w        *fsnotify.Watcher
	sender   Sender
	debounce time.Duration

	mu    sync.Mutex
	path  string
	dir   string
	timer *time.Timer
}

// New starts a watcher that reports to sender. Nothing is watched until
// Watch is called.
func New(sender Sender, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{w: fw, sender: sender, debounce: debounce}
	go w.loop()
	return w, nil
}

// Watch switches the watch to path. An empty path stops watching.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dir != "" {
		_ = w.w.Remove(w.dir)
		w.dir, w.path = "", ""
	}
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dir, w.path = dir, abs
	return nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.w.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.changed(event.Name)

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			slog.Warn(fmt.Sprintf("file watcher error: %v", err), "module", "watch")
		}
	}
}

// changed (re)arms the debounce timer when name is the watched file.
func (w *Watcher) changed(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" || filepath.Clean(name) != w.path {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	path := w.path
	w.timer = time.AfterFunc(w.debounce, func() {
		slog.Debug(fmt.Sprintf("%s changed", path), "module", "watch")
		w.sender.Send(FileChangedMsg{Path: path})
	})
}

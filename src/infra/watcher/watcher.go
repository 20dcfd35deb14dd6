package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceSecs = 10

// FileEvent signals that something changed under a watched scan root.
type FileEvent struct {
	Path      string
	Timestamp time.Time
}

// Watcher monitors the scan roots for new audio files and emits a debounced
// event so the library can rescan itself.
type Watcher struct {
	watcher       *fsnotify.Watcher
	roots         []string
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	running       bool
	stopChan      chan struct{}
	eventChan     chan<- FileEvent
}

// NewWatcher creates a new file system watcher.
func NewWatcher(eventChan chan<- FileEvent) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:   watcher,
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins watching every scan root, subdirectories included.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	w.roots = roots
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			return err
		}
	}

	w.running = true
	go w.watchLoop(ctx)

	slog.Info("File watcher started", "roots", roots)
	return nil
}

// addRecursive registers root and every directory below it. fsnotify has
// no recursive mode, so new subdirectories are added as they appear.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	if !w.running {
		return
	}
	slog.Info("Stopping file watcher")
	w.running = false
	close(w.stopChan)

	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()

	w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != fsnotify.Create {
		return
	}

	// Newly created directories join the watch so drops into them count.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := w.addRecursive(event.Name); err != nil {
			slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}

	if !isSupportedFile(event.Name) {
		return
	}
	slog.Info("Detected new audio file", "file", event.Name)

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceSecs*time.Second, func() {
		w.emitDebounceEvent(event.Name)
	})
}

func isSupportedFile(filePath string) bool {
	base := filepath.Base(filePath)
	if strings.HasPrefix(base, "._") || base == ".DS_Store" {
		return false
	}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".m4b", ".m4a", ".mp3", ".flac", ".ogg":
		return true
	}
	return false
}

func (w *Watcher) emitDebounceEvent(path string) {
	event := FileEvent{Path: path, Timestamp: time.Now()}
	select {
	case w.eventChan <- event:
		slog.Info("Emitted rescan event after debounce", "path", event.Path)
	default:
		slog.Warn("Event channel full, dropping rescan event", "path", event.Path)
	}
}

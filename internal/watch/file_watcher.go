// Package watch triggers callbacks when files on disk change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hrassist/internal/errors"
)

// DefaultDebounce is used when a watcher is created with a zero delay.
const DefaultDebounce = time.Second

// FileWatcher calls OnChange once per burst of writes to any of its files.
// Editors and config management tools often replace files by rename, so the
// parent directories are watched too.
type FileWatcher struct {
	mu sync.Mutex

	files    []string
	modTimes map[string]time.Time

	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	timer     *time.Timer

	stop    chan struct{}
	done    chan struct{}
	trigger chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// NewFileWatcher creates a watcher for files. It does not start watching until Start.
func NewFileWatcher(files []string, debounce time.Duration, onChange func(), logger *errors.Logger) (*FileWatcher, error) {
	files = slices.DeleteFunc(slices.Clone(files), func(f string) bool { return f == "" })
	if len(files) == 0 {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "file watcher needs at least one file", nil)
	}
	if onChange == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "file watcher needs a change callback", nil)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = errors.Discard()
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to resolve watched file", err).
				WithContext("file", f)
		}
		abs = append(abs, p)
	}

	return &FileWatcher{
		files:    abs,
		modTimes: make(map[string]time.Time),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start begins watching. It is an error to start a running watcher.
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("file watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	w.snapshot()

	dirs := map[string]bool{}
	for _, f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", "directory", dir, "error", err)
		}
	}

	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.trigger = make(chan struct{}, 1)
	w.running = true

	go w.loop(watcher, w.stop, w.done, w.trigger)

	w.logger.Info("File watcher started", "files", w.files, "debounce", w.debounce)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stop)
	if w.timer != nil {
		w.timer.Stop()
	}
	done := w.done
	watcher := w.fsWatcher
	w.mu.Unlock()

	err := watcher.Close()
	<-done

	if err != nil {
		w.logger.LogError(err, "Failed to close file watcher")
		return err
	}
	w.logger.Info("File watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *FileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Files returns the absolute paths being watched.
func (w *FileWatcher) Files() []string {
	return slices.Clone(w.files)
}

func (w *FileWatcher) loop(watcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}, trigger <-chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-trigger:
			if w.changed() {
				w.logger.Info("Watched file changed", "files", w.files)
				w.onChange()
			}

		case <-stop:
			return
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	return slices.Contains(w.files, name)
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	trigger := w.trigger
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
}

// snapshot records current modification times. Missing files are skipped.
func (w *FileWatcher) snapshot() {
	for _, f := range w.files {
		if stat, err := os.Stat(f); err == nil {
			w.modTimes[f] = stat.ModTime()
		}
	}
}

// changed reports whether any file differs from the last snapshot and refreshes it.
func (w *FileWatcher) changed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirty := false
	for _, f := range w.files {
		stat, err := os.Stat(f)
		if err != nil {
			if _, seen := w.modTimes[f]; seen && os.IsNotExist(err) {
				delete(w.modTimes, f)
				dirty = true
			}
			continue
		}
		last, seen := w.modTimes[f]
		if !seen || !stat.ModTime().Equal(last) {
			w.modTimes[f] = stat.ModTime()
			dirty = true
		}
	}
	return dirty
}

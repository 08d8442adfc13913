// Package watch feeds shader source files into a preview on save. It watches
// the vertex and fragment files' directories (editors commonly save via
// rename, which would drop a watch on the file itself), debounces bursts of
// write events, and submits the freshly read source pair.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Carmen-Shannon/shaderview-go/common"
)

// Watcher reloads a shader source pair whenever either file changes on disk.
type Watcher interface {
	// Start reads and submits the initial source pair, then begins watching
	// for changes in the background.
	//
	// Returns:
	//   - error: if the files could not be read or the watch could not be set up
	Start() error

	// Stop ends the watch and releases the underlying notifier. Idempotent.
	//
	// Returns:
	//   - error: error from closing the notifier
	Stop() error
}

// fileWatcher is the implementation of the Watcher interface.
type fileWatcher struct {
	vertexPath   string
	fragmentPath string

	// submit receives the freshly read source pair after every debounced change.
	submit func(vertexSource, fragmentSource string)

	debounce time.Duration

	notifier    *fsnotify.Watcher
	quitChannel chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
}

var _ Watcher = &fileWatcher{}

// NewWatcher creates a Watcher for the given source pair.
//
// Parameters:
//   - vertexPath: path to the vertex stage source file
//   - fragmentPath: path to the fragment stage source file
//   - submit: called with both sources after every debounced change
//   - options: functional options to configure the watcher
//
// Returns:
//   - Watcher: the configured watcher (not yet started)
func NewWatcher(vertexPath, fragmentPath string, submit func(vertexSource, fragmentSource string), options ...WatcherBuilderOption) Watcher {
	w := &fileWatcher{
		vertexPath:   vertexPath,
		fragmentPath: fragmentPath,
		submit:       submit,
		debounce:     100 * time.Millisecond,
		quitChannel:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *fileWatcher) Start() error {
	if err := w.readAndSubmit(); err != nil {
		return err
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	w.notifier = notifier

	// Watch directories, not files: rename-style saves replace the inode.
	dirs := map[string]struct{}{
		filepath.Dir(w.vertexPath):   {},
		filepath.Dir(w.fragmentPath): {},
	}
	for dir := range dirs {
		if err := notifier.Add(dir); err != nil {
			notifier.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go w.handleEvents()
	return nil
}

func (w *fileWatcher) Stop() error {
	var err error
	w.quitOnce.Do(func() {
		close(w.quitChannel)
		if w.notifier != nil {
			err = w.notifier.Close()
		}
	})
	w.wg.Wait()
	return err
}

// handleEvents runs the watch loop in its own goroutine, coalescing bursts of
// events into one submit per debounce window.
func (w *fileWatcher) handleEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.quitChannel:
			return
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.readAndSubmit(); err != nil {
				common.Logger().Warn("reloading shader sources", slog.String("error", err.Error()))
			}
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// relevant reports whether a change to the named path affects either source file.
func (w *fileWatcher) relevant(name string) bool {
	clean := filepath.Clean(name)
	return clean == filepath.Clean(w.vertexPath) || clean == filepath.Clean(w.fragmentPath)
}

// readAndSubmit reads both source files and hands them to the submit callback.
func (w *fileWatcher) readAndSubmit() error {
	vertexSource, err := os.ReadFile(w.vertexPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.vertexPath, err)
	}
	fragmentSource, err := os.ReadFile(w.fragmentPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.fragmentPath, err)
	}
	w.submit(string(vertexSource), string(fragmentSource))
	return nil
}

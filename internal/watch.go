package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 100 * time.Millisecond

// Watcher calls back whenever one of a set of database files changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	files    map[string]bool
	debounce time.Duration
}

// NewWatcher watches files. The parent directories are watched instead of
// the files so that editors replacing a file by rename are noticed too.
func NewWatcher(logger *zap.Logger, files ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		logger:   logger,
		files:    make(map[string]bool),
		debounce: watchDebounce,
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return w, nil
}

// Watch blocks until ctx is done, calling onChange with the path of each
// changed file. Bursts of events on one file within the debounce interval
// are delivered once.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string)) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending[w.key(event.Name)] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))

		case <-timer.C:
			for path := range pending {
				w.logger.Debug("database changed", zap.String("path", path))
				onChange(path)
			}
			pending = make(map[string]bool)
		}
	}
}

func (w *Watcher) key(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return name
	}
	return abs
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return w.files[w.key(event.Name)]
}

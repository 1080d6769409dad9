package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
)

// Watcher reports changes to local artifacts as they happen, so the
// supervisor can sweep early instead of waiting out its interval.
//
// We watch each artifact's parent directory rather than the file,
// because editors and package managers replace files by rename and a
// watch on the old inode would go quiet.
type Watcher struct {
	events  chan string
	byPath  map[string]string
	logger  *logging.Logger
	fsWatch *fsnotify.Watcher
}

func NewWatcher(fileSource *FileSource, identifiers []string, logger *logging.Logger) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("Cannot create file watcher: %w", err)
	}
	w := &Watcher{
		events:  make(chan string, 16),
		byPath:  make(map[string]string),
		logger:  logger,
		fsWatch: fsWatch,
	}
	dirs := make(map[string]bool)
	for _, identifier := range identifiers {
		fullPath, err := fileSource.Path(identifier)
		if err != nil {
			fsWatch.Close()
			return nil, err
		}
		w.byPath[fullPath] = identifier
		dir := filepath.Dir(fullPath)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsWatch.Add(dir); err != nil {
			// Missing directories are fine. Their artifacts are
			// absent and the periodic sweep still covers them.
			logger.Warningf("Not watching %s: %v", dir, err)
		}
	}
	return w, nil
}

// Events returns the identifiers of artifacts that changed. Events
// are dropped, not queued, when the reader falls behind: one pending
// wake-up is as good as many.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Run forwards filesystem events until ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatch.Events:
			if !ok {
				return
			}
			identifier, watched := w.byPath[filepath.Clean(event.Name)]
			if !watched || event.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debugf("Watcher: %s %s", event.Op, identifier)
			select {
			case w.events <- identifier:
			default:
			}
		case err, ok := <-w.fsWatch.Errors:
			if !ok {
				return
			}
			w.logger.Warningf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatch.Close()
}

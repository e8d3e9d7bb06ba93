package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"catchcli/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WaitForMarker blocks until exactly one marker exists under dir, then
// returns its id like Locate. Markers created while waiting are picked up
// through fsnotify. The wait ends with ctx.
func WaitForMarker(ctx context.Context, dir string) (string, error) {
	log := logging.Get(logging.CategorySession)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return "", &IOError{Op: "watch", Path: dir, Err: err}
	}

	// Markers that appeared before the watch was armed.
	if id, err := Locate(dir); !errors.Is(err, ErrNoSessionFound) {
		return id, err
	}

	log.Info("waiting for session marker", zap.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return "", ErrNoSessionFound
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if _, ok := MarkerID(filepath.Base(ev.Name)); !ok {
				continue
			}
			if fi, err := os.Stat(ev.Name); err != nil || !fi.IsDir() {
				continue
			}
			return Locate(dir)
		case err, ok := <-w.Errors:
			if !ok {
				return "", ErrNoSessionFound
			}
			return "", &IOError{Op: "watch", Path: dir, Err: err}
		}
	}
}

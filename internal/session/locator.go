// Package session finds the catch_session_<id> marker a browser flow left
// in the temp directory and checks the session is still unclaimed.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"catchcli/internal/logging"

	"go.uber.org/zap"
)

// MarkerPrefix starts every session marker directory name.
const MarkerPrefix = "catch_session_"

var markerPattern = regexp.MustCompile(`^catch_session_(.+)$`)

var (
	// ErrNoSessionFound means no marker exists.
	ErrNoSessionFound = errors.New("no session found")
	// ErrMultipleSessionsFound means more than one marker existed; all were removed.
	ErrMultipleSessionsFound = errors.New("multiple sessions found")
	// ErrSessionClaimed means the server already started a process for the session.
	ErrSessionClaimed = errors.New("session already claimed")
)

// IOError wraps a filesystem failure while handling markers.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Marker is one session marker directory.
type Marker struct {
	ID   string
	Path string
}

// MarkerID extracts the session id from a directory name.
func MarkerID(name string) (string, bool) {
	m := markerPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Markers lists marker directories directly under dir, sorted by id.
func Markers(dir string) ([]Marker, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "read", Path: dir, Err: err}
	}

	var markers []Marker
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, ok := MarkerID(e.Name()); ok {
			markers = append(markers, Marker{ID: id, Path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })
	return markers, nil
}

// Locate returns the id of the single marker under dir. With several
// markers present every one is removed and ErrMultipleSessionsFound is
// returned, so the user restarts from a clean slate.
func Locate(dir string) (string, error) {
	log := logging.Get(logging.CategorySession)

	markers, err := Markers(dir)
	if err != nil {
		return "", err
	}

	switch len(markers) {
	case 0:
		log.Debug("no session marker", zap.String("dir", dir))
		return "", ErrNoSessionFound
	case 1:
		log.Info("session marker found", zap.String("session_id", markers[0].ID))
		return markers[0].ID, nil
	default:
		log.Warn("multiple session markers, purging", zap.Int("count", len(markers)))
		if err := remove(markers); err != nil {
			return "", err
		}
		return "", ErrMultipleSessionsFound
	}
}

// Purge removes every marker under dir and returns how many were removed.
func Purge(dir string) (int, error) {
	markers, err := Markers(dir)
	if err != nil {
		return 0, err
	}
	if err := remove(markers); err != nil {
		return 0, err
	}
	if len(markers) > 0 {
		logging.Get(logging.CategorySession).Info("session markers purged", zap.Int("count", len(markers)))
	}
	return len(markers), nil
}

func remove(markers []Marker) error {
	for _, m := range markers {
		if err := os.RemoveAll(m.Path); err != nil {
			return &IOError{Op: "remove", Path: m.Path, Err: err}
		}
	}
	return nil
}

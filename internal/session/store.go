// Package session owns the per-run state shared between the executor and the
// HTTP surface: log streams, statuses, and live browser handles.
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// ErrSessionNotFound is returned for operations that reference a session id
// with no live entry.
var ErrSessionNotFound = errors.New("session not found")

// record is the store's view of one execution session.
type record struct {
	status  schemas.SessionStatus
	logs    []schemas.LogEntry
	browser schemas.BrowserDriver
}

// Store is the single synchronization boundary for session state. All maps
// live behind one mutex, which gives readers of a session's log and status
// the publish-then-read ordering the polling endpoint relies on.
//
// The store holds the only strong reference to a session's browser handle:
// releasing the handle is removing that entry and quitting the driver,
// nothing more.
type Store struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*record
}

// NewStore creates an empty session store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger:   logger.Named("session_store"),
		sessions: make(map[string]*record),
	}
}

// Create registers a session in the pending state. Creating an id that
// already exists resets it, matching replay of a generated plan under the
// same session id.
func (s *Store) Create(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &record{status: schemas.StatusPending}
}

// Append adds one entry to the session's log. Appends to an unknown session
// are dropped; the run may have been evicted while a step was in flight.
func (s *Store) Append(id string, entry schemas.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return
	}
	rec.logs = append(rec.logs, entry)
}

// SetStatus transitions the session's status. Transitions out of a terminal
// state are refused: the status machine is monotonic.
func (s *Store) SetStatus(id string, status schemas.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if rec.status.Terminal() && status != rec.status {
		return errors.New("session status is terminal, refusing transition to " + string(status))
	}
	rec.status = status
	return nil
}

// Status returns the session's current status.
func (s *Store) Status(id string) (schemas.SessionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return rec.status, nil
}

// Snapshot returns a copy of the session's log together with its status.
// The copy keeps callers from observing appends made after the read.
func (s *Store) Snapshot(id string) ([]schemas.LogEntry, schemas.SessionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, "", ErrSessionNotFound
	}
	logs := make([]schemas.LogEntry, len(rec.logs))
	copy(logs, rec.logs)
	return logs, rec.status, nil
}

// AttachBrowser hands the session's browser handle to the store, which
// becomes its owner. The handle stays alive until ReleaseBrowser or Evict.
func (s *Store) AttachBrowser(id string, driver schemas.BrowserDriver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	rec.browser = driver
	return nil
}

// ReleaseBrowser quits and forgets the session's browser handle. A session
// with no handle, or an unknown session, reports ErrSessionNotFound; calling
// twice therefore succeeds once and then reports not found, never panics.
func (s *Store) ReleaseBrowser(id string) error {
	s.mu.Lock()
	rec, ok := s.sessions[id]
	var driver schemas.BrowserDriver
	if ok && rec.browser != nil {
		driver = rec.browser
		rec.browser = nil
	}
	s.mu.Unlock()

	if driver == nil {
		return ErrSessionNotFound
	}

	// Quit outside the lock: browser teardown can block, and holding the
	// store lock through it would stall every other session's polling.
	if err := driver.Quit(); err != nil {
		s.logger.Warn("Browser quit reported an error", zap.String("session_id", id), zap.Error(err))
	}
	s.logger.Info("Browser released", zap.String("session_id", id))
	return nil
}

// HasBrowser reports whether the session currently owns a live handle.
func (s *Store) HasBrowser(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	return ok && rec.browser != nil
}

// Evict removes the session entirely, quitting its browser handle if one is
// still attached.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	rec, ok := s.sessions[id]
	var driver schemas.BrowserDriver
	if ok {
		driver = rec.browser
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if driver != nil {
		_ = driver.Quit()
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when removing a session id that is not
// registered in the store.
var ErrSessionNotFound = errors.New("session not found")

// Session binds an opaque identifier to a dedicated upload directory.
// Sessions are never mutated after creation.
type Session struct {
	ID        string
	Dir       string
	CreatedAt time.Time
}

// SessionStore maps session ids to their on-disk directories. Sessions live
// for the process lifetime; nothing is evicted unless the cleanup job is
// enabled or a collaborator calls Remove.
//
// The store is safe for concurrent use. It does not defend against external
// deletion of a session directory: Lookup never re-checks the disk.
type SessionStore struct {
	mu       sync.RWMutex
	root     string
	sessions map[string]Session
}

// NewSessionStore creates an empty store rooted at root. The root itself
// must already exist; per-session directories are created on demand.
func NewSessionStore(root string) *SessionStore {
	return &SessionStore{
		root:     root,
		sessions: make(map[string]Session),
	}
}

// Root returns the directory session directories are created under.
func (s *SessionStore) Root() string {
	return s.root
}

// Create generates a fresh session id, eagerly creates the session
// directory under the root, and registers the mapping.
func (s *SessionStore) Create() (Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Session{}, fmt.Errorf("create session directory: %w", err)
	}

	sess := Session{ID: id, Dir: dir, CreatedAt: time.Now()}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	sessionsCreatedTotal.Inc()
	activeSessions.Inc()
	return sess, nil
}

// Lookup returns the session registered under id. It is a pure read and
// reports false for any id not returned by Create.
func (s *SessionStore) Lookup(id string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return sess, ok
}

// Remove drops the mapping and deletes the session directory with its
// contents. This is the cleanup hook used by the background sweeper and by
// external collaborators.
func (s *SessionStore) Remove(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	activeSessions.Dec()
	return os.RemoveAll(sess.Dir)
}

// Len returns the number of registered sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// olderThan returns the ids of all sessions created before cutoff.
func (s *SessionStore) olderThan(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

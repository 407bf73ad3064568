package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps review sessions in memory. It is safe for concurrent use
// across HTTP requests; within one session the pipeline runs a single
// logical thread of control, so there is no per-session locking beyond
// the map guard. Data is lost on service restart, which matches the
// review set's lifecycle: it is never auto-persisted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh session in the idle phase.
func (s *Store) Create() *Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Phase:     PhaseIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sessCopy := *sess
	s.sessions[sess.ID] = &sessCopy

	return sess
}

// Get retrieves a session by id. The returned value is a copy; apply
// changes through Save.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	sessCopy := *sess
	return &sessCopy, nil
}

// Save stores the session state, replacing whatever was there.
func (s *Store) Save(sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	sess.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	sessCopy := *sess
	s.sessions[sess.ID] = &sessCopy

	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

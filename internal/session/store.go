package session

import (
	"sync"

	"tusai/internal/domain"
)

// Store keeps live quiz sessions in memory. Sessions are transient by
// design: once finished (or abandoned) they are removed, and the durable
// record lives in the history repository.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.QuizSession
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.QuizSession),
	}
}

// Put registers a session under its ID, replacing any previous entry.
func (s *Store) Put(sess *domain.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session with the given ID, scoped to its owner. A
// session that exists but belongs to another user is reported as not
// found rather than forbidden, so session IDs cannot be probed.
func (s *Store) Get(sessionID, ownerID string) (*domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.OwnerID != ownerID {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

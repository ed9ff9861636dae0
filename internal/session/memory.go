package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-node
// development. Sessions are copied on read and write so callers never
// alias the stored transcript.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create persists a new session.
func (s *MemoryStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.sessions[sess.ID]; exists {
		return ErrConflict
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

// Get retrieves a session by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Session{}, ErrStoreClosed
	}
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return clone(sess), nil
}

// Update overwrites the stored session.
func (s *MemoryStore) Update(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.sessions[sess.ID]; !exists {
		return ErrNotFound
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(sess Session) Session {
	transcript := make([]Message, len(sess.Transcript))
	copy(transcript, sess.Transcript)
	sess.Transcript = transcript
	return sess
}

package session

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrNotFound is returned when a session doesn't exist.
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned when creating a session whose ID exists.
	ErrConflict = errors.New("session already exists")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Store abstracts session persistence. Sessions are keyed uniquely by
// ID; no cross-record operations exist because sessions never
// reference each other. Implementations must be safe for concurrent
// use, but concurrent writers to the same session race
// last-writer-wins.
type Store interface {
	// Create persists a new session. Returns ErrConflict if the ID is
	// already taken.
	Create(ctx context.Context, sess Session) error

	// Get retrieves a session by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (Session, error)

	// Update overwrites the stored session. Returns ErrNotFound if the
	// session was never created.
	Update(ctx context.Context, sess Session) error

	// Close releases any resources held by the store.
	Close() error
}

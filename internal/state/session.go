package state

import (
	"context"
	"sync"
)

// Session scopes one store to one user session. The first Activate performs
// the initial load; later calls return its result without fetching again.
type Session struct {
	store *Store

	once sync.Once
	err  error
}

// NewSession wraps a store.
func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// Store returns the session's store.
func (s *Session) Store() *Store {
	return s.store
}

// Activate loads the remote collection once per session.
func (s *Session) Activate(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.store.Load(ctx)
	})
	return s.err
}

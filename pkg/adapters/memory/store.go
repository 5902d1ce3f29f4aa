// Package memory keeps onboarding sessions in process memory. Sessions are
// lost on exit; it backs tests, the default engine and single-shot chats.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/onboard/pkg/domain"
)

// Store is a ports.StateStore over a map. Values are snapshotted on the way
// in and out, so no caller shares a State with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.State
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.State)}
}

// Save stores a snapshot of state under sessionID.
func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	snap := state.Snapshot()

	s.mu.Lock()
	s.sessions[sessionID] = snap
	s.mu.Unlock()
	return nil
}

// Load returns a snapshot, or domain.ErrSessionNotFound.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.sessions[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

// Delete drops sessionID. Unknown IDs are not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the session IDs in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions)), nil
}

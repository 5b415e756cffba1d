package store

import (
	"context"
	"fmt"
	"sync"

	"paceline/internal/domain/model"
)

// MemoryStore implements Store with a mutex-guarded map. Suited to
// tests and single-process runs without persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]model.LoadState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]model.LoadState)}
}

// GetLoadState returns a copy of the athlete's current state.
func (m *MemoryStore) GetLoadState(_ context.Context, athleteID string) (model.LoadState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[athleteID]
	if !ok {
		return model.LoadState{}, fmt.Errorf("athlete %s: %w", athleteID, ErrNotFound)
	}
	return copyState(state), nil
}

// PutLoadState stores a copy of state keyed by its athlete ID.
func (m *MemoryStore) PutLoadState(_ context.Context, state model.LoadState) error {
	if state.AthleteID == "" {
		return fmt.Errorf("%w: empty athlete id", ErrInvalidState)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.AthleteID] = copyState(state)
	return nil
}

// Close implements Store. The memory store holds no resources.
func (m *MemoryStore) Close() error { return nil }

// copyState detaches the history slice so callers cannot alias stored state.
func copyState(s model.LoadState) model.LoadState {
	out := s
	out.History = append([]model.LoadPoint(nil), s.History...)
	return out
}

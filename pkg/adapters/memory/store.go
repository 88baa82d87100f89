package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	// Copy the request so callers can't mutate stored state through the pointer
	if snap.Request != nil {
		req := *snap.Request
		snap.Request = &req
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = snap
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[key]
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if snap.Request != nil {
		req := *snap.Request
		snap.Request = &req
	}
	return snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/genui/pkg/domain"
)

// Store implements ports.ConversationStore in memory.
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

// Save keeps a copy of the snapshot. Trees are immutable values and are
// shared; only the message list is copied.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	snap.Messages = append([]domain.Message(nil), snap.Messages...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.ConversationID] = snap
	return nil
}

// Load retrieves a copy of the snapshot.
func (s *Store) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrConversationNotFound
	}
	snap.Messages = append([]domain.Message(nil), snap.Messages...)
	return snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored conversation IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

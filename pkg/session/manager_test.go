package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	mu       sync.Mutex
	data     map[string]domain.Snapshot
	inflight map[string]int
	overlaps int
}

func (s *SlowStore) Save(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	if s.data == nil {
		s.data = make(map[string]domain.Snapshot)
		s.inflight = make(map[string]int)
	}
	s.inflight[snap.ConversationID]++
	if s.inflight[snap.ConversationID] > 1 {
		s.overlaps++
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond) // Simulate IO

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[snap.ConversationID]--
	s.data[snap.ConversationID] = snap
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[id]; ok {
		return snap, nil
	}
	return domain.Snapshot{}, domain.ErrConversationNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func TestManager_SerializesStoreWrites(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	conv, err := manager.OpenOrCreate(ctx, "race-test")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.Append(domain.Message{Role: domain.RoleUser, Text: "hi"})
		}()
	}
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Zero(t, store.overlaps)
	assert.Len(t, store.data["race-test"].Messages, 11)
}

func TestManager_OpenRestoresFromStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := session.NewManager(store)
	conv, err := first.Create(ctx)
	require.NoError(t, err)
	conv.Append(domain.Message{Role: domain.RoleAssistant, UI: map[string]any{"text": map[string]any{"content": "x"}}})

	second := session.NewManager(store)
	restored, err := second.Open(ctx, conv.ID())
	require.NoError(t, err)
	snap := restored.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, domain.WelcomeText, snap.Messages[0].Text)
	assert.True(t, snap.Messages[1].HasUI())

	again, err := second.Open(ctx, conv.ID())
	require.NoError(t, err)
	assert.Same(t, restored, again)
}

func TestManager_OpenUnknown(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	_, err := m.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestManager_DeleteCancelsWork(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()
	conv, err := m.Create(ctx)
	require.NoError(t, err)

	_, genCtx := conv.Begin(ctx)
	require.NoError(t, m.Delete(ctx, conv.ID()))
	assert.ErrorIs(t, genCtx.Err(), context.Canceled)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, conv.ID())
}

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests to verify that a
// ConversationStore implementation adheres to the interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	id := "contract-conversation-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.Snapshot{
			ConversationID: id,
			Messages: []domain.Message{
				{ID: "m1", Role: domain.RoleSystem, Text: domain.WelcomeText},
				{ID: "m2", Role: domain.RoleAssistant, UI: map[string]any{"text": map[string]any{"content": "hi"}}},
			},
			EditMode: true,
			Selected: "root",
		}
		require.NoError(t, store.Save(ctx, snap), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, id, loaded.ConversationID)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, "m2", loaded.Messages[1].ID)
		assert.NotNil(t, loaded.Messages[1].UI)
		assert.True(t, loaded.EditMode)
		assert.Equal(t, "root", loaded.Selected)
	})

	t.Run("Saved Snapshot Is Detached", func(t *testing.T) {
		msgs := []domain.Message{{ID: "a", Role: domain.RoleUser, Text: "x"}}
		require.NoError(t, store.Save(ctx, domain.Snapshot{ConversationID: id, Messages: msgs}))
		msgs[0].Text = "changed"

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "x", loaded.Messages[0].Text)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.Snapshot{ConversationID: id}))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-1", id+"-2"
		_ = store.Save(ctx, domain.Snapshot{ConversationID: id1})
		_ = store.Save(ctx, domain.Snapshot{ConversationID: id2})
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunToolCacheContract verifies a ToolCache implementation. advance moves
// the cache's notion of time forward; it is how expiry is tested without
// sleeping.
func RunToolCacheContract(t *testing.T, cache ToolCache, advance func(time.Duration)) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "get_weather:{}", []byte(`{"temperature":"20°C"}`), time.Minute))
		v, ok, err := cache.Get(ctx, "get_weather:{}")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"temperature":"20°C"}`, string(v))
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "short", []byte(`1`), time.Second))
		advance(2 * time.Second)
		_, ok, err := cache.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

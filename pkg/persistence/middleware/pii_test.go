package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)ssn"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	form := map[string]any{"card": map[string]any{"children": []any{
		map[string]any{"input": map[string]any{"label": "Name", "value": "jdoe"}},
		map[string]any{"input": map[string]any{"label": "Password", "type": "password", "value": "secret123"}},
		map[string]any{"text": map[string]any{"content": "ok", "SSN": "999-99-9999"}},
	}}}
	snap := domain.Snapshot{
		ConversationID: "c1",
		Messages:       []domain.Message{{ID: "1", Role: domain.RoleAssistant, UI: form}},
	}
	require.NoError(t, store.Save(ctx, snap))

	children := form["card"].(map[string]any)["children"].([]any)
	assert.Equal(t, "secret123", children[1].(map[string]any)["input"].(map[string]any)["value"],
		"the live tree is untouched")

	stored, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	kids := stored.Messages[0].UI.(map[string]any)["card"].(map[string]any)["children"].([]any)
	assert.Equal(t, "jdoe", kids[0].(map[string]any)["input"].(map[string]any)["value"])
	assert.Equal(t, middleware.Mask, kids[1].(map[string]any)["input"].(map[string]any)["value"])
	assert.Equal(t, middleware.Mask, kids[2].(map[string]any)["text"].(map[string]any)["SSN"])
	assert.Equal(t, "ok", kids[2].(map[string]any)["text"].(map[string]any)["content"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"secret"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: make([]byte, 32)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	snap := domain.Snapshot{ConversationID: "c1", Messages: []domain.Message{
		{ID: "1", Role: domain.RoleAssistant, UI: map[string]any{"text": map[string]any{"content": "x", "secret": "y"}}},
	}}
	require.NoError(t, store.Save(ctx, snap))

	raw, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSystem, raw.Messages[0].Role, "encryption is innermost")

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Messages[0].UI.(map[string]any)["text"].(map[string]any)["secret"])
}

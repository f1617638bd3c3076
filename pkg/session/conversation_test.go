package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/domain"
)

func TestConversation_StartsWithWelcome(t *testing.T) {
	c := NewConversation("")
	snap := c.Snapshot()
	assert.NotEmpty(t, snap.ConversationID)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, domain.RoleSystem, snap.Messages[0].Role)
	assert.Equal(t, domain.WelcomeText, snap.Messages[0].Text)
	assert.Equal(t, domain.DefaultUserContext(), c.Context())
}

func TestConversation_TokenSupersedes(t *testing.T) {
	c := NewConversation("c")
	ctx := context.Background()

	old, oldCtx := c.Begin(ctx)
	assert.True(t, c.SetStreaming(old, map[string]any{"text": map[string]any{}}))
	assert.True(t, c.Snapshot().Loading)

	cur, _ := c.Begin(ctx)
	assert.ErrorIs(t, oldCtx.Err(), context.Canceled)
	assert.Nil(t, c.Snapshot().Streaming)
	assert.False(t, c.Current(old))
	assert.True(t, c.Current(cur))

	assert.False(t, c.SetStreaming(old, "stale"))
	assert.False(t, c.Commit(old, domain.Message{Role: domain.RoleAssistant}))
	assert.Len(t, c.Snapshot().Messages, 1)

	// the superseded chain ends first; the current one keeps loading
	c.End(old)
	assert.True(t, c.Snapshot().Loading)

	assert.True(t, c.Commit(cur, domain.Message{Role: domain.RoleAssistant, UI: "tree"}))
	c.End(cur)
	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Streaming)
	require.Len(t, snap.Messages, 2)
	assert.NotEmpty(t, snap.Messages[1].ID)
}

func TestConversation_MutateIsAtomic(t *testing.T) {
	c := NewConversation("c")
	before := c.Snapshot().Messages

	err := c.Mutate(func(st *State) error {
		st.Messages[0].Text = "changed"
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, domain.WelcomeText, c.Snapshot().Messages[0].Text)
	assert.Equal(t, domain.WelcomeText, before[0].Text)
}

func TestConversation_SubscribersSeeOrderedSnapshots(t *testing.T) {
	c := NewConversation("c")
	var lens []int
	unsub := c.Subscribe(func(s domain.Snapshot) { lens = append(lens, len(s.Messages)) })

	c.Append(domain.Message{Role: domain.RoleUser, Text: "a"})
	c.Append(domain.Message{Role: domain.RoleUser, Text: "b"})
	unsub()
	c.Append(domain.Message{Role: domain.RoleUser, Text: "c"})

	assert.Equal(t, []int{2, 3}, lens)
}

func TestConversation_Busy(t *testing.T) {
	c := NewConversation("c")
	done := c.Busy()
	assert.True(t, c.Snapshot().Loading)
	done()
	done()
	assert.False(t, c.Snapshot().Loading)
}

package runtime_test

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/internal/runtime"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/session"
	"github.com/aretw0/genui/pkg/treepath"
)

const signupForm = `{"card": {"title": "Sign up", "children": [
	{"input": {"label": "Name", "placeholder": "Jane"}},
	{"input": {"label": "Email", "value": "jane@example.com"}},
	{"table": {"headers": ["Plan"], "rows": [[{"input": {"label": "Seats", "value": "3"}}]]}},
	{"button": {"label": "Send", "action": {"type": "SUBMIT_FORM"}}}
]}}`

// withTree returns a conversation whose newest message owns doc.
func withTree(t *testing.T, doc string) *session.Conversation {
	t.Helper()
	conv := session.NewConversation("")
	conv.Append(domain.Message{Role: domain.RoleAssistant, UI: parse(t, doc)})
	return conv
}

func lastUI(conv *session.Conversation) any {
	msgs := conv.Snapshot().Messages
	return msgs[domain.LastUIIndex(msgs)].UI
}

type effectSink struct {
	mu      sync.Mutex
	effects []domain.Effect
}

func (s *effectSink) Trigger(ctx context.Context, conversationID string, effect domain.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, effect)
	return nil
}

// ptr identifies a map or slice so tests can check structural sharing.
func ptr(v any) uintptr { return reflect.ValueOf(v).Pointer() }

func TestDispatch_PatchStateMerges(t *testing.T) {
	conv := session.NewConversation("")
	conv.Append(
		domain.Message{Role: domain.RoleAssistant, UI: parse(t, `{"stat": {"label": "Users", "value": "42"}}`)},
		domain.Message{Role: domain.RoleAssistant, UI: parse(t, signupForm)},
	)
	msgsBefore := conv.Snapshot().Messages
	before := lastUI(conv)
	engine := runtime.NewEngine(memory.NewModel(), nil)

	err := engine.Dispatch(context.Background(), conv, domain.Action{
		Type:    domain.ActionPatchState,
		Path:    "root.card.children.0.input",
		Payload: map[string]any{"value": "Ada"},
	})
	require.NoError(t, err)

	after := lastUI(conv)
	input, ok := treepath.GetString(after, "card.children.0.input")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"label": "Name", "placeholder": "Jane", "value": "Ada"}, input)

	old, _ := treepath.GetString(before, "card.children.0.input")
	assert.NotContains(t, old, "value", "the previous tree is left untouched")

	msgsAfter := conv.Snapshot().Messages
	require.Len(t, msgsAfter, len(msgsBefore))
	assert.Equal(t, ptr(msgsBefore[len(msgsBefore)-2].UI), ptr(msgsAfter[len(msgsAfter)-2].UI), "other messages keep their trees")

	oldKids, _ := treepath.GetString(before, "card.children")
	newKids, _ := treepath.GetString(after, "card.children")
	for i := 1; i < 4; i++ {
		assert.Equal(t, ptr(oldKids.([]any)[i]), ptr(newKids.([]any)[i]), "sibling %d is shared", i)
	}
	assert.NotEqual(t, ptr(oldKids.([]any)[0]), ptr(newKids.([]any)[0]))
}

func TestDispatch_PatchStateRefusesIndexPastEnd(t *testing.T) {
	var logs bytes.Buffer
	rec := &recorder{}
	conv := withTree(t, `{"container": {"children": []}}`)
	before := lastUI(conv)
	engine := runtime.NewEngine(memory.NewModel(), nil,
		runtime.WithLogger(logging.NewWithWriter(&logs, slog.LevelWarn, logging.FormatText)),
		runtime.WithLifecycleHooks(rec.hooks()))

	require.NoError(t, engine.Dispatch(context.Background(), conv, domain.Action{
		Type:    domain.ActionPatchState,
		Path:    "root.container.children.50000000.input",
		Payload: map[string]any{"value": "x"},
	}))

	assert.Equal(t, ptr(before), ptr(lastUI(conv)), "tree is unchanged")
	kids, _ := treepath.GetString(lastUI(conv), "container.children")
	assert.Empty(t, kids)
	assert.Contains(t, logs.String(), "malformed patch ignored")
	require.Len(t, rec.acts, 1)
	assert.False(t, rec.acts[0].Handled)

	// appending at the end is still allowed
	require.NoError(t, engine.Dispatch(context.Background(), conv, domain.Action{
		Type:    domain.ActionPatchState,
		Path:    "root.container.children.0.input",
		Payload: map[string]any{"label": "Name"},
	}))
	kids, _ = treepath.GetString(lastUI(conv), "container.children")
	assert.Len(t, kids, 1)
}

func TestDispatch_PatchStatePrefersStreamingTree(t *testing.T) {
	conv := withTree(t, signupForm)
	engine := runtime.NewEngine(memory.NewModel(), nil)

	token, _ := conv.Begin(context.Background())
	defer conv.End(token)
	require.True(t, conv.SetStreaming(token, parse(t, `{"input": {"label": "Live"}}`)))

	require.NoError(t, engine.Dispatch(context.Background(), conv, domain.Action{
		Type:    domain.ActionPatchState,
		Path:    "root.input",
		Payload: map[string]any{"value": "typed"},
	}))

	assert.Equal(t, map[string]any{"input": map[string]any{"label": "Live", "value": "typed"}}, conv.Snapshot().Streaming)
	v, _ := treepath.GetString(lastUI(conv), "card.children.1.input.value")
	assert.Equal(t, "jane@example.com", v)
}

func TestDispatch_IgnoredActions(t *testing.T) {
	rec := &recorder{}
	engine := runtime.NewEngine(memory.NewModel(), nil, runtime.WithLifecycleHooks(rec.hooks()))
	conv := session.NewConversation("")

	actions := []domain.Action{
		{Type: domain.ActionPatchState, Path: "root.input", Payload: map[string]any{"value": "x"}},
		{Type: domain.ActionPatchState},
		{Type: "OPEN_MODAL"},
		{Type: domain.ActionTriggerEffect, Payload: map[string]any{"effect": "FIREWORKS"}},
		{Type: domain.ActionSubmitForm},
	}
	for _, a := range actions {
		assert.NoError(t, engine.Dispatch(context.Background(), conv, a))
	}

	require.Len(t, rec.acts, len(actions))
	for _, ev := range rec.acts {
		assert.False(t, ev.Handled, ev.Action.String())
	}
	assert.Len(t, conv.Snapshot().Messages, 1)
}

func TestDispatch_TriggerEffect(t *testing.T) {
	sink := &effectSink{}
	engine := runtime.NewEngine(memory.NewModel(), nil, runtime.WithEffectSink(sink))
	conv := withTree(t, signupForm)
	before := lastUI(conv)

	for _, effect := range []string{"CONFETTI", "SNOW"} {
		require.NoError(t, engine.Dispatch(context.Background(), conv, domain.Action{
			Type:    domain.ActionTriggerEffect,
			Payload: map[string]any{"effect": effect},
		}))
	}
	assert.Equal(t, []domain.Effect{domain.EffectConfetti, domain.EffectSnow}, sink.effects)
	assert.Equal(t, before, lastUI(conv))
}

func TestDispatch_SubmitForm(t *testing.T) {
	model := memory.NewModel(script(`{"alert": {"title": "Thanks!", "variant": "SUCCESS"}}`, 7))
	engine := runtime.NewEngine(model, nil)
	conv := withTree(t, signupForm)

	require.NoError(t, engine.Dispatch(context.Background(), conv, domain.Action{Type: domain.ActionSubmitForm}))

	reqs := model.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "User Submitted Form Data: {\n  \"Email\": \"jane@example.com\",\n  \"Name\": \"\",\n  \"Seats\": \"3\"\n}", reqs[0].Prompt)
	assert.Equal(t, runtime.FormOriginal, reqs[0].Original)

	msgs := conv.Snapshot().Messages
	assert.Equal(t, "Submitting form data...", msgs[len(msgs)-2].Text)
	assert.Equal(t, domain.RoleAssistant, msgs[len(msgs)-1].Role)
}

func TestCollectFormData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want map[string]any
	}{
		{name: "none", doc: `{"text": {"content": "hi"}}`, want: map[string]any{}},
		{name: "top level", doc: `{"input": {"label": "Q", "value": "a"}}`, want: map[string]any{"Q": "a"}},
		{name: "unlabelled", doc: `{"input": {"placeholder": "x"}}`, want: map[string]any{}},
		{
			name: "accordion content",
			doc:  `{"accordion": {"items": [{"title": "More", "content": [{"input": {"label": "Notes", "value": "n"}}]}]}}`,
			want: map[string]any{"Notes": "n"},
		},
		{
			name: "bento grid",
			doc:  `{"bento_container": {"children": [{"bento_card": {"children": [{"input": {"label": "City"}}]}}]}}`,
			want: map[string]any{"City": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.CollectFormData(parse(t, tt.doc)))
		})
	}
}

func TestInput_DebouncesToOnePatch(t *testing.T) {
	mock := clock.NewMock()
	rec := &recorder{}
	engine := runtime.NewEngine(memory.NewModel(), nil,
		runtime.WithClock(mock),
		runtime.WithLifecycleHooks(rec.hooks()),
	)
	defer engine.Close()
	conv := withTree(t, signupForm)
	path := "root.card.children.0.input"

	for _, v := range []string{"A", "Ad", "Ada"} {
		engine.Input(context.Background(), conv, path, v)
		mock.Add(100 * time.Millisecond)
	}
	v, _ := treepath.GetString(lastUI(conv), "card.children.0.input.value")
	assert.Nil(t, v, "nothing is committed while typing")

	mock.Add(300 * time.Millisecond)
	require.Eventually(t, func() bool {
		v, _ := treepath.GetString(lastUI(conv), "card.children.0.input.value")
		return v == "Ada"
	}, time.Second, time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.acts, 1)
}

func TestEditMode(t *testing.T) {
	engine := runtime.NewEngine(memory.NewModel(), nil)
	conv := withTree(t, signupForm)

	engine.SetEditMode(conv, true)
	require.NoError(t, engine.Select(conv, "root.card.children.1"))
	snap := conv.Snapshot()
	assert.True(t, snap.EditMode)
	assert.Equal(t, "root.card.children.1", snap.Selected)

	assert.ErrorIs(t, engine.Select(conv, "root.card.children.9"), domain.ErrNothingSelected)
	assert.Equal(t, "root.card.children.1", conv.Snapshot().Selected)

	engine.SetEditMode(conv, false)
	assert.Empty(t, conv.Snapshot().Selected)

	assert.ErrorIs(t, engine.Select(session.NewConversation(""), "root.card"), domain.ErrNoUITree)
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
)

func newTestHeadless(t *testing.T, model *memory.Model) (*Headless, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	events := NewEventWriter(&out)
	client, err := genui.New(
		genui.WithModel(model),
		genui.WithEffectSink(events),
		genui.WithDebounceDelay(time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	snap, err := client.Create(context.Background())
	require.NoError(t, err)
	return NewHeadless(client, snap.ConversationID, events), &out
}

func decodeEvents(t *testing.T, out *bytes.Buffer) []Event {
	t.Helper()
	var evs []Event
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), sc.Text())
		evs = append(evs, ev)
	}
	return evs
}

func TestHeadless_Run(t *testing.T) {
	h, out := newTestHeadless(t, memory.NewModel(memory.Script{Chunks: []string{weatherCard}}))
	input := strings.Join([]string{
		"weather in tokyo",
		`{"op": "dispatch", "action": {"type": "TRIGGER_EFFECT", "payload": {"effect": "SNOW"}}}`,
		`{"op": "input", "path": "root.card.children.2.input", "value": "Lisbon"}`,
		`{"op": "render"}`,
		`{"op": "frobnicate"}`,
		`{"op": "quit"}`,
		`ignored`,
	}, "\n")
	require.NoError(t, h.Run(context.Background(), strings.NewReader(input)))

	evs := decodeEvents(t, out)
	var types []string
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		EventSnapshot, // initial
		EventSnapshot, // submit
		EventEffect, EventSnapshot,
		EventSnapshot, // input
		EventView,
		EventError,
	}, types)

	assert.Empty(t, evs[0].Snapshot.Messages)
	assert.Equal(t, domain.EffectSnow, evs[2].Effect)
	raw, err := json.Marshal(evs[4].Snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Lisbon")
	assert.Equal(t, "root", evs[5].View.Path)
	assert.Contains(t, evs[6].Error, `unknown op "frobnicate"`)
}

func TestHeadless_Errors(t *testing.T) {
	h, _ := newTestHeadless(t, memory.NewModel())
	ctx := context.Background()

	assert.ErrorContains(t, h.Handle(ctx, `{"op": `), "invalid command")
	assert.ErrorContains(t, h.Handle(ctx, `{"op": "dispatch"}`), "needs an action")
	assert.ErrorIs(t, h.Handle(ctx, `{"op": "render"}`), domain.ErrNoUITree)
	assert.ErrorIs(t, h.Handle(ctx, `{"op": "refine", "text": "x"}`), domain.ErrNothingSelected)

	t.Setenv(EnvInputLimit, "4")
	assert.ErrorIs(t, h.Handle(ctx, "much too long"), ErrInputTooLarge)
}

func TestHeadless_EOF(t *testing.T) {
	h, out := newTestHeadless(t, memory.NewModel())
	err := h.Run(context.Background(), strings.NewReader(`{"op": "snapshot"}`+"\n"))
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, decodeEvents(t, out), 2)
}

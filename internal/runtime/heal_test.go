package runtime_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/internal/runtime"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
	"github.com/aretw0/genui/pkg/session"
	"github.com/aretw0/genui/pkg/treepath"
)

const overloaded = `{"container": {"children": [
	{"progress": {"label": "CPU", "value": 150}},
	{"text": {"content": "fine"}}
]}}`

const brokenPath = "root.container.children.0"

func lastMessage(conv *session.Conversation) domain.Message {
	msgs := conv.Snapshot().Messages
	return msgs[len(msgs)-1]
}

func TestHeal_RepairsFailedSubtree(t *testing.T) {
	var calls atomic.Int32
	model := memory.NewModel()
	model.FixFunc = func(ctx context.Context, errMsg string, subtree any) (any, error) {
		calls.Add(1)
		assert.Contains(t, errMsg, "progress")
		assert.Equal(t, parse(t, `{"progress": {"label": "CPU", "value": 150}}`), subtree)
		return parse(t, `{"progress": {"label": "CPU", "value": 100}}`), nil
	}
	rec := &recorder{}
	engine := runtime.NewEngine(model, nil, runtime.WithLifecycleHooks(rec.hooks()))
	conv := withTree(t, overloaded)
	owner := lastMessage(conv)

	r := engine.Renderer(context.Background(), conv, owner.ID)
	root := r.Render(owner.UI, "")
	el := render.Find(root, brokenPath)
	require.NotNil(t, el)
	assert.Equal(t, render.StatusRepairing, el.Status)
	assert.Equal(t, render.StatusOK, render.Find(root, "root.container.children.1").Status)

	// rendering again while the repair is in flight does not ask twice
	r.Render(owner.UI, "")
	engine.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Auto-Healed component at "+brokenPath, lastMessage(conv).Text)
	healed := lastUI(conv)
	v, _ := treepath.GetString(healed, brokenPath+".progress.value")
	assert.Equal(t, 100.0, v)
	assert.Equal(t, render.StatusOK, render.Find(r.Render(healed, ""), brokenPath).Status)

	require.Len(t, rec.heals, 1)
	assert.True(t, rec.heals[0].Healed)
	require.NotEmpty(t, rec.fails)
	assert.Equal(t, "progress", rec.fails[0].Component)
}

func TestHeal_FailureIsFinal(t *testing.T) {
	tests := []struct {
		name string
		fix  func(ctx context.Context, errMsg string, subtree any) (any, error)
		want string
	}{
		{
			name: "model error",
			fix: func(ctx context.Context, errMsg string, subtree any) (any, error) {
				return nil, errors.New("model offline")
			},
			want: "Auto-Healing failed: model offline",
		},
		{
			name: "invalid replacement",
			fix: func(ctx context.Context, errMsg string, subtree any) (any, error) {
				return map[string]any{"gauge": map[string]any{"value": 1}}, nil
			},
			want: "Auto-Healing failed: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			model := memory.NewModel()
			model.FixFunc = func(ctx context.Context, errMsg string, subtree any) (any, error) {
				calls.Add(1)
				return tt.fix(ctx, errMsg, subtree)
			}
			engine := runtime.NewEngine(model, nil)
			conv := withTree(t, overloaded)
			owner := lastMessage(conv)
			r := engine.Renderer(context.Background(), conv, owner.ID)

			r.Render(owner.UI, "")
			engine.Wait()

			assert.Contains(t, lastMessage(conv).Text, tt.want)
			assert.Equal(t, owner.UI, lastUI(conv))

			el := render.Find(r.Render(owner.UI, ""), brokenPath)
			assert.Equal(t, render.StatusFailed, el.Status)
			engine.Wait()
			assert.Equal(t, int32(1), calls.Load(), "no retry loop")
		})
	}
}

func TestRenderer_StreamingTreeIsNotHealed(t *testing.T) {
	model := memory.NewModel()
	model.FixFunc = func(ctx context.Context, errMsg string, subtree any) (any, error) {
		t.Fatal("streaming trees are not repaired")
		return nil, nil
	}
	engine := runtime.NewEngine(model, nil)
	conv := session.NewConversation("")

	el := render.Find(engine.Renderer(context.Background(), conv, "").Render(parse(t, overloaded), ""), brokenPath)
	assert.Equal(t, render.StatusFailed, el.Status)
	engine.Wait()
}

func TestRenderer_ReportsClassificationMisses(t *testing.T) {
	rec := &recorder{}
	engine := runtime.NewEngine(memory.NewModel(), nil, runtime.WithLifecycleHooks(rec.hooks()))
	conv := session.NewConversation("c9")

	root := engine.Renderer(context.Background(), conv, "").Render(parse(t, `{"card": {"children": [{"carousel": {"slides": []}}]}}`), "")
	el := render.Find(root, "root.card.children.0")
	require.NotNil(t, el)
	assert.Equal(t, render.StatusDiagnostic, el.Status)
	assert.Equal(t, "carousel", el.Key)

	require.Len(t, rec.misses, 1)
	assert.Equal(t, []string{"carousel"}, rec.misses[0].Keys)
	assert.Equal(t, "c9", rec.misses[0].ConversationID)
}

func TestRefine(t *testing.T) {
	model := memory.NewModel()
	model.RefineFunc = func(ctx context.Context, instruction string, subtree any) (any, error) {
		assert.Equal(t, "make it red", instruction)
		assert.Equal(t, parse(t, `{"button": {"label": "Send", "action": {"type": "SUBMIT_FORM"}}}`), subtree)
		return parse(t, `{"button": {"label": "Send", "variant": "DANGER"}}`), nil
	}
	engine := runtime.NewEngine(model, nil)
	conv := withTree(t, signupForm)
	engine.SetEditMode(conv, true)
	require.NoError(t, engine.Select(conv, "root.card.children.3"))

	require.NoError(t, engine.Submit(context.Background(), conv, "make it red"))

	msgs := conv.Snapshot().Messages
	assert.Equal(t, []string{
		"user: Refine selected component: make it red",
		"system: Component updated successfully.",
	}, texts(msgs[len(msgs)-2:]))
	v, _ := treepath.GetString(lastUI(conv), "card.children.3.button.variant")
	assert.Equal(t, "DANGER", v)
	assert.Empty(t, model.Requests(), "refinement does not stream")
	assert.False(t, conv.Snapshot().Loading)
}

func TestRefine_Failures(t *testing.T) {
	t.Run("invalid result", func(t *testing.T) {
		model := memory.NewModel()
		model.RefineFunc = func(ctx context.Context, instruction string, subtree any) (any, error) {
			return "not a node", nil
		}
		engine := runtime.NewEngine(model, nil)
		conv := withTree(t, signupForm)
		before := lastUI(conv)
		require.NoError(t, engine.Select(conv, "root"))

		require.NoError(t, engine.Refine(context.Background(), conv, "shrink"))
		assert.Equal(t, "Failed to refine component.", lastMessage(conv).Text)
		assert.Equal(t, before, lastUI(conv))
	})

	t.Run("preconditions", func(t *testing.T) {
		engine := runtime.NewEngine(memory.NewModel(), nil)
		assert.ErrorIs(t, engine.Refine(context.Background(), withTree(t, signupForm), "x"), domain.ErrNothingSelected)
		assert.ErrorIs(t, engine.Refine(context.Background(), nil, "x"), runtime.ErrNilConversation)
	})
}

package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/session"
	"github.com/aretw0/genui/pkg/treepath"
)

const submittingText = "Submitting form data..."

// FormOriginal is the request text recorded for form submissions.
const FormOriginal = "Form Submission"

// Dispatch handles an action raised by an interactive component. Unknown
// and malformed actions are logged and ignored. SUBMIT_FORM blocks for the
// generation it starts.
func (e *Engine) Dispatch(ctx context.Context, conv *session.Conversation, action domain.Action) error {
	if conv == nil {
		return ErrNilConversation
	}
	handled := true
	var err error
	switch action.Type {
	case domain.ActionPatchState:
		handled, err = e.patch(conv, action)
	case domain.ActionTriggerEffect:
		handled = e.trigger(ctx, conv, action)
	case domain.ActionSubmitForm:
		handled, err = e.submitForm(ctx, conv)
	case domain.ActionNavigate:
		e.logger.Info("navigate requested", "conversation", conv.ID(), "payload", action.Payload)
	default:
		handled = false
		e.logger.Warn("unknown action", "conversation", conv.ID(), "action", action.String())
	}

	emit(ctx, e.hooks.OnAction, &domain.ActionEvent{
		EventBase: e.base(domain.EventAction, conv.ID(), ""),
		Action:    action,
		Handled:   handled,
	})
	return err
}

// patch merges the payload into the live tree: the streaming tree when a
// generation is in flight, else the newest committed one.
func (e *Engine) patch(conv *session.Conversation, action domain.Action) (bool, error) {
	if action.Path == "" {
		e.logger.Warn("patch without path ignored", "conversation", conv.ID())
		return false, nil
	}
	p := treepath.Parse(action.Path)
	err := conv.Mutate(func(st *session.State) (err error) {
		if st.Streaming != nil {
			st.Streaming, err = treepath.TryMerge(st.Streaming, p, action.Payload)
			return err
		}
		i := domain.LastUIIndex(st.Messages)
		if i < 0 {
			return domain.ErrNoUITree
		}
		st.Messages[i].UI, err = treepath.TryMerge(st.Messages[i].UI, p, action.Payload)
		return err
	})
	switch {
	case errors.Is(err, treepath.ErrIndexOutOfRange), errors.Is(err, treepath.ErrFieldOnSlice):
		e.logger.Warn("malformed patch ignored", "conversation", conv.ID(), "path", action.Path, "err", err)
		return false, nil
	case err != nil:
		e.logger.Warn("patch ignored", "conversation", conv.ID(), "path", action.Path, "err", err)
		return false, nil
	}
	return true, nil
}

func (e *Engine) trigger(ctx context.Context, conv *session.Conversation, action domain.Action) bool {
	effect, ok := action.Effect()
	if !ok {
		e.logger.Warn("unknown effect", "conversation", conv.ID(), "payload", action.Payload)
		return false
	}
	if e.effects == nil {
		e.logger.Debug("no effect sink", "effect", effect)
		return false
	}
	if err := e.effects.Trigger(ctx, conv.ID(), effect); err != nil {
		e.logger.Warn("effect failed", "conversation", conv.ID(), "effect", effect, "err", err)
		return false
	}
	return true
}

func (e *Engine) submitForm(ctx context.Context, conv *session.Conversation) (bool, error) {
	snap := conv.Snapshot()
	i := domain.LastUIIndex(snap.Messages)
	if i < 0 {
		e.logger.Warn("form submitted without a tree", "conversation", conv.ID())
		return false, nil
	}
	data := CollectFormData(snap.Messages[i].UI)
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, err
	}
	conv.Append(system(submittingText))
	return true, e.Generate(ctx, conv, "User Submitted Form Data: "+string(encoded), FormOriginal)
}

// CollectFormData maps the label of every input in tree to its value. It
// descends into every object and array, not only children, so inputs in
// cards, accordions and table cells are found too. On duplicate labels the
// input visited last wins; object keys are visited in sorted order.
func CollectFormData(tree any) map[string]any {
	data := make(map[string]any)
	collect(tree, data)
	return data
}

func collect(v any, data map[string]any) {
	switch n := v.(type) {
	case map[string]any:
		if input, ok := n[string(domain.ComponentInput)].(map[string]any); ok {
			if label, ok := input["label"].(string); ok && label != "" {
				value := input["value"]
				if value == nil {
					value = ""
				}
				data[label] = value
			}
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collect(n[k], data)
		}
	case []any:
		for _, child := range n {
			collect(child, data)
		}
	}
}

// Input records an edit to the input at path. Bursts of edits to the same
// input are committed once, as a PATCH_STATE of the final value, after the
// debounce delay.
func (e *Engine) Input(ctx context.Context, conv *session.Conversation, path string, value string) {
	if conv == nil {
		return
	}
	key := conv.ID() + "|" + path
	e.debouncer.Trigger(key, func() {
		_ = e.Dispatch(context.WithoutCancel(ctx), conv, domain.Action{
			Type:    domain.ActionPatchState,
			Path:    path,
			Payload: map[string]any{"value": value},
		})
	})
}

package runtime

import (
	"context"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/session"
	"github.com/aretw0/genui/pkg/treepath"
)

const (
	refinedText      = "Component updated successfully."
	refineFailedText = "Failed to refine component."
)

// SetEditMode turns edit mode on or off. Leaving edit mode clears the
// selection.
func (e *Engine) SetEditMode(conv *session.Conversation, on bool) {
	_ = conv.Mutate(func(st *session.State) error {
		st.EditMode = on
		if !on {
			st.Selected = ""
		}
		return nil
	})
}

// Select marks the node at path of the newest tree for refinement. An empty
// path clears the selection.
func (e *Engine) Select(conv *session.Conversation, path string) error {
	if conv == nil {
		return ErrNilConversation
	}
	return conv.Mutate(func(st *session.State) error {
		if path == "" {
			st.Selected = ""
			return nil
		}
		i := domain.LastUIIndex(st.Messages)
		if i < 0 {
			return domain.ErrNoUITree
		}
		if v, ok := treepath.Get(st.Messages[i].UI, treepath.Parse(path)); !ok || v == nil {
			return domain.ErrNothingSelected
		}
		st.Selected = path
		return nil
	})
}

// Refine rewrites the selected component of the newest tree following
// instruction. A model failure or an invalid replacement is reported as a
// system message; the returned error covers missing preconditions and a
// cancelled ctx.
func (e *Engine) Refine(ctx context.Context, conv *session.Conversation, instruction string) error {
	if conv == nil {
		return ErrNilConversation
	}
	snap := conv.Snapshot()
	if snap.Selected == "" {
		return domain.ErrNothingSelected
	}
	i := domain.LastUIIndex(snap.Messages)
	if i < 0 {
		return domain.ErrNoUITree
	}
	owner := snap.Messages[i]
	rel := treepath.Parse(snap.Selected)
	subtree, ok := treepath.Get(owner.UI, rel)
	if !ok || subtree == nil {
		return domain.ErrNothingSelected
	}

	done := conv.Busy()
	defer done()
	conv.Append(domain.Message{Role: domain.RoleUser, Text: "Refine selected component: " + instruction})

	refined, err := e.model.Refine(ctx, instruction, subtree)
	if err == nil {
		_, err = e.validator.Validate(refined)
	}
	if err == nil {
		err = conv.Mutate(func(st *session.State) error {
			j := messageIndex(st.Messages, owner.ID)
			if j < 0 {
				return domain.ErrNoUITree
			}
			st.Messages[j].UI = treepath.Set(st.Messages[j].UI, rel, refined)
			st.Messages = append(st.Messages, system(refinedText))
			return nil
		})
	}
	if err != nil {
		e.logger.Warn("refine failed", "conversation", conv.ID(), "path", snap.Selected, "err", err)
		conv.Append(system(refineFailedText))
		return ctx.Err()
	}
	return nil
}

package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
	"github.com/aretw0/genui/pkg/session"
	"github.com/aretw0/genui/pkg/treepath"
)

// healState tracks repairs per conversation, message and path. A path gets
// one repair attempt; after it, later failures there stay failed.
type healState int

const (
	healInFlight healState = iota + 1
	healDone
	healFailed
)

// Renderer returns a renderer for the tree owned by message msgID. Render
// failures and classification misses are reported through hooks, and a
// failed subtree of a committed tree is repaired in the background. An
// empty msgID denotes the streaming tree, whose failures are not repaired.
func (e *Engine) Renderer(ctx context.Context, conv *session.Conversation, msgID string, opts ...render.Option) *render.Renderer {
	convID := conv.ID()
	validator := catalog.NewValidator(
		catalog.WithLogger(e.logger),
		catalog.WithMissHandler(func(keys []string, sample string) {
			emit(ctx, e.hooks.OnClassificationMiss, &domain.NodeEvent{
				EventBase: e.base(domain.EventClassificationMiss, convID, ""),
				Keys:      keys,
				Sample:    sample,
			})
		}),
	)
	onFailure := func(err error, node any, path string) bool {
		ev := &domain.NodeEvent{
			EventBase: e.base(domain.EventRenderFailure, convID, ""),
			Path:      path,
			Error:     err.Error(),
		}
		var rerr *render.RenderError
		if errors.As(err, &rerr) {
			ev.Component = string(rerr.Component)
		}
		emit(ctx, e.hooks.OnRenderFailure, ev)
		if msgID == "" {
			return false
		}
		return e.startHeal(ctx, conv, msgID, err, node, path)
	}
	base := []render.Option{
		render.WithValidator(validator),
		render.WithLogger(e.logger),
		render.OnFailure(onFailure),
	}
	return render.New(append(base, opts...)...)
}

func (e *Engine) startHeal(ctx context.Context, conv *session.Conversation, msgID string, cause error, node any, path string) bool {
	key := conv.ID() + "|" + msgID + "|" + path
	e.healMu.Lock()
	switch e.healing[key] {
	case healInFlight:
		e.healMu.Unlock()
		return true
	case healDone, healFailed:
		e.healMu.Unlock()
		return false
	}
	e.healing[key] = healInFlight
	e.healMu.Unlock()

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), healTimeout)
		defer cancel()

		state := healDone
		if err := e.Heal(hctx, conv, msgID, cause.Error(), node, path); err != nil {
			state = healFailed
		}
		e.healMu.Lock()
		e.healing[key] = state
		e.healMu.Unlock()
	}()
	return true
}

// Heal asks the model to repair the subtree at path of message msgID, which
// failed with errMsg, and splices the validated replacement in. The outcome
// is appended as a system message either way.
func (e *Engine) Heal(ctx context.Context, conv *session.Conversation, msgID, errMsg string, node any, path string) error {
	if conv == nil {
		return ErrNilConversation
	}
	fixed, err := e.model.Fix(ctx, errMsg, node)
	if err == nil {
		_, err = e.validator.Validate(fixed)
	}
	if err == nil {
		rel := treepath.Parse(path)
		err = conv.Mutate(func(st *session.State) error {
			i := messageIndex(st.Messages, msgID)
			if i < 0 {
				return domain.ErrNoUITree
			}
			st.Messages[i].UI = treepath.Set(st.Messages[i].UI, rel, fixed)
			st.Messages = append(st.Messages, system("Auto-Healed component at "+path))
			return nil
		})
	}

	emit(ctx, e.hooks.OnHeal, &domain.NodeEvent{
		EventBase: e.base(domain.EventHeal, conv.ID(), ""),
		Path:      path,
		Error:     errString(err),
		Healed:    err == nil,
	})
	if err != nil {
		e.logger.Warn("auto-heal failed", "conversation", conv.ID(), "path", path, "err", err)
		conv.Append(system(fmt.Sprintf("Auto-Healing failed: %v", err)))
		return err
	}
	e.logger.Info("auto-healed component", "conversation", conv.ID(), "path", path)
	return nil
}

func messageIndex(msgs []domain.Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id && msgs[i].HasUI() {
			return i
		}
	}
	return -1
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/partialjson"
	"github.com/aretw0/genui/pkg/ports"
	"github.com/aretw0/genui/pkg/session"
)

// ErrNilConversation is returned when an operation is called without a
// conversation.
var ErrNilConversation = errors.New("nil conversation")

const (
	streamErrorText = "Error rendering stream. Check settings."
	cancelledText   = "Generation cancelled."
	malformedText   = "The model requested a tool without a name; the request was ignored."
)

// chain is one generation and its tool follow-ups. All of them share the
// token obtained from the conversation.
type chain struct {
	conv     *session.Conversation
	token    string
	original string
	seen     map[string]bool
}

func system(text string) domain.Message {
	return domain.Message{Role: domain.RoleSystem, Text: text}
}

// Submit answers user text. In edit mode with a selection the text refines
// the selected component; otherwise it is appended as a user message and a
// generation starts.
func (e *Engine) Submit(ctx context.Context, conv *session.Conversation, text string) error {
	if conv == nil {
		return ErrNilConversation
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	snap := conv.Snapshot()
	if snap.EditMode && snap.Selected != "" {
		return e.Refine(ctx, conv, text)
	}
	conv.Append(domain.Message{Role: domain.RoleUser, Text: text})
	return e.Generate(ctx, conv, text, text)
}

// Generate streams a model answer to prompt into conv, following tool calls
// until the model produces UI. original is the user request the answer is
// for; tool follow-up prompts repeat it.
//
// Starting a generation supersedes the one in flight on the same
// conversation. Failures are reported as system messages and through hooks;
// the returned error is non-nil only for a nil conversation or a cancelled
// ctx.
func (e *Engine) Generate(ctx context.Context, conv *session.Conversation, prompt, original string) error {
	if conv == nil {
		return ErrNilConversation
	}
	token, gctx := conv.Begin(ctx)
	defer conv.End(token)

	ch := &chain{conv: conv, token: token, original: original, seen: make(map[string]bool)}
	for depth := 0; ; depth++ {
		call := e.generate(gctx, ch, prompt, depth)
		if call == nil {
			break
		}
		next, ok := e.callTool(gctx, ch, *call)
		if !ok {
			break
		}
		prompt = next
	}
	return ctx.Err()
}

// generate runs one model turn. It returns the tool call to follow, or nil
// when the chain is over.
func (e *Engine) generate(ctx context.Context, ch *chain, prompt string, depth int) *domain.ToolCall {
	convID := ch.conv.ID()
	start := e.clock.Now()
	emit(ctx, e.hooks.OnGenerationStart, &domain.GenerationEvent{
		EventBase: e.base(domain.EventGenerationStart, convID, ch.token),
		Prompt:    prompt,
		Depth:     depth,
	})

	bytes := 0
	end := func(outcome domain.Outcome, err error) {
		ev := &domain.GenerationEvent{
			EventBase: e.base(domain.EventGenerationEnd, convID, ch.token),
			Depth:     depth,
			Bytes:     bytes,
			Outcome:   outcome,
			Elapsed:   e.clock.Since(start),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		emit(ctx, e.hooks.OnGenerationEnd, ev)
	}

	stream, err := e.model.Stream(ctx, ports.GenerateRequest{
		Prompt:   prompt,
		Original: ch.original,
		Context:  ch.conv.Context(),
	})
	if err != nil {
		end(e.streamFailed(ctx, ch, err), err)
		return nil
	}
	defer stream.Close()

	var raw strings.Builder
	var live any
	detected := false
	for stream.Next() {
		chunk := stream.Chunk()
		if raw.Len() == 0 && chunk != "" {
			emit(ctx, e.hooks.OnFirstChunk, &domain.GenerationEvent{
				EventBase: e.base(domain.EventFirstChunk, convID, ch.token),
				Depth:     depth,
				Elapsed:   e.clock.Since(start),
			})
		}
		raw.WriteString(chunk)
		bytes = raw.Len()
		if detected {
			// arguments may still be streaming; the final parse reads them
			continue
		}

		frame, ok := partialjson.Parse(raw.String())
		if !ok {
			continue
		}
		if domain.DetectToolCall(frame) {
			detected = true
			ch.conv.SetStreaming(ch.token, nil)
			continue
		}
		if _, isObject := frame.(map[string]any); !isObject {
			continue
		}
		live = frame
		if !ch.conv.SetStreaming(ch.token, frame) {
			end(domain.OutcomeStale, domain.ErrStaleGeneration)
			return nil
		}
		emit(ctx, e.hooks.OnFrame, &domain.GenerationEvent{
			EventBase: e.base(domain.EventFrame, convID, ch.token),
			Depth:     depth,
			Bytes:     bytes,
			Frame:     frame,
		})
	}
	if err := stream.Err(); err != nil {
		end(e.streamFailed(ctx, ch, err), err)
		return nil
	}

	text := raw.String()
	final, parsed := partialjson.Parse(text)
	if detected || (parsed && domain.DetectToolCall(final)) {
		call, ok := domain.ExtractToolCall(final)
		if !ok {
			e.logger.Warn("malformed tool call", "conversation", convID, "raw", text)
			ch.conv.Commit(ch.token, system(malformedText))
			end(domain.OutcomeFailed, errors.New("malformed tool call"))
			return nil
		}
		if err := e.admit(ch, call); err != nil {
			e.logger.Warn("tool chain stopped", "conversation", convID, "tool", call.Name, "err", err)
			ch.conv.Commit(ch.token, system(stopText(err, call, e.maxToolDepth)))
			end(domain.OutcomeFailed, err)
			return nil
		}
		end(domain.OutcomeToolCall, nil)
		return &call
	}

	var tree any
	if m, isObject := final.(map[string]any); parsed && isObject {
		tree = m
	} else if live != nil {
		tree = live
	}
	if tree == nil && strings.TrimSpace(text) == "" {
		end(domain.OutcomeEmpty, nil)
		return nil
	}

	msg := domain.Message{Role: domain.RoleAssistant, UI: tree}
	if tree == nil {
		// prose instead of a document; show it rather than an empty turn
		msg.Text = strings.TrimSpace(text)
	}
	if !ch.conv.Commit(ch.token, msg) {
		end(domain.OutcomeStale, domain.ErrStaleGeneration)
		return nil
	}
	end(domain.OutcomeCommitted, nil)
	return nil
}

// streamFailed reports a failed or interrupted stream. Superseded chains
// stay silent.
func (e *Engine) streamFailed(ctx context.Context, ch *chain, err error) domain.Outcome {
	if !ch.conv.Current(ch.token) {
		return domain.OutcomeStale
	}
	if ctx.Err() != nil {
		ch.conv.Commit(ch.token, system(cancelledText))
		return domain.OutcomeFailed
	}
	e.logger.Error("generation stream failed", "conversation", ch.conv.ID(), "err", err)
	ch.conv.Commit(ch.token, system(streamErrorText))
	return domain.OutcomeFailed
}

// admit enforces the chain limits before a tool runs.
func (e *Engine) admit(ch *chain, call domain.ToolCall) error {
	if len(ch.seen) >= e.maxToolDepth {
		return domain.ErrToolChainTooDeep
	}
	fp := call.Fingerprint()
	if ch.seen[fp] {
		return domain.ErrRepeatedToolCall
	}
	ch.seen[fp] = true
	return nil
}

func stopText(err error, call domain.ToolCall, limit int) string {
	if errors.Is(err, domain.ErrRepeatedToolCall) {
		return fmt.Sprintf("Tool chain stopped: %s was already called with the same arguments.", call.Name)
	}
	return fmt.Sprintf("Tool chain stopped: %s would exceed the limit of %d tool calls.", call.Name, limit)
}

// callTool runs call and builds the follow-up prompt. It returns false when
// the chain is superseded or cancelled meanwhile.
func (e *Engine) callTool(ctx context.Context, ch *chain, call domain.ToolCall) (string, bool) {
	args, _ := json.Marshal(call.Args)
	if !ch.conv.Commit(ch.token, system(fmt.Sprintf("Orchestrating: %s with args %s", call.Name, args))) {
		return "", false
	}

	convID := ch.conv.ID()
	start := e.clock.Now()
	emit(ctx, e.hooks.OnToolCall, &domain.ToolEvent{
		EventBase: e.base(domain.EventToolCall, convID, ch.token),
		ToolName:  call.Name,
		Input:     call.Args,
	})

	res, err := e.execute(ctx, call)
	if err != nil {
		if ch.conv.Current(ch.token) && ctx.Err() != nil {
			ch.conv.Commit(ch.token, system(cancelledText))
		}
		return "", false
	}
	if !ch.conv.Current(ch.token) {
		return "", false
	}

	payload := res.Payload()
	emit(ctx, e.hooks.OnToolReturn, &domain.ToolEvent{
		EventBase: e.base(domain.EventToolReturn, convID, ch.token),
		ToolName:  call.Name,
		Input:     call.Args,
		Output:    payload,
		IsError:   res.IsError,
		Elapsed:   e.clock.Since(start),
	})

	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded, _ = json.Marshal(map[string]any{"error": true, "message": err.Error()})
	}
	return FollowUpPrompt(ch.original, call.Name, string(encoded)), true
}

// execute runs a tool. Tool failures become error results; only a
// cancelled context is returned as an error.
func (e *Engine) execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	if e.tools == nil {
		return domain.ToolResult{
			Name:    call.Name,
			IsError: true,
			Error:   fmt.Sprintf("Tool '%s' not found.", call.Name),
		}, nil
	}
	res, err := e.tools.Execute(ctx, call)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ToolResult{}, ctxErr
		}
		e.logger.Warn("tool executor failed", "tool", call.Name, "err", err)
		return domain.ToolResult{
			Name:    call.Name,
			IsError: true,
			Error:   fmt.Sprintf("Failed to execute tool '%s': %v", call.Name, err),
		}, nil
	}
	return res, nil
}

// FollowUpPrompt is the prompt of the generation that follows a tool call.
func FollowUpPrompt(original, tool, result string) string {
	return fmt.Sprintf("ORIGINAL REQUEST: %s\nTOOL RESULT (%s): %s\nINSTRUCTIONS: Generate UI.", original, tool, result)
}

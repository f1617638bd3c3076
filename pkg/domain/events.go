package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventGenerationStart    EventType = "generation_start"
	EventFirstChunk         EventType = "first_chunk"
	EventFrame              EventType = "frame"
	EventGenerationEnd      EventType = "generation_end"
	EventToolCall           EventType = "tool_call"
	EventToolReturn         EventType = "tool_return"
	EventClassificationMiss EventType = "classification_miss"
	EventRenderFailure      EventType = "render_failure"
	EventHeal               EventType = "heal"
	EventAction             EventType = "action"
)

// Outcome is how a generation ended.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeToolCall  Outcome = "tool_call"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
	OutcomeStale     Outcome = "stale"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	GenerationID   string    `json:"generation_id,omitempty"`
}

// GenerationEvent reports the lifecycle of one streamed generation.
type GenerationEvent struct {
	EventBase
	Prompt   string        `json:"prompt,omitempty"`
	Depth    int           `json:"depth"`
	Bytes    int           `json:"bytes,omitempty"`
	Outcome  Outcome       `json:"outcome,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
	Error    string        `json:"error,omitempty"`
	Frame    any           `json:"frame,omitempty"` // set on EventFrame
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	ToolName string        `json:"tool_name"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
}

// NodeEvent concerns one node of a tree: a classification miss, a render
// failure or a heal attempt.
type NodeEvent struct {
	EventBase
	Path      string   `json:"path,omitempty"`
	Component string   `json:"component,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	Sample    string   `json:"sample,omitempty"`
	Error     string   `json:"error,omitempty"`
	Healed    bool     `json:"healed,omitempty"`
}

// ActionEvent records a dispatched action.
type ActionEvent struct {
	EventBase
	Action  Action `json:"action"`
	Handled bool   `json:"handled"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Every field is optional.
type LifecycleHooks struct {
	OnGenerationStart    func(context.Context, *GenerationEvent)
	OnFirstChunk         func(context.Context, *GenerationEvent)
	OnFrame              func(context.Context, *GenerationEvent)
	OnGenerationEnd      func(context.Context, *GenerationEvent)
	OnToolCall           func(context.Context, *ToolEvent)
	OnToolReturn         func(context.Context, *ToolEvent)
	OnClassificationMiss func(context.Context, *NodeEvent)
	OnRenderFailure      func(context.Context, *NodeEvent)
	OnHeal               func(context.Context, *NodeEvent)
	OnAction             func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnGenerationStart:    chain(h.OnGenerationStart, other.OnGenerationStart),
		OnFirstChunk:         chain(h.OnFirstChunk, other.OnFirstChunk),
		OnFrame:              chain(h.OnFrame, other.OnFrame),
		OnGenerationEnd:      chain(h.OnGenerationEnd, other.OnGenerationEnd),
		OnToolCall:           chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn:         chain(h.OnToolReturn, other.OnToolReturn),
		OnClassificationMiss: chain(h.OnClassificationMiss, other.OnClassificationMiss),
		OnRenderFailure:      chain(h.OnRenderFailure, other.OnRenderFailure),
		OnHeal:               chain(h.OnHeal, other.OnHeal),
		OnAction:             chain(h.OnAction, other.OnAction),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

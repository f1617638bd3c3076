package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/genui/pkg/domain"
)

// LogHooks writes one record per lifecycle event. Frames are logged at
// debug level only.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGenerationStart: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.InfoContext(ctx, "generation_start",
				"conversation_id", e.ConversationID,
				"generation_id", e.GenerationID,
				"depth", e.Depth,
			)
		},
		OnFirstChunk: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.DebugContext(ctx, "first_chunk", "generation_id", e.GenerationID, "elapsed", e.Elapsed)
		},
		OnFrame: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.DebugContext(ctx, "frame", "generation_id", e.GenerationID, "bytes", e.Bytes)
		},
		OnGenerationEnd: func(ctx context.Context, e *domain.GenerationEvent) {
			attrs := []any{
				"conversation_id", e.ConversationID,
				"generation_id", e.GenerationID,
				"outcome", e.Outcome,
				"bytes", e.Bytes,
				"elapsed", e.Elapsed,
			}
			if e.Error != "" {
				logger.WarnContext(ctx, "generation_end", append(attrs, "error", e.Error)...)
				return
			}
			logger.InfoContext(ctx, "generation_end", attrs...)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.InfoContext(ctx, "tool_call", "tool_name", e.ToolName, "conversation_id", e.ConversationID)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.InfoContext(ctx, "tool_return",
				"tool_name", e.ToolName,
				"is_error", e.IsError,
				"elapsed", e.Elapsed,
			)
		},
		OnClassificationMiss: func(ctx context.Context, e *domain.NodeEvent) {
			logger.WarnContext(ctx, "classification_miss", "path", e.Path, "keys", e.Keys, "sample", e.Sample)
		},
		OnRenderFailure: func(ctx context.Context, e *domain.NodeEvent) {
			logger.WarnContext(ctx, "render_failure", "path", e.Path, "component", e.Component, "error", e.Error)
		},
		OnHeal: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "heal", "path", e.Path, "healed", e.Healed, "error", e.Error)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action", "type", e.Action.Type, "handled", e.Handled)
		},
	}
}

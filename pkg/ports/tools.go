package ports

import (
	"context"
	"time"

	"github.com/aretw0/genui/pkg/domain"
)

// ToolExecutor runs tools requested by the model. Tool-level failures are
// reported in the result; the error return is for infrastructure failures
// such as a cancelled context.
type ToolExecutor interface {
	Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error)
}

// ToolLister is implemented by executors that can describe their tools.
type ToolLister interface {
	Tools() []domain.Tool
}

// ToolCache keeps encoded tool results keyed by call fingerprint.
type ToolCache interface {
	// Get returns false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EffectSink displays one-shot cosmetic effects.
type EffectSink interface {
	Trigger(ctx context.Context, conversationID string, effect domain.Effect) error
}

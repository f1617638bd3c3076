package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/debounce"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// DefaultMaxToolDepth bounds the tool calls of one generation chain.
const DefaultMaxToolDepth = 5

// healTimeout bounds one background repair request.
const healTimeout = 60 * time.Second

// Engine orchestrates generations and actions for conversations. One engine
// serves any number of conversations; per-conversation state lives in
// session.Conversation.
type Engine struct {
	model     ports.Model
	tools     ports.ToolExecutor
	effects   ports.EffectSink
	validator *catalog.Validator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	clock     clock.Clock

	maxToolDepth  int
	debounceDelay time.Duration
	debouncer     *debounce.Debouncer

	healMu  sync.Mutex
	healing map[string]healState
	bg      sync.WaitGroup
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observers for generations, tools, render
// failures and actions. Hooks run synchronously on the orchestrating
// goroutine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithEffectSink sets where TRIGGER_EFFECT actions go. Without one they are
// logged and dropped.
func WithEffectSink(sink ports.EffectSink) EngineOption {
	return func(e *Engine) { e.effects = sink }
}

// WithMaxToolDepth bounds the tool calls of one chain. Values below 1 keep
// the default.
func WithMaxToolDepth(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxToolDepth = n
		}
	}
}

// WithClock sets the clock for event timestamps and input debouncing.
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithDebounceDelay sets how long input edits settle before they are
// committed.
func WithDebounceDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.debounceDelay = d }
}

// NewEngine creates an engine. tools may be nil when the model is never
// offered any.
func NewEngine(model ports.Model, tools ports.ToolExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		model:         model,
		tools:         tools,
		logger:        logging.NewNop(),
		clock:         clock.New(),
		maxToolDepth:  DefaultMaxToolDepth,
		debounceDelay: debounce.DefaultDelay,
		healing:       make(map[string]healState),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.validator = catalog.NewValidator(catalog.WithLogger(e.logger))
	e.debouncer = debounce.New(debounce.WithClock(e.clock), debounce.WithDelay(e.debounceDelay))
	return e
}

// Validator returns the validator used for refine and repair results.
func (e *Engine) Validator() *catalog.Validator { return e.validator }

// Wait blocks until background repairs and pending input commits finish.
func (e *Engine) Wait() {
	e.debouncer.Flush()
	e.bg.Wait()
}

// Close drops pending input commits and waits for background repairs.
func (e *Engine) Close() {
	e.debouncer.Stop()
	e.bg.Wait()
}

func (e *Engine) base(t domain.EventType, conversationID, generationID string) domain.EventBase {
	return domain.EventBase{
		Timestamp:      e.clock.Now(),
		Type:           t,
		ConversationID: conversationID,
		GenerationID:   generationID,
	}
}

// emit calls an optional hook.
func emit[E any](ctx context.Context, fn func(context.Context, E), ev E) {
	if fn != nil {
		fn(ctx, ev)
	}
}

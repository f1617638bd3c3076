package genui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/internal/runtime"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
	"github.com/aretw0/genui/pkg/render"
	"github.com/aretw0/genui/pkg/session"
)

// ErrNoModel is returned by New when no model is configured.
var ErrNoModel = errors.New("genui: a model is required")

// Client is the high-level entry point of the library. It owns the live
// conversations and routes every operation through the orchestrator.
type Client struct {
	runtime  *runtime.Engine
	sessions *session.Manager

	model       ports.Model
	tools       ports.ToolExecutor
	store       ports.ConversationStore
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithModel sets the language model. Required.
func WithModel(m ports.Model) Option {
	return func(c *Client) { c.model = m }
}

// WithTools sets the executor for model tool calls. When it also implements
// ports.ToolLister, Tools reports its catalog.
func WithTools(t ports.ToolExecutor) Option {
	return func(c *Client) { c.tools = t }
}

// WithStore sets where conversation snapshots are kept. Defaults to memory.
func WithStore(s ports.ConversationStore) Option {
	return func(c *Client) { c.store = s }
}

// WithLocker serializes store writes across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(c *Client) { c.locker = l }
}

// WithLifecycleHooks registers observability hooks. Repeated calls add
// hooks rather than replacing them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) { c.hooks = c.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithEffectSink sets where TRIGGER_EFFECT actions are delivered.
func WithEffectSink(sink ports.EffectSink) Option {
	return func(c *Client) { c.runtimeOpts = append(c.runtimeOpts, runtime.WithEffectSink(sink)) }
}

// WithMaxToolDepth bounds the tool calls of one generation.
func WithMaxToolDepth(n int) Option {
	return func(c *Client) { c.runtimeOpts = append(c.runtimeOpts, runtime.WithMaxToolDepth(n)) }
}

// WithDebounceDelay sets how long input edits settle before they are
// committed.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Client) { c.runtimeOpts = append(c.runtimeOpts, runtime.WithDebounceDelay(d)) }
}

// WithClock replaces the wall clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.runtimeOpts = append(c.runtimeOpts, runtime.WithClock(clk)) }
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.model == nil {
		return nil, ErrNoModel
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(c.logger)}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	c.sessions = session.NewManager(c.store, sessionOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithLogger(c.logger),
	}
	runtimeOpts = append(runtimeOpts, c.runtimeOpts...)
	c.runtime = runtime.NewEngine(c.model, c.tools, runtimeOpts...)
	return c, nil
}

// Create starts a conversation.
func (c *Client) Create(ctx context.Context) (domain.Snapshot, error) {
	conv, err := c.sessions.Create(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

// Conversation returns the live conversation id, restoring it from the
// store when needed.
func (c *Client) Conversation(ctx context.Context, id string) (*session.Conversation, error) {
	return c.sessions.Open(ctx, id)
}

// Snapshot returns the current state of conversation id.
func (c *Client) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	conv, err := c.sessions.Open(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

// List returns the stored conversation IDs.
func (c *Client) List(ctx context.Context) ([]string, error) {
	return c.sessions.List(ctx)
}

// Delete cancels work in flight and removes the conversation.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.sessions.Delete(ctx, id)
}

// Subscribe calls fn with every new snapshot of conversation id.
func (c *Client) Subscribe(ctx context.Context, id string, fn func(domain.Snapshot)) (func(), error) {
	conv, err := c.sessions.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv.Subscribe(fn), nil
}

// SetContext sets the role, device and theme embedded in prompts.
func (c *Client) SetContext(ctx context.Context, id string, uc domain.UserContext) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		conv.SetContext(uc)
		return nil
	})
}

// Submit sends user text: a generation, or a refinement of the selected
// component in edit mode. It returns when the work is done.
func (c *Client) Submit(ctx context.Context, id, text string) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		return c.runtime.Submit(ctx, conv, text)
	})
}

// Dispatch handles an action emitted by a rendered component.
func (c *Client) Dispatch(ctx context.Context, id string, action domain.Action) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		return c.runtime.Dispatch(ctx, conv, action)
	})
}

// Input records an edit of the input whose props are at path. Edits are
// debounced into one state patch.
func (c *Client) Input(ctx context.Context, id, path, value string) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		c.runtime.Input(ctx, conv, path, value)
		return nil
	})
}

// SetEditMode turns edit mode on or off.
func (c *Client) SetEditMode(ctx context.Context, id string, on bool) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		c.runtime.SetEditMode(conv, on)
		return nil
	})
}

// Select marks a node of the newest tree for refinement.
func (c *Client) Select(ctx context.Context, id, path string) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		return c.runtime.Select(conv, path)
	})
}

// Refine rewrites the selected component.
func (c *Client) Refine(ctx context.Context, id, instruction string) error {
	return c.with(ctx, id, func(conv *session.Conversation) error {
		return c.runtime.Refine(ctx, conv, instruction)
	})
}

// Render renders the tree currently on screen: the live tree while a
// generation streams, otherwise the newest committed one. Failed subtrees
// of committed trees are repaired in the background.
func (c *Client) Render(ctx context.Context, id string) (*render.Element, error) {
	conv, err := c.sessions.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := conv.Snapshot()
	if snap.Streaming != nil {
		return c.runtime.Renderer(ctx, conv, "", render.WithLogger(c.logger)).Render(snap.Streaming, ""), nil
	}
	i := domain.LastUIIndex(snap.Messages)
	if i < 0 {
		return nil, domain.ErrNoUITree
	}
	msg := snap.Messages[i]
	selected := ""
	if snap.EditMode {
		selected = snap.Selected
	}
	return c.runtime.Renderer(ctx, conv, msg.ID, render.WithLogger(c.logger)).Render(msg.UI, selected), nil
}

// Validate checks raw against the component catalog.
func (c *Client) Validate(raw any) (*domain.Node, error) {
	return c.runtime.Validator().Validate(raw)
}

// Validator returns the catalog validator.
func (c *Client) Validator() *catalog.Validator {
	return c.runtime.Validator()
}

// Tools lists the tools offered to the model, if the executor can list
// them.
func (c *Client) Tools() []domain.Tool {
	if l, ok := c.tools.(ports.ToolLister); ok {
		return l.Tools()
	}
	return nil
}

// Wait blocks until background repairs and pending input commits finish.
func (c *Client) Wait() {
	c.runtime.Wait()
}

// Close stops background work.
func (c *Client) Close() error {
	c.runtime.Close()
	return nil
}

func (c *Client) with(ctx context.Context, id string, fn func(*session.Conversation) error) error {
	conv, err := c.sessions.Open(ctx, id)
	if err != nil {
		return err
	}
	return fn(conv)
}

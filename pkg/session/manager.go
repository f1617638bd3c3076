package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// storeLockTTL bounds how long a crashed process can hold a conversation's
// distributed lock.
const storeLockTTL = 30 * time.Second

// Manager owns the live conversations and mirrors every published snapshot
// into the store. Store access for one conversation is serialized in this
// process, and across processes when a distributed locker is configured.
type Manager struct {
	store  ports.ConversationStore
	locker ports.DistributedLocker
	logger *slog.Logger

	locks keyedMutex

	liveMu sync.Mutex
	live   map[string]*liveConversation
}

type liveConversation struct {
	conv   *Conversation
	detach func()
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a cross-process lock around store access.
func WithLocker(l ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager over store.
func NewManager(store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: logging.NewNop(),
		live:   make(map[string]*liveConversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new conversation and stores its first snapshot.
func (m *Manager) Create(ctx context.Context) (*Conversation, error) {
	return m.start(ctx, NewConversation(""))
}

// Open returns the live conversation, restoring it from the store if it is
// not loaded. Unknown IDs return domain.ErrConversationNotFound.
func (m *Manager) Open(ctx context.Context, id string) (*Conversation, error) {
	if c := m.lookup(id); c != nil {
		return c, nil
	}
	var snap domain.Snapshot
	err := m.guard(ctx, id, func(ctx context.Context) (err error) {
		snap, err = m.store.Load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m.attach(Restore(snap)), nil
}

// OpenOrCreate opens id, or creates a conversation with that ID.
func (m *Manager) OpenOrCreate(ctx context.Context, id string) (*Conversation, error) {
	c, err := m.Open(ctx, id)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, domain.ErrConversationNotFound):
		return m.start(ctx, NewConversation(id))
	}
	return nil, fmt.Errorf("failed to check conversation existence: %w", err)
}

// Delete cancels any work in flight and removes the conversation.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.liveMu.Lock()
	if lc, ok := m.live[id]; ok {
		lc.detach()
		lc.conv.Cancel()
		delete(m.live, id)
	}
	m.liveMu.Unlock()

	return m.guard(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List returns the stored conversation IDs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) start(ctx context.Context, c *Conversation) (*Conversation, error) {
	if err := m.save(ctx, c.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to initialize conversation: %w", err)
	}
	return m.attach(c), nil
}

func (m *Manager) lookup(id string) *Conversation {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	if lc, ok := m.live[id]; ok {
		return lc.conv
	}
	return nil
}

// attach registers c as live and saves each snapshot it publishes. If
// another caller attached the same ID first, that conversation wins.
func (m *Manager) attach(c *Conversation) *Conversation {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	if lc, ok := m.live[c.ID()]; ok {
		return lc.conv
	}
	detach := c.Subscribe(func(s domain.Snapshot) {
		if err := m.save(context.Background(), s); err != nil {
			m.logger.Warn("failed to store conversation snapshot", "conversation_id", s.ConversationID, "err", err)
		}
	})
	m.live[c.ID()] = &liveConversation{conv: c, detach: detach}
	return c
}

func (m *Manager) save(ctx context.Context, snap domain.Snapshot) error {
	return m.guard(ctx, snap.ConversationID, func(ctx context.Context) error {
		return m.store.Save(ctx, snap)
	})
}

// guard runs fn holding the conversation's local lock and, when configured,
// its distributed lock.
func (m *Manager) guard(ctx context.Context, id string, fn func(context.Context) error) error {
	unlock := m.locks.lock(id)
	defer unlock()

	if m.locker == nil {
		return fn(ctx)
	}
	release, err := m.locker.Lock(ctx, "genui:conversation:"+id, storeLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			m.logger.Warn("distributed lock not released, it will expire", "conversation_id", id, "ttl", storeLockTTL, "err", err)
		}
	}()
	return fn(ctx)
}

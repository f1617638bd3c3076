package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/genui/pkg/domain"
)

// State is the mutable part of a conversation as seen inside Mutate.
// Messages is a private copy of the list: elements may be replaced, but
// trees inside them must be replaced wholesale, never edited in place.
type State struct {
	Messages  []domain.Message
	Streaming any
	EditMode  bool
	Selected  string
	Context   domain.UserContext
}

// Conversation is the live state of one conversation. All writes replace
// values wholesale under the conversation lock and are then published to
// subscribers in order.
type Conversation struct {
	id string

	// notify serializes mutation and publication so subscribers observe
	// snapshots in the order they were produced.
	notify sync.Mutex

	mu          sync.Mutex
	state       State
	busy        int
	token       string
	cancel      context.CancelFunc
	subscribers map[int]func(domain.Snapshot)
	nextSub     int
}

// NewConversation starts a conversation with the welcome message. An empty
// id gets a generated one.
func NewConversation(id string) *Conversation {
	if id == "" {
		id = uuid.NewString()
	}
	return &Conversation{
		id: id,
		state: State{
			Messages: []domain.Message{{ID: uuid.NewString(), Role: domain.RoleSystem, Text: domain.WelcomeText}},
			Context:  domain.DefaultUserContext(),
		},
		subscribers: make(map[int]func(domain.Snapshot)),
	}
}

// Restore rebuilds a conversation from a stored snapshot. In-flight work is
// not restored.
func Restore(snap domain.Snapshot) *Conversation {
	c := NewConversation(snap.ConversationID)
	c.state = State{
		Messages: append([]domain.Message(nil), snap.Messages...),
		EditMode: snap.EditMode,
		Selected: snap.Selected,
		Context:  domain.DefaultUserContext(),
	}
	return c
}

func (c *Conversation) ID() string { return c.id }

// Snapshot returns the current observable state.
func (c *Conversation) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		ConversationID: c.id,
		Messages:       append([]domain.Message(nil), c.state.Messages...),
		Streaming:      c.state.Streaming,
		Loading:        c.busy > 0,
		EditMode:       c.state.EditMode,
		Selected:       c.state.Selected,
	}
}

// Context returns the user context embedded in prompts.
func (c *Conversation) Context() domain.UserContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Context
}

// Subscribe registers fn for every published snapshot. fn must not call
// Mutate or any other writer of the same conversation.
func (c *Conversation) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Mutate runs fn against a copy of the state and installs the result unless
// fn returns an error. Messages without an ID get one.
func (c *Conversation) Mutate(fn func(st *State) error) error {
	c.notify.Lock()
	defer c.notify.Unlock()

	c.mu.Lock()
	st := c.state
	st.Messages = append([]domain.Message(nil), c.state.Messages...)
	if err := fn(&st); err != nil {
		c.mu.Unlock()
		return err
	}
	for i := range st.Messages {
		if st.Messages[i].ID == "" {
			st.Messages[i].ID = uuid.NewString()
		}
	}
	c.state = st
	snap, subs := c.publishLocked()
	c.mu.Unlock()

	publish(snap, subs)
	return nil
}

func (c *Conversation) publishLocked() (domain.Snapshot, []func(domain.Snapshot)) {
	subs := make([]func(domain.Snapshot), 0, len(c.subscribers))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return c.snapshotLocked(), subs
}

func publish(snap domain.Snapshot, subs []func(domain.Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}

// change applies fn to the locked conversation and publishes the result.
func (c *Conversation) change(fn func() bool) bool {
	c.notify.Lock()
	defer c.notify.Unlock()

	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return false
	}
	snap, subs := c.publishLocked()
	c.mu.Unlock()
	publish(snap, subs)
	return true
}

// Append adds messages at the end of the list.
func (c *Conversation) Append(msgs ...domain.Message) {
	_ = c.Mutate(func(st *State) error {
		st.Messages = append(st.Messages, msgs...)
		return nil
	})
}

// SetContext replaces the user context.
func (c *Conversation) SetContext(uc domain.UserContext) {
	_ = c.Mutate(func(st *State) error {
		st.Context = uc
		return nil
	})
}

// Begin starts a generation chain. It supersedes the chain in flight, if
// any: the old chain's context is cancelled and its token stops matching.
// Every Begin must be paired with End.
func (c *Conversation) Begin(parent context.Context) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	token := uuid.NewString()
	c.change(func() bool {
		if c.cancel != nil {
			c.cancel()
		}
		c.token = token
		c.cancel = cancel
		c.busy++
		c.state.Streaming = nil
		return true
	})
	return token, ctx
}

// Current reports whether token belongs to the chain in flight.
func (c *Conversation) Current(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token != "" && token == c.token
}

// SetStreaming replaces the live tree. It returns false for a stale token.
func (c *Conversation) SetStreaming(token string, tree any) bool {
	return c.change(func() bool {
		if token != c.token {
			return false
		}
		c.state.Streaming = tree
		return true
	})
}

// Commit appends msgs and clears the live tree if token is still current.
// Both changes land in the same snapshot.
func (c *Conversation) Commit(token string, msgs ...domain.Message) bool {
	err := c.Mutate(func(st *State) error {
		if c.token != token {
			return domain.ErrStaleGeneration
		}
		st.Messages = append(st.Messages, msgs...)
		st.Streaming = nil
		return nil
	})
	return err == nil
}

// End finishes a chain started by Begin. The live tree is cleared only if
// the chain is still current.
func (c *Conversation) End(token string) {
	c.change(func() bool {
		c.busy--
		if c.busy < 0 {
			c.busy = 0
		}
		if token == c.token {
			c.state.Streaming = nil
			c.token = ""
			if c.cancel != nil {
				c.cancel()
				c.cancel = nil
			}
		}
		return true
	})
}

// Busy marks the conversation as loading until done is called.
func (c *Conversation) Busy() (done func()) {
	c.change(func() bool {
		c.busy++
		return true
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			c.change(func() bool {
				if c.busy > 0 {
					c.busy--
				}
				return true
			})
		})
	}
}

// Cancel stops the chain in flight, if any.
func (c *Conversation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Package debounce coalesces bursts of calls into one trailing call per key.
//
// Time comes from an injected clock so tests can drive it with a mock.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDelay is the quiet period for input commits.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs the last function submitted for a key once the key has
// been quiet for the delay.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	timer *clock.Timer
	fn    func()
	seq   uint64
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) { d.clock = c }
}

// WithDelay sets the quiet period.
func WithDelay(delay time.Duration) Option {
	return func(d *Debouncer) { d.delay = delay }
}

// New creates a Debouncer with DefaultDelay on the wall clock; options
// override either.
func New(opts ...Option) *Debouncer {
	d := &Debouncer{
		clock:   clock.New(),
		delay:   DefaultDelay,
		pending: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger schedules fn for key, replacing and postponing any call already
// pending for it.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.pending[key]
	if !ok {
		e = &entry{}
		d.pending[key] = e
	} else if e.timer != nil {
		e.timer.Stop()
	}
	e.fn = fn
	e.seq++
	seq := e.seq
	e.timer = d.clock.AfterFunc(d.delay, func() { d.fire(key, seq) })
}

func (d *Debouncer) fire(key string, seq uint64) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if !ok || e.seq != seq {
		// superseded after the timer already started running
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	fn := e.fn
	d.mu.Unlock()
	fn()
}

// Flush runs every pending call now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for k, e := range d.pending {
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.pending, k)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Cancel drops the pending call for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.pending[key]; ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
}

// Stop drops every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, k)
	}
}

// Pending reports how many keys have a call scheduled.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

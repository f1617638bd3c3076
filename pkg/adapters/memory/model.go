package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/genui/pkg/ports"
)

// ErrNoScript is returned by Stream when every script has been consumed and
// no fallback is set.
var ErrNoScript = errors.New("memory model: no script left")

// Script is one scripted generation.
type Script struct {
	Chunks []string
	// OpenErr fails Stream itself.
	OpenErr error
	// Err ends the stream after the chunks.
	Err error
	// Hold, when set, blocks the stream before its first chunk until the
	// channel is closed or the context is cancelled.
	Hold <-chan struct{}
}

// Model is a ports.Model that replays scripts in order. It is used by tests
// and by the offline mode of the CLI.
type Model struct {
	mu       sync.Mutex
	scripts  []Script
	requests []ports.GenerateRequest

	// Fallback supplies a script once the queue is empty.
	Fallback func(req ports.GenerateRequest) Script

	RefineFunc func(ctx context.Context, instruction string, subtree any) (any, error)
	FixFunc    func(ctx context.Context, errMsg string, subtree any) (any, error)
}

// NewModel queues scripts.
func NewModel(scripts ...Script) *Model {
	return &Model{scripts: scripts}
}

// Push queues another script.
func (m *Model) Push(s Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, s)
}

// Requests returns the generation requests received so far.
func (m *Model) Requests() []ports.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.GenerateRequest(nil), m.requests...)
}

func (m *Model) Stream(ctx context.Context, req ports.GenerateRequest) (ports.ChunkStream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var s Script
	switch {
	case len(m.scripts) > 0:
		s = m.scripts[0]
		m.scripts = m.scripts[1:]
	case m.Fallback != nil:
		s = m.Fallback(req)
	default:
		m.mu.Unlock()
		return nil, ErrNoScript
	}
	m.mu.Unlock()

	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	return &stream{ctx: ctx, script: s, pos: -1}, nil
}

func (m *Model) Refine(ctx context.Context, instruction string, subtree any) (any, error) {
	if m.RefineFunc == nil {
		return nil, errors.New("memory model: refine not scripted")
	}
	return m.RefineFunc(ctx, instruction, subtree)
}

func (m *Model) Fix(ctx context.Context, errMsg string, subtree any) (any, error) {
	if m.FixFunc == nil {
		return nil, errors.New("memory model: fix not scripted")
	}
	return m.FixFunc(ctx, errMsg, subtree)
}

type stream struct {
	ctx    context.Context
	script Script
	pos    int
	err    error
}

func (s *stream) Next() bool {
	if s.err != nil {
		return false
	}
	if s.pos == -1 && s.script.Hold != nil {
		select {
		case <-s.script.Hold:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.pos++
	if s.pos < len(s.script.Chunks) {
		return true
	}
	s.err = s.script.Err
	return false
}

func (s *stream) Chunk() string {
	if s.pos < 0 || s.pos >= len(s.script.Chunks) {
		return ""
	}
	return s.script.Chunks[s.pos]
}

func (s *stream) Err() error   { return s.err }
func (s *stream) Close() error { return nil }

// Split cuts doc into chunks of n bytes. Cuts may fall inside escapes and
// multi-byte characters, as they do on the wire.
func Split(doc string, n int) []string {
	if n <= 0 {
		n = 1
	}
	var out []string
	for len(doc) > n {
		out = append(out, doc[:n])
		doc = doc[n:]
	}
	if doc != "" {
		out = append(out, doc)
	}
	return out
}

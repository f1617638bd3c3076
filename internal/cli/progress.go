package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
)

// progress reports generation activity on a status line while the chat
// waits for a generation to finish.
type progress struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *render.Renderer
	last     *domain.Snapshot
	active   bool
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w, renderer: render.New()}
}

// observe is a snapshot subscriber.
func (p *progress) observe(snap domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	diff := domain.Diff(p.last, &snap)
	p.last = &snap
	if diff == nil {
		return
	}

	if diff.Streaming != nil && diff.Streaming.Tree != nil {
		nodes := len(render.Paths(p.renderer.Render(diff.Streaming.Tree, "")))
		fmt.Fprintf(p.w, "\r⟳ streaming… %d nodes ", nodes)
		p.active = true
		return
	}
	if diff.Loading == nil {
		return
	}
	switch {
	case *diff.Loading && !p.active:
		fmt.Fprint(p.w, "\r⟳ thinking… ")
		p.active = true
	case !*diff.Loading && p.active:
		fmt.Fprint(p.w, "\r\033[K")
		p.active = false
	}
}

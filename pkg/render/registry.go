package render

import (
	"sort"

	"github.com/aretw0/genui/pkg/domain"
)

// Component renders one validated node. It fills in the Element held by the
// scope, rendering nested nodes through the scope helpers. A returned error
// fails this node's subtree only.
type Component interface {
	Render(s *Scope, node *domain.Node, bag map[string]any) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(s *Scope, node *domain.Node, bag map[string]any) error

func (f ComponentFunc) Render(s *Scope, node *domain.Node, bag map[string]any) error {
	return f(s, node, bag)
}

// Registry maps component types to implementations. It is never mutated
// after construction; With returns a new registry.
type Registry struct {
	components map[domain.ComponentType]Component
}

// NewRegistry copies m into a new registry.
func NewRegistry(m map[domain.ComponentType]Component) *Registry {
	c := make(map[domain.ComponentType]Component, len(m))
	for k, v := range m {
		c[k] = v
	}
	return &Registry{components: c}
}

// Lookup returns the implementation for t.
func (r *Registry) Lookup(t domain.ComponentType) (Component, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.components[t]
	return c, ok
}

// With returns a copy of r with t bound to c.
func (r *Registry) With(t domain.ComponentType, c Component) *Registry {
	var base map[domain.ComponentType]Component
	if r != nil {
		base = r.components
	}
	next := NewRegistry(base)
	next.components[t] = c
	return next
}

// Types lists the registered component types, sorted.
func (r *Registry) Types() []domain.ComponentType {
	out := make([]domain.ComponentType, 0, len(r.components))
	for t := range r.components {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

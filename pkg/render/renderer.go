package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/treepath"
)

// ErrPanic wraps a panic recovered from a component.
var ErrPanic = errors.New("component panicked")

// RenderError is the failure of one subtree.
type RenderError struct {
	Path      string
	Component domain.ComponentType
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s at %s: %v", e.Component, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FailureFunc is told about a failed subtree with the raw node and its wire
// path. It returns true when a repair has been started, which switches the
// placeholder from failed to repairing.
type FailureFunc func(err error, node any, path string) bool

// Renderer turns raw trees into Element trees. It is safe for concurrent use
// as long as its FailureFunc is.
type Renderer struct {
	registry  *Registry
	validator *catalog.Validator
	logger    *slog.Logger
	onFailure FailureFunc
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry replaces the builtin components.
func WithRegistry(r *Registry) Option {
	return func(rd *Renderer) { rd.registry = r }
}

// WithValidator sets the validator used per node.
func WithValidator(v *catalog.Validator) Option {
	return func(rd *Renderer) { rd.validator = v }
}

// WithLogger sets the logger for subtree failures.
func WithLogger(l *slog.Logger) Option {
	return func(rd *Renderer) { rd.logger = l }
}

// OnFailure sets the hook invoked for each failed subtree.
func OnFailure(fn FailureFunc) Option {
	return func(rd *Renderer) { rd.onFailure = fn }
}

// New creates a Renderer over the builtin registry.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		registry: Builtins(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = catalog.NewValidator(catalog.WithLogger(r.logger))
	}
	return r
}

// Render renders tree rooted at "root". selected is the wire path of the
// node to mark, or "" for none. It returns nil when the tree has nothing to
// show yet.
func (r *Renderer) Render(tree any, selected string) *Element {
	var sel *treepath.Path
	if selected != "" {
		p := treepath.Parse(selected)
		sel = &p
	}
	return r.renderNode(tree, treepath.Path{}, sel)
}

func (r *Renderer) renderNode(raw any, path treepath.Path, sel *treepath.Path) (el *Element) {
	if _, ok := raw.(catalog.Rendered); ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := m[catalog.ElementMarker]; ok {
		return nil
	}

	wire := path.Wire()
	node, err := r.validator.ValidateShallow(m)
	if err != nil {
		if len(m) == 0 {
			return nil
		}
		key := catalog.Keys(m)[0]
		return &Element{
			Path:    wire,
			Status:  StatusDiagnostic,
			Message: err.Error(),
			Key:     key,
			Sample:  catalog.Sample(m),
		}
	}

	comp, ok := r.registry.Lookup(node.Type)
	if !ok {
		return nil
	}

	propsPath := path.Child(string(node.Type))
	el = &Element{
		Path:      wire,
		PropsPath: propsPath.Wire(),
		Component: node.Type,
		Props:     node.Props,
		Selected:  sel != nil && sel.Equal(path),
	}
	bag, _ := m[string(node.Type)].(map[string]any)
	scope := &Scope{r: r, el: el, props: propsPath, sel: sel}

	defer func() {
		if rec := recover(); rec != nil {
			el = r.fail(el, m, fmt.Errorf("%w: %v", ErrPanic, rec))
		}
	}()
	if err := comp.Render(scope, node, bag); err != nil {
		return r.fail(el, m, err)
	}
	return el
}

// fail replaces a subtree with its placeholder. Children already rendered
// are discarded with it.
func (r *Renderer) fail(el *Element, raw map[string]any, err error) *Element {
	rerr := &RenderError{Path: el.Path, Component: el.Component, Err: err}
	r.logger.Warn("subtree failed to render", "path", el.Path, "component", el.Component, "err", err)

	repairing := false
	if r.onFailure != nil {
		repairing = r.onFailure(rerr, raw, el.Path)
	}
	out := &Element{
		Path:      el.Path,
		PropsPath: el.PropsPath,
		Component: el.Component,
		Status:    StatusFailed,
		Message:   rerr.Error(),
		Selected:  el.Selected,
	}
	if repairing {
		out.Status = StatusRepairing
		out.Message = "repairing…"
	}
	return out
}

// Scope is handed to a component while it renders. Its helpers compute
// every nested path from the component's props path.
type Scope struct {
	r     *Renderer
	el    *Element
	props treepath.Path
	sel   *treepath.Path
}

// Element is the element being rendered.
func (s *Scope) Element() *Element { return s.el }

// Path is the props path of the component being rendered.
func (s *Scope) Path() treepath.Path { return s.props }

// Children renders the raw children list into Element.Children.
func (s *Scope) Children(list any) {
	items, _ := list.([]any)
	base := s.props.Child("children")
	for i, item := range items {
		if c := s.r.renderNode(item, base.At(i), s.sel); c != nil {
			s.el.Children = append(s.el.Children, c)
		}
	}
}

// List renders a raw node list found at rel below the props path into the
// slot named rel.
func (s *Scope) List(rel treepath.Path, list any) {
	items, _ := list.([]any)
	base := s.join(rel)
	for i, item := range items {
		if c := s.r.renderNode(item, base.At(i), s.sel); c != nil {
			s.el.addSlot(rel.String(), c)
		}
	}
}

// Node renders a single raw node found at rel into the slot named rel.
func (s *Scope) Node(rel treepath.Path, raw any) *Element {
	c := s.r.renderNode(raw, s.join(rel), s.sel)
	if c != nil {
		s.el.addSlot(rel.String(), c)
	}
	return c
}

func (s *Scope) join(rel treepath.Path) treepath.Path {
	p := make(treepath.Path, 0, len(s.props)+len(rel))
	p = append(p, s.props...)
	return append(p, rel...)
}

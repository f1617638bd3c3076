package render

import (
	"github.com/aretw0/genui/pkg/domain"
)

// Status of a rendered slot.
type Status int

const (
	StatusOK Status = iota
	// StatusDiagnostic marks a node that failed validation.
	StatusDiagnostic
	// StatusRepairing marks a subtree that failed to render and is being
	// repaired.
	StatusRepairing
	// StatusFailed marks a subtree that failed to render with no repair
	// under way.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDiagnostic:
		return "diagnostic"
	case StatusRepairing:
		return "repairing"
	case StatusFailed:
		return "failed"
	}
	return "ok"
}

// Element is the rendered form of one node.
type Element struct {
	// Path addresses the node itself, e.g. "root.card.children.1".
	Path string
	// PropsPath addresses the property bag, e.g. "root.card.children.1.text".
	// Interactive components use it as the target of state patches.
	PropsPath string

	Component domain.ComponentType
	// Props holds the validated properties. Node lists are left empty; their
	// rendered form is in Children and Slots.
	Props domain.Props

	Children []*Element
	// Slots holds nodes of nested collections keyed by their path relative
	// to PropsPath, e.g. "items.0.content" or "rows.2.1".
	Slots map[string][]*Element
	slots []string

	Status  Status
	Message string
	// Key and Sample describe an unrecognized node.
	Key    string
	Sample string

	Selected bool
}

// Rendered marks Element as output, never data.
func (*Element) Rendered() {}

// Slot returns the elements rendered for a nested collection.
func (e *Element) Slot(name string) []*Element {
	if e == nil || e.Slots == nil {
		return nil
	}
	return e.Slots[name]
}

// SlotNames lists the filled slots in the order the component filled them.
func (e *Element) SlotNames() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.slots...)
}

func (e *Element) addSlot(name string, els ...*Element) {
	if len(els) == 0 {
		return
	}
	if e.Slots == nil {
		e.Slots = make(map[string][]*Element)
	}
	if _, ok := e.Slots[name]; !ok {
		e.slots = append(e.slots, name)
	}
	e.Slots[name] = append(e.Slots[name], els...)
}

// Walk visits e and its descendants depth-first in render order: children
// first, then slots in the order the component filled them.
func Walk(e *Element, fn func(*Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Children {
		Walk(c, fn)
	}
	for _, name := range e.slots {
		for _, c := range e.Slots[name] {
			Walk(c, fn)
		}
	}
}

// Paths lists the node paths of e's tree in walk order.
func Paths(e *Element) []string {
	var out []string
	Walk(e, func(el *Element) { out = append(out, el.Path) })
	return out
}

package dsl

import "github.com/aretw0/genui/pkg/domain"

// NodeBuilder provides a fluent API for configuring one component.
type NodeBuilder struct {
	typ      domain.ComponentType
	props    map[string]any
	children []*NodeBuilder
	hasKids  bool
}

// Node starts a component of type t with no properties.
func Node(t domain.ComponentType) *NodeBuilder {
	return &NodeBuilder{typ: t, props: make(map[string]any)}
}

// Set assigns a property. Values may be any JSON-encodable Go value.
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	n.props[key] = value
	return n
}

// Children appends child nodes.
func (n *NodeBuilder) Children(kids ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, kids...)
	n.hasKids = true
	return n
}

// Action attaches the action fired by buttons.
func (n *NodeBuilder) Action(a domain.Action) *NodeBuilder {
	return n.Set("action", a)
}

// Variant sets the visual variant shared by most components.
func (n *NodeBuilder) Variant(v string) *NodeBuilder {
	return n.Set("variant", v)
}

// raw returns the node as nested maps; property values are left as given.
func (n *NodeBuilder) raw() map[string]any {
	props := make(map[string]any, len(n.props)+1)
	for k, v := range n.props {
		props[k] = v
	}
	if n.hasKids {
		kids := make([]any, len(n.children))
		for i, c := range n.children {
			kids[i] = c.raw()
		}
		props["children"] = kids
	}
	return map[string]any{string(n.typ): props}
}

// Container lays out children in a row or column.
func Container(layout string, kids ...*NodeBuilder) *NodeBuilder {
	return Node(domain.ComponentContainer).Set("layout", layout).Children(kids...)
}

func Hero(title, subtitle string, kids ...*NodeBuilder) *NodeBuilder {
	n := Node(domain.ComponentHero).Set("title", title).Set("subtitle", subtitle)
	if len(kids) > 0 {
		n.Children(kids...)
	}
	return n
}

func Text(content string) *NodeBuilder {
	return Node(domain.ComponentText).Set("content", content)
}

func Button(label string, action domain.Action) *NodeBuilder {
	return Node(domain.ComponentButton).Set("label", label).Action(action)
}

func Card(title string, kids ...*NodeBuilder) *NodeBuilder {
	return Node(domain.ComponentCard).Set("title", title).Children(kids...)
}

func Stat(label, value string) *NodeBuilder {
	return Node(domain.ComponentStat).Set("label", label).Set("value", value)
}

func Progress(label string, value float64) *NodeBuilder {
	return Node(domain.ComponentProgress).Set("label", label).Set("value", value)
}

func Input(label string) *NodeBuilder {
	return Node(domain.ComponentInput).Set("label", label)
}

func Badge(label, color string) *NodeBuilder {
	return Node(domain.ComponentBadge).Set("label", label).Set("color", color)
}

// Column is one kanban column. Items are strings or {"content", "tag"}
// maps.
type Column struct {
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
	Items []any  `json:"items"`
}

func Kanban(columns ...Column) *NodeBuilder {
	return Node(domain.ComponentKanban).Set("columns", columns)
}

// BentoContainer is a grid of bento cards.
func BentoContainer(cards ...*NodeBuilder) *NodeBuilder {
	return Node(domain.ComponentBentoContainer).Children(cards...)
}

// BentoCard spans colSpan columns and rowSpan rows of the grid.
func BentoCard(title string, colSpan, rowSpan int, kids ...*NodeBuilder) *NodeBuilder {
	return Node(domain.ComponentBentoCard).
		Set("title", title).
		Set("colSpan", colSpan).
		Set("rowSpan", rowSpan).
		Children(kids...)
}

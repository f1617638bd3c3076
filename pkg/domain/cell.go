package domain

import "encoding/json"

// CellKind tells which member of the table cell union is set.
type CellKind int

const (
	CellNull CellKind = iota
	CellText
	CellNumber
	CellNode
	// CellUnknown holds an object that is not a catalog node. The renderer
	// shows a diagnostic for it.
	CellUnknown
)

// Cell is a table cell: a string, a number, a nested node or null.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Node   *Node
	Raw    map[string]any
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	case CellNode:
		return json.Marshal(c.Node)
	case CellUnknown:
		return json.Marshal(c.Raw)
	}
	return []byte("null"), nil
}

// KanbanItem is either a bare string or {content, tag}.
type KanbanItem struct {
	Content string
	Tag     string
	// Plain marks items that arrived as a bare string.
	Plain bool
}

func (k KanbanItem) MarshalJSON() ([]byte, error) {
	if k.Plain {
		return json.Marshal(k.Content)
	}
	return json.Marshal(struct {
		Content string `json:"content"`
		Tag     string `json:"tag,omitempty"`
	}{k.Content, k.Tag})
}

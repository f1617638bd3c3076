// Package graph exports a rendered tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
)

// GenerateMermaid produces a Mermaid flowchart (graph TD) of a rendered
// tree. Shapes follow the node's role:
// - Root: ((Circle))
// - Interactive (button, input): [/Parallelogram/]
// - Placeholder (diagnostic, failed, repairing): {{Hexagon}}
// - Default: [Rectangle]
// Children hang from solid edges; slot members from dotted edges labelled
// with the slot. The selected node and placeholders get their own classes.
func GenerateMermaid(root *render.Element) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	var selected string
	var broken []string
	var visit func(el *render.Element, parent, slot string)
	visit = func(el *render.Element, parent, slot string) {
		id := sanitizeMermaidID(el.Path)

		opener, closer := "[", "]"
		switch {
		case el.Status != render.StatusOK:
			opener, closer = "{{", "}}"
			broken = append(broken, id)
		case parent == "":
			opener, closer = "((", "))"
		case el.Component == domain.ComponentButton || el.Component == domain.ComponentInput:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(el), closer)

		switch {
		case parent == "":
		case slot == "":
			fmt.Fprintf(&sb, "    %s --> %s\n", parent, id)
		default:
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", parent, slot, id)
		}
		if el.Selected {
			selected = id
		}

		for _, c := range el.Children {
			visit(c, id, "")
		}
		for _, name := range el.SlotNames() {
			for _, c := range el.Slot(name) {
				visit(c, id, name)
			}
		}
	}
	visit(root, "", "")

	if selected != "" || len(broken) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light and dark themes
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef broken fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
		for _, id := range broken {
			fmt.Fprintf(&sb, "    class %s broken;\n", id)
		}
		if selected != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", selected)
		}
	}
	return sb.String()
}

// label is the component name plus its title or label when it has one.
func label(el *render.Element) string {
	if el.Status != render.StatusOK {
		name := string(el.Component)
		if name == "" {
			name = el.Key
		}
		return escape(fmt.Sprintf("%s <br/> ⚠️ %s", name, el.Status))
	}
	name := string(el.Component)
	if caption := caption(el.Props); caption != "" {
		name += ": " + caption
	}
	return escape(name)
}

func caption(props domain.Props) string {
	v := reflect.ValueOf(props)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}
	for _, field := range []string{"Title", "Label"} {
		if f := v.FieldByName(field); f.IsValid() && f.Kind() == reflect.String && f.String() != "" {
			return f.String()
		}
	}
	return ""
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}

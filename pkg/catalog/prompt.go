package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/genui/pkg/domain"
)

// PromptSpec renders the component definitions as the catalog section of a
// generation prompt. The validator and the prompt share the same
// definitions, so a component the model is told about is a component the
// validator accepts.
func PromptSpec() string {
	var b strings.Builder
	b.WriteString("COMPONENT DEFINITIONS (OneOf Schema)\n")
	b.WriteString("------------------------------------\n")
	b.WriteString("Each node MUST be an object with EXACTLY ONE key (the component name).\n")

	for i, def := range definitions {
		fmt.Fprintf(&b, "\n%d. %q (%s)\n", i+1, def.Type, def.Summary)
		if len(def.Hints) == 0 {
			b.WriteString("   - Props: none, use {}\n")
			continue
		}
		b.WriteString("   - Props:\n")
		for _, h := range def.Hints {
			fmt.Fprintf(&b, "     - %s: %s\n", h.Field, h.Doc)
		}
	}
	return b.String()
}

// ToolCallSpec documents the alternate tool-call document and the
// available tools for the prompt.
func ToolCallSpec(tools []domain.Tool) string {
	var b strings.Builder
	b.WriteString("AVAILABLE TOOLS (FUNCTION CALLING)\n")
	b.WriteString("----------------------------------\n")
	b.WriteString("If the request needs real-time data or external knowledge, call a tool instead of generating UI.\n")
	for i, t := range tools {
		fmt.Fprintf(&b, "%d. `%s(%s)`: %s\n", i+1, t.Name, signature(t.Parameters), t.Description)
	}
	b.WriteString("\nTo call a tool, output ONLY a JSON object with the single key \"tool_call\". DO NOT output a UI tree in this case.\n")
	b.WriteString(`{ "tool_call": { "name": "get_weather", "arguments": { "location": "Tokyo" } } }` + "\n")
	return b.String()
}

// signature renders the properties of a JSON Schema object as
// "name: type" pairs.
func signature(params map[string]any) string {
	props, _ := params["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		typ := "any"
		if p, ok := props[k].(map[string]any); ok {
			if s, ok := p["type"].(string); ok {
				typ = s
			}
		}
		parts = append(parts, k+": "+typ)
	}
	return strings.Join(parts, ", ")
}

package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/dsl"
	"github.com/aretw0/genui/pkg/ports"
)

const rules = `You are the UI Generative Engine of a terminal and web client.
Your output must be strictly machine-readable JSON describing a UI tree.

CRITICAL RULES:
1. No Markdown: do not wrap the output in code fences. Output RAW JSON only.
2. Oneof handling: every node is an object with exactly one key, the component name. Never flatten properties.
   - WRONG: { "type": "Button", "label": "Submit" }
   - WRONG: { "componentType": "text", "content": "Hello" }
   - RIGHT: { "button": { "label": "Submit" } }
   - RIGHT: { "text": { "content": "Hello" } }
3. Enums are strings: use the enum names listed with each component (e.g. "GAP_MD", "PRIMARY", "ROW").
4. Recursive structure: wrap children in a "children" array inside a "container" or "card".
5. No IDs: the client addresses nodes by position.
6. Data injection: you ARE the backend. Generate realistic data for charts, tables and stats; never leave them empty.

INTERACTIVE CAPABILITIES:
Buttons can trigger visual effects with an "action" of type "TRIGGER_EFFECT".
- Confetti: { "action": { "type": "TRIGGER_EFFECT", "payload": { "effect": "CONFETTI" } } }
- Snow:     { "action": { "type": "TRIGGER_EFFECT", "payload": { "effect": "SNOW" } } }
Use them for celebrations, holiday themes or high-impact interactions.
Inputs update the tree in place; a button with { "action": { "type": "SUBMIT_FORM" } } sends every input value back to you.
`

// PromptBuilder assembles the system and user prompts of a generation.
type PromptBuilder struct {
	tools    []domain.Tool
	examples []domain.Example
}

// NewPromptBuilder describes tools to the model and demonstrates examples.
// Without examples the builtin ones are used.
func NewPromptBuilder(tools []domain.Tool, examples []domain.Example) *PromptBuilder {
	if len(examples) == 0 {
		examples = BuiltinExamples()
	}
	return &PromptBuilder{tools: tools, examples: examples}
}

// System returns the system instruction.
func (p *PromptBuilder) System() string {
	if len(p.tools) == 0 {
		return rules
	}
	return rules + "\n" + catalog.ToolCallSpec(p.tools)
}

// User returns the user turn for req.
func (p *PromptBuilder) User(req ports.GenerateRequest) string {
	uc := req.Context
	var b strings.Builder
	b.WriteString("CURRENT USER CONTEXT:\n")
	fmt.Fprintf(&b, "Role: %s\nDevice: %s\nTheme: %s\n\n", uc.Role, uc.Device, uc.Theme)
	b.WriteString("AVAILABLE COMPONENT LIBRARY:\n")
	b.WriteString(catalog.PromptSpec())
	if len(p.examples) > 0 {
		b.WriteString("\nFEW-SHOT EXAMPLES:\n")
		for i, ex := range p.examples {
			raw, err := json.MarshalIndent(ex.UI, "", "  ")
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "EXAMPLE %d: User asks %q\nResponse:\n%s\n\n", i+1, ex.Prompt, raw)
		}
	}
	b.WriteString("\nUSER REQUEST:\n")
	b.WriteString(req.Prompt)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	fmt.Fprintf(&b, "Generate the JSON UI Tree. Ensure the layout adapts to %s.\n", uc.Device)
	b.WriteString("Do NOT output Markdown. Output raw JSON.\n")
	return b.String()
}

// RefinePrompt asks for an edited version of one component.
func RefinePrompt(instruction string, subtree any) string {
	raw, _ := json.MarshalIndent(subtree, "", "  ")
	return fmt.Sprintf("Modify this UI component following the instruction. Keep the oneof format and return ONLY the replacement node as raw JSON.\n\nINSTRUCTION: %s\n\nCOMPONENT:\n%s\n", instruction, raw)
}

// FixPrompt asks for a repaired version of a component that failed to
// render.
func FixPrompt(errMsg string, subtree any) string {
	raw, _ := json.MarshalIndent(subtree, "", "  ")
	return fmt.Sprintf("This UI component failed to render with the error below. Return a corrected node that keeps its intent, in the same oneof format, as raw JSON only.\n\nERROR: %s\n\nCOMPONENT:\n%s\n", errMsg, raw)
}

// BuiltinExamples are the default few-shot demonstrations: a hero with a
// row of two buttons and a bento dashboard.
func BuiltinExamples() []domain.Example {
	navigate := func(to string) domain.Action {
		return domain.Action{Type: domain.ActionNavigate, Payload: to}
	}
	return []domain.Example{
		{
			Name:   "landing-hero",
			Title:  "Landing hero",
			Prompt: "Show me a modern landing page hero",
			UI: dsl.MustBuild(
				dsl.Hero("Build the Future", "Deploy your AI agents in seconds with our distributed infrastructure.",
					dsl.Container("ROW",
						dsl.Button("Get Started", navigate("/signup")).Variant("GRADIENT").Set("icon", "Rocket"),
						dsl.Button("Documentation", navigate("/docs")).Variant("OUTLINE").Set("icon", "Book"),
					).Set("gap", "GAP_MD"),
				).Set("gradient", "BLUE_PURPLE").Set("align", "CENTER"),
			),
		},
		{
			Name:   "productivity-dashboard",
			Title:  "Productivity dashboard",
			Prompt: "Personal Productivity Dashboard",
			UI: dsl.MustBuild(
				dsl.BentoContainer(
					dsl.BentoCard("Project Status", 3, 2,
						dsl.Kanban(
							dsl.Column{Title: "To Do", Color: "GRAY", Items: []any{"Design Review", "Update Docs"}},
							dsl.Column{Title: "In Progress", Color: "BLUE", Items: []any{
								map[string]any{"content": "Implement API", "tag": "Backend"}, "Fix Auth Bug",
							}},
							dsl.Column{Title: "Done", Color: "GREEN", Items: []any{"Deploy v1.2"}},
						),
					),
					dsl.BentoCard("Focus Time", 1, 1,
						dsl.Stat("Today", "4h 20m").Set("trend", "+12%").Set("trendDirection", "UP"),
					),
					dsl.BentoCard("Daily Goals", 1, 1,
						dsl.Progress("Tasks", 75).Set("color", "GREEN"),
					),
				),
			),
		},
	}
}

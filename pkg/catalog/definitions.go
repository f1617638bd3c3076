package catalog

import (
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/schema"
)

// Definition describes one component: the shape of its property bag, the
// fields holding nested nodes, the defaults filled on validation and the
// hints shown to the model.
type Definition struct {
	Type    domain.ComponentType
	Summary string

	// Fields validates everything except node lists.
	Fields schema.Schema

	// NodeLists names fields holding an ordered list of nodes. Invalid
	// elements are dropped rather than failing the owner.
	NodeLists []string

	// Defaults are filled for absent fields before decoding.
	Defaults map[string]any

	// Hints document fields for the prompt, in display order.
	Hints []Hint

	// NullBag allows the property bag itself to be null or absent.
	NullBag bool
}

// Hint is one documented field.
type Hint struct {
	Field string
	Doc   string
}

var (
	str    = schema.Optional(schema.String())
	num    = schema.Optional(schema.Float())
	nodes  = schema.Optional(schema.Slice(schema.Any()))
	action = schema.Optional(schema.Object(schema.Schema{
		"type":    schema.String(),
		"payload": schema.Any(),
		"path":    schema.Optional(schema.String()),
	}))
	cell = schema.OneOf(schema.String(), schema.Float(), schema.Object(schema.Schema{}), schema.Null())
)

var definitions = []Definition{
	{
		Type:      domain.ComponentContainer,
		Summary:   "Layout wrapper",
		Fields:    schema.Schema{"layout": str, "gap": str, "padding": schema.Optional(schema.Bool()), "background": str, "bgImage": str, "className": str},
		NodeLists: []string{"children"},
		Hints: []Hint{
			{"layout", `"COL" (default), "ROW", "GRID"`},
			{"gap", `"GAP_SM", "GAP_MD", "GAP_LG", "GAP_XL"`},
			{"padding", "boolean"},
			{"background", `"DEFAULT" (transparent), "SURFACE", "GLASS"`},
			{"bgImage", "string (URL for background image)"},
			{"className", "string (extra style classes)"},
			{"children", "Array of Nodes"},
		},
	},
	{
		Type:      domain.ComponentHero,
		Summary:   "Landing banner",
		Fields:    schema.Schema{"title": str, "subtitle": str, "gradient": str, "align": str},
		NodeLists: []string{"children"},
		Hints: []Hint{
			{"title", "string"},
			{"subtitle", "string"},
			{"gradient", `"BLUE_PURPLE", "ORANGE_RED", "GREEN_TEAL"`},
			{"align", `"CENTER", "LEFT"`},
			{"children", "Array of Nodes (Buttons usually)"},
		},
	},
	{
		Type:     domain.ComponentText,
		Summary:  "Typography",
		Fields:   schema.Schema{"content": str, "variant": str, "color": str, "font": str},
		Defaults: map[string]any{"content": ""},
		Hints: []Hint{
			{"content", "string"},
			{"variant", `"H1", "H2", "H3", "BODY", "CAPTION", "CODE"`},
			{"color", `"DEFAULT", "MUTED", "PRIMARY", "ACCENT", "DANGER", "SUCCESS"`},
			{"font", `"SANS" (default), "SERIF", "CURSIVE"`},
		},
	},
	{
		Type:    domain.ComponentButton,
		Summary: "Interactive button",
		Fields:  schema.Schema{"label": str, "variant": str, "icon": str, "action": action},
		Hints: []Hint{
			{"label", "string"},
			{"variant", `"PRIMARY", "SECONDARY", "GHOST", "DANGER", "GLOW", "OUTLINE", "SOFT", "GRADIENT"`},
			{"icon", "string (icon name)"},
			{"action", `{ "type": string, "payload": any, "path": string } * Types: "NAVIGATE", "PATCH_STATE", "TRIGGER_EFFECT" (payload {"effect": "CONFETTI" | "SNOW"}), "SUBMIT_FORM"`},
		},
	},
	{
		Type:      domain.ComponentCard,
		Summary:   "Surface grouping content",
		Fields:    schema.Schema{"title": str, "variant": str},
		NodeLists: []string{"children"},
		Hints: []Hint{
			{"title", "string"},
			{"variant", `"DEFAULT", "GLASS", "NEON", "OUTLINED", "ELEVATED", "FROSTED"`},
			{"children", "Array of Nodes"},
		},
	},
	{
		Type:    domain.ComponentTable,
		Summary: "Tabular data",
		Fields: schema.Schema{
			"headers": schema.Optional(schema.Slice(schema.String())),
			"rows":    schema.Optional(schema.Slice(schema.Slice(cell))),
		},
		Hints: []Hint{
			{"headers", "Array<string>"},
			{"rows", "Array<Array<string | number | UINode | null>> (nested components like Badges are allowed)"},
		},
	},
	{
		Type:    domain.ComponentStat,
		Summary: "Key metric",
		Fields: schema.Schema{
			"label": str, "value": str, "trend": str,
			"trendDirection": schema.Optional(schema.Enum("UP", "DOWN", "NEUTRAL")),
		},
		Hints: []Hint{
			{"label", "string"},
			{"value", "string"},
			{"trend", "string"},
			{"trendDirection", `"UP", "DOWN", "NEUTRAL"`},
		},
	},
	{
		Type:     domain.ComponentProgress,
		Summary:  "Progress bar",
		Fields:   schema.Schema{"label": str, "value": num, "color": str},
		Defaults: map[string]any{"value": 0.0},
		Hints: []Hint{
			{"label", "string"},
			{"value", "number (0-100)"},
			{"color", `"BLUE", "GREEN", "ORANGE", "RED"`},
		},
	},
	{
		Type:    domain.ComponentAlert,
		Summary: "Callout message",
		Fields:  schema.Schema{"title": str, "description": str, "variant": str},
		Hints: []Hint{
			{"title", "string"},
			{"description", "string"},
			{"variant", `"INFO", "SUCCESS", "WARNING", "ERROR"`},
		},
	},
	{
		Type:    domain.ComponentAvatar,
		Summary: "User avatar",
		Fields:  schema.Schema{"initials": str, "src": str, "status": str},
		Hints: []Hint{
			{"initials", "string"},
			{"src", "string (URL)"},
			{"status", `"ONLINE", "OFFLINE", "BUSY"`},
		},
	},
	{
		Type:    domain.ComponentChart,
		Summary: "Data chart",
		Fields: schema.Schema{
			"title": str, "type": str, "color": str,
			"data": schema.Optional(schema.Slice(schema.Object(schema.Schema{
				"name":  schema.String(),
				"value": schema.Float(),
			}))),
		},
		Defaults: map[string]any{"data": []any{}},
		Hints: []Hint{
			{"title", "string"},
			{"type", `"BAR", "LINE", "AREA"`},
			{"color", "string (Hex)"},
			{"data", "Array<{ name: string, value: number }>"},
		},
	},
	{
		Type:    domain.ComponentAccordion,
		Summary: "Collapsible sections",
		Fields: schema.Schema{
			"variant": str,
			"items": schema.Optional(schema.Slice(schema.Object(schema.Schema{
				"title":   schema.String(),
				"content": nodes,
			}))),
		},
		Defaults: map[string]any{"items": []any{}},
		Hints: []Hint{
			{"variant", `"DEFAULT", "SEPARATED"`},
			{"items", "Array<{ title: string, content: Array<Nodes> }>"},
		},
	},
	{
		Type:    domain.ComponentImage,
		Summary: "Picture",
		Fields:  schema.Schema{"src": str, "alt": str, "caption": str, "aspectRatio": str},
		Hints: []Hint{
			{"src", "string (Use placeholder APIs if needed)"},
			{"alt", "string"},
			{"caption", "string"},
			{"aspectRatio", `"VIDEO", "SQUARE", "WIDE"`},
		},
	},
	{
		Type:    domain.ComponentMap,
		Summary: "Geographic map",
		Fields: schema.Schema{
			"label": str, "defaultZoom": num, "style": str,
			"markers": schema.Optional(schema.Slice(schema.Object(schema.Schema{
				"title": schema.String(),
				"lat":   schema.Float(),
				"lng":   schema.Float(),
			}))),
		},
		Defaults: map[string]any{"markers": []any{}},
		Hints: []Hint{
			{"label", "string"},
			{"defaultZoom", "number"},
			{"style", `"DARK", "LIGHT", "SATELLITE"`},
			{"markers", "Array<{ title: string, lat: number, lng: number }>"},
		},
	},
	{
		Type:    domain.ComponentInput,
		Summary: "Text field",
		Fields:  schema.Schema{"label": str, "placeholder": str, "inputType": str, "value": str},
		Hints: []Hint{
			{"label", "string (also the key of the submitted form field)"},
			{"placeholder", "string"},
			{"inputType", `"text", "email", "password", "number"`},
			{"value", "string"},
		},
	},
	{
		Type:    domain.ComponentBadge,
		Summary: "Small label",
		Fields:  schema.Schema{"label": str, "color": str},
		Hints: []Hint{
			{"label", "string"},
			{"color", `"BLUE", "GREEN", "ORANGE", "RED", "GRAY"`},
		},
	},
	{
		Type:    domain.ComponentSeparator,
		Summary: "Horizontal rule (empty object)",
		Fields:  schema.Schema{},
		NullBag: true,
	},
	{
		Type:      domain.ComponentBentoContainer,
		Summary:   "Grid Layout",
		Fields:    schema.Schema{},
		NodeLists: []string{"children"},
		Hints: []Hint{
			{"children", `Array<Nodes> (Must contain "bento_card" nodes)`},
		},
	},
	{
		Type:      domain.ComponentBentoCard,
		Summary:   "Grid Item",
		Fields:    schema.Schema{"title": str, "colSpan": num, "rowSpan": num, "bgImage": str},
		NodeLists: []string{"children"},
		Defaults:  map[string]any{"colSpan": 1.0, "rowSpan": 1.0},
		Hints: []Hint{
			{"title", "string"},
			{"colSpan", "number (1-4, default 1)"},
			{"rowSpan", "number (1-3, default 1)"},
			{"bgImage", "string (optional)"},
			{"children", "Array<Nodes>"},
		},
	},
	{
		Type:    domain.ComponentKanban,
		Summary: "Project Board",
		Fields: schema.Schema{
			"columns": schema.Optional(schema.Slice(schema.Object(schema.Schema{
				"title": str,
				"color": str,
				"items": schema.Optional(schema.Slice(schema.OneOf(
					schema.String(),
					schema.Object(schema.Schema{"content": schema.String(), "tag": str}),
				))),
			}))),
		},
		Defaults: map[string]any{"columns": []any{}},
		Hints: []Hint{
			{"columns", `Array<{ title: string, color: string, items: Array<string | { content: string, tag: string }> }> * Colors: "BLUE", "GREEN", "ORANGE", "RED", "GRAY"`},
		},
	},
}

var byType = func() map[domain.ComponentType]*Definition {
	m := make(map[domain.ComponentType]*Definition, len(definitions))
	for i := range definitions {
		m[definitions[i].Type] = &definitions[i]
	}
	return m
}()

// Definitions returns every component definition in catalog order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Lookup returns the definition of a component type.
func Lookup(t domain.ComponentType) (Definition, bool) {
	d, ok := byType[t]
	if !ok {
		return Definition{}, false
	}
	return *d, true
}

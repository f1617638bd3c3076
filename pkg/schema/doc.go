// Package schema validates the property bags of UI components as they come
// out of a JSON decoder: strings, float64 numbers, bools, []any and
// map[string]any.
//
// A Schema maps field names to types:
//
//	props := schema.Schema{
//	    "label":          schema.Optional(schema.String()),
//	    "trendDirection": schema.Optional(schema.Enum("UP", "DOWN", "NEUTRAL")),
//	    "action": schema.Optional(schema.Object(schema.Schema{
//	        "type":    schema.String(),
//	        "payload": schema.Any(),
//	    })),
//	}
//
//	if err := schema.Validate(props, bag); err != nil {
//	    // err lists every failing field with its dotted path
//	}
//
// Optional fields may be absent or null. Fields the schema does not name
// are ignored, so models can add decoration the renderer does not use.
package schema

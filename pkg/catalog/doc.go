// Package catalog is the wire contract between model output and the
// renderer: the fixed set of components a UI node may name, the shape of
// each property bag, and the validator that enforces them.
//
// A raw node is valid when it is an object with exactly one catalog key and
// the bag under that key matches the component definition. Node lists
// ("children", accordion item content) drop invalid elements instead of
// failing their owner, because a stream often ends in a half-formed child.
// Table cells and kanban items accept either a scalar or a structured shape.
//
// The same definitions generate the catalog section of the model prompt
// (PromptSpec), which keeps prompt and validator in lockstep.
package catalog

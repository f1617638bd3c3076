package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/schema"
)

// ElementMarker is the key carried by objects that are already rendered
// elements rather than data.
const ElementMarker = "$$typeof"

// Rendered is implemented by rendered output types. Feeding one back into
// the validator is rejected.
type Rendered interface {
	Rendered()
}

const maxDepth = 64

// MissFunc observes classification misses: objects whose keys name no
// catalog component.
type MissFunc func(keys []string, sample string)

// Validator checks raw JSON trees against the component catalog and decodes
// them into typed nodes.
type Validator struct {
	logger *slog.Logger
	onMiss MissFunc
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for classification misses.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithMissHandler registers an observer for classification misses.
func WithMissHandler(fn MissFunc) Option {
	return func(v *Validator) { v.onMiss = fn }
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate confirms that raw is a single-key catalog node whose property
// bag matches the component's shape, recursively. Invalid elements of node
// lists are dropped from the result. On any top-level mismatch it returns a
// nil node and a *NodeError; during streaming that is the common case and
// means "not renderable yet".
func (v *Validator) Validate(raw any) (*domain.Node, error) {
	return v.validate(raw, 0, false)
}

// Valid is Validate without the error.
func (v *Validator) Valid(raw any) (*domain.Node, bool) {
	n, err := v.validate(raw, 0, false)
	return n, err == nil
}

// ValidateShallow checks raw like Validate but leaves node lists empty
// instead of validating their elements. Callers that walk the raw lists
// themselves, like the renderer, use it to avoid validating a subtree once
// per ancestor.
func (v *Validator) ValidateShallow(raw any) (*domain.Node, error) {
	return v.validate(raw, 0, true)
}

func (v *Validator) validate(raw any, depth int, shallow bool) (*domain.Node, error) {
	if depth > maxDepth {
		return nil, &NodeError{Reason: "nesting too deep"}
	}
	typ, bag, err := v.classify(raw)
	if err != nil {
		return nil, err
	}
	def := byType[typ]

	var m map[string]any
	switch b := bag.(type) {
	case map[string]any:
		m = b
	case nil:
		if !def.NullBag {
			return nil, &NodeError{Key: string(typ), Reason: "props must be an object"}
		}
	default:
		return nil, &NodeError{Key: string(typ), Reason: fmt.Sprintf("props must be an object, got %T", bag)}
	}

	if err := schema.Validate(def.Fields, m); err != nil {
		return nil, &NodeError{Key: string(typ), Reason: "props do not match", Err: err}
	}
	for _, f := range def.NodeLists {
		if val, ok := m[f]; ok && val != nil {
			if _, ok := val.([]any); !ok {
				return nil, &NodeError{Key: string(typ), Reason: fmt.Sprintf("field %q must be an array of nodes", f)}
			}
		}
	}

	props := domain.NewProps(typ)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: v.hook(depth, shallow),
		Result:     props,
		TagName:    "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(withDefaults(m, def)); err != nil {
		return nil, &NodeError{Key: string(typ), Reason: "props do not decode", Err: err}
	}
	return &domain.Node{Type: typ, Props: props}, nil
}

// classify finds the sole catalog key of raw.
func (v *Validator) classify(raw any) (domain.ComponentType, any, error) {
	if _, ok := raw.(Rendered); ok {
		return "", nil, &NodeError{Reason: "rendered element is not data"}
	}
	m, ok := raw.(map[string]any)
	if !ok || m == nil {
		return "", nil, &NodeError{Reason: fmt.Sprintf("expected object, got %T", raw)}
	}
	if len(m) == 0 {
		return "", nil, &NodeError{Reason: "empty object"}
	}
	if _, ok := m[ElementMarker]; ok {
		return "", nil, &NodeError{Reason: "rendered element is not data"}
	}

	var found []string
	for k := range m {
		if domain.IsComponent(k) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 1:
		return domain.ComponentType(found[0]), m[found[0]], nil
	case 0:
		keys := Keys(m)
		sample := Sample(m)
		v.logger.Warn("classification miss", "keys", keys, "sample", sample)
		if v.onMiss != nil {
			v.onMiss(keys, sample)
		}
		return "", nil, &NodeError{Key: keys[0], Reason: "unrecognized component"}
	default:
		sort.Strings(found)
		return "", nil, &NodeError{Key: found[0], Reason: fmt.Sprintf("ambiguous node with components %v", found)}
	}
}

// withDefaults copies m over the definition defaults. Node lists default to
// empty lists; a null value counts as absent.
func withDefaults(m map[string]any, def *Definition) map[string]any {
	out := make(map[string]any, len(m)+len(def.Defaults)+len(def.NodeLists))
	for _, f := range def.NodeLists {
		out[f] = []any{}
	}
	for k, val := range def.Defaults {
		out[k] = val
	}
	for k, val := range m {
		if _, ok := out[k]; ok && val == nil {
			continue
		}
		out[k] = val
	}
	return out
}

var (
	nodeSliceType  = reflect.TypeOf([]domain.Node(nil))
	cellType       = reflect.TypeOf(domain.Cell{})
	kanbanItemType = reflect.TypeOf(domain.KanbanItem{})
)

// hook turns node lists, table cells and kanban items into their typed
// forms while mapstructure walks the bag.
func (v *Validator) hook(depth int, shallow bool) mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		switch to {
		case nodeSliceType:
			items, ok := data.([]any)
			if !ok {
				return data, nil
			}
			out := make([]domain.Node, 0, len(items))
			if shallow {
				return out, nil
			}
			for _, it := range items {
				if n, err := v.validate(it, depth+1, false); err == nil {
					out = append(out, *n)
				}
			}
			return out, nil
		case cellType:
			return v.cell(data, depth)
		case kanbanItemType:
			return kanbanItem(data)
		}
		return data, nil
	}
}

func (v *Validator) cell(data any, depth int) (any, error) {
	switch c := data.(type) {
	case domain.Cell:
		return c, nil
	case string:
		return domain.Cell{Kind: domain.CellText, Text: c}, nil
	case float64:
		return domain.Cell{Kind: domain.CellNumber, Number: c}, nil
	case map[string]any:
		if n, err := v.validate(c, depth+1, false); err == nil {
			return domain.Cell{Kind: domain.CellNode, Node: n}, nil
		}
		return domain.Cell{Kind: domain.CellUnknown, Raw: c}, nil
	}
	return nil, fmt.Errorf("table cell must be a string, number, node or null, got %T", data)
}

func kanbanItem(data any) (any, error) {
	switch it := data.(type) {
	case domain.KanbanItem:
		return it, nil
	case string:
		return domain.KanbanItem{Content: it, Plain: true}, nil
	case map[string]any:
		content, _ := it["content"].(string)
		tag, _ := it["tag"].(string)
		return domain.KanbanItem{Content: content, Tag: tag}, nil
	}
	return nil, fmt.Errorf("kanban item must be a string or {content, tag}, got %T", data)
}

// NodeError explains why a raw value is not a valid node.
type NodeError struct {
	Key    string // component key involved, when known
	Reason string
	Err    error
}

func (e *NodeError) Error() string {
	msg := e.Reason
	if e.Key != "" {
		msg = fmt.Sprintf("%q: %s", e.Key, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "invalid ui node " + msg
}

func (e *NodeError) Unwrap() error { return e.Err }

// Is makes every NodeError match domain.ErrInvalidNode.
func (e *NodeError) Is(target error) bool { return target == domain.ErrInvalidNode }

// IsMiss reports whether err is a classification miss.
func IsMiss(err error) bool {
	var ne *NodeError
	return errors.As(err, &ne) && ne.Reason == "unrecognized component"
}

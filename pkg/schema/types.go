package schema

import (
	"fmt"
	"strings"
)

// Type validates one decoded JSON value.
type Type interface {
	// Name is the type as shown in error messages, e.g. "string?".
	Name() string
	Validate(value any) error
}

// scalar is a leaf type checked by a predicate.
type scalar struct {
	name  string
	match func(any) bool
}

func (t scalar) Name() string { return t.name }

func (t scalar) Validate(value any) error {
	if !t.match(value) {
		return fmt.Errorf("expected %s, got %s", t.name, kindOf(value))
	}
	return nil
}

// String accepts strings.
func String() Type {
	return scalar{"string", func(v any) bool { _, ok := v.(string); return ok }}
}

// Float accepts any number. Decoded JSON numbers are float64; Go callers
// may pass integers.
func Float() Type {
	return scalar{"float", func(v any) bool {
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	}}
}

// Bool accepts true and false.
func Bool() Type {
	return scalar{"bool", func(v any) bool { _, ok := v.(bool); return ok }}
}

// Null accepts only null.
func Null() Type {
	return scalar{"null", func(v any) bool { return v == nil }}
}

// Any accepts every value, null included.
func Any() Type {
	return scalar{"any", func(any) bool { return true }}
}

// SliceType validates every element of an array.
type SliceType struct {
	elem Type
}

// Slice accepts arrays whose elements all match elem.
func Slice(elem Type) Type { return &SliceType{elem: elem} }

func (t *SliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t *SliceType) Validate(value any) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected %s, got %s", t.Name(), kindOf(value))
	}
	var errs Errors
	for i, it := range items {
		errs = errs.add(fmt.Sprint(i), it, t.elem.Validate(it))
	}
	return errs.err()
}

// OptionalType lets a field be absent or null.
type OptionalType struct {
	inner Type
}

// Optional marks inner as not required. Wrapping twice is a no-op.
func Optional(inner Type) Type {
	if o, ok := inner.(*OptionalType); ok {
		return o
	}
	return &OptionalType{inner: inner}
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// EnumType accepts one of a fixed set of string tokens.
type EnumType struct {
	values []string
}

// Enum accepts exactly the given tokens, case-sensitively.
func Enum(values ...string) Type { return &EnumType{values: values} }

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %s", kindOf(value))
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("expected one of %s, got %q", strings.Join(t.values, ", "), s)
}

// ObjectType validates a nested object against a schema.
type ObjectType struct {
	fields Schema
}

// Object accepts objects matching fields.
func Object(fields Schema) Type { return &ObjectType{fields: fields} }

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %s", kindOf(value))
	}
	return Validate(t.fields, m)
}

// OneOfType accepts a value matching any alternative.
type OneOfType struct {
	alts []Type
}

// OneOf creates a union; the first matching alternative wins.
func OneOf(alts ...Type) Type { return &OneOfType{alts: alts} }

func (t *OneOfType) Name() string {
	names := make([]string, len(t.alts))
	for i, a := range t.alts {
		names[i] = a.Name()
	}
	return strings.Join(names, " | ")
}

func (t *OneOfType) Validate(value any) error {
	for _, a := range t.alts {
		if a.Validate(value) == nil {
			return nil
		}
	}
	return fmt.Errorf("expected %s, got %s", t.Name(), kindOf(value))
}

// IsOptional reports whether a field of type t may be absent.
func IsOptional(t Type) bool {
	if _, ok := t.(*OptionalType); ok {
		return true
	}
	if s, ok := t.(scalar); ok {
		return s.name == "any" || s.name == "null"
	}
	return false
}

// kindOf names a decoded JSON value the way the model wrote it.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

package schema

import (
	"fmt"
	"strings"
)

// FieldError is one failing field.
type FieldError struct {
	Path   string // dotted path from the validated object
	Reason string
	Value  any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Path, e.Reason)
}

// Errors collects every failing field of one validation.
type Errors []*FieldError

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes the field errors to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, fe := range e {
		out[i] = fe
	}
	return out
}

// add records err under key. Nested Errors are re-rooted below key.
func (e Errors) add(key string, value any, err error) Errors {
	switch t := err.(type) {
	case nil:
		return e
	case Errors:
		for _, fe := range t {
			e = append(e, &FieldError{Path: key + "." + fe.Path, Reason: fe.Reason, Value: fe.Value})
		}
		return e
	}
	return append(e, &FieldError{Path: key, Reason: err.Error(), Value: value})
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

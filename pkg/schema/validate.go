package schema

import "sort"

// Schema maps field names to their types.
type Schema map[string]Type

// Keys returns the field names in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks data against s and reports every failing field, in field
// name order, as Errors. Nested failures carry dotted paths such as
// "action.type" or "data.2.value".
func Validate(s Schema, data map[string]any) error {
	var errs Errors
	for _, name := range s.Keys() {
		typ := s[name]
		value, ok := data[name]
		if !ok {
			if !IsOptional(typ) {
				errs = append(errs, &FieldError{Path: name, Reason: "required"})
			}
			continue
		}
		errs = errs.add(name, value, typ.Validate(value))
	}
	return errs.err()
}

package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statProps = Schema{
	"label":          Optional(String()),
	"value":          Optional(OneOf(String(), Float())),
	"trendDirection": Optional(Enum("UP", "DOWN", "NEUTRAL")),
	"action": Optional(Object(Schema{
		"type":    String(),
		"payload": Any(),
	})),
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		paths []string
	}{
		{"empty bag", map[string]any{}, nil},
		{"full bag", map[string]any{
			"label": "Revenue", "value": 12.5, "trendDirection": "UP",
			"action": map[string]any{"type": "PATCH_STATE", "payload": map[string]any{"a": 1.0}},
		}, nil},
		{"null optional", map[string]any{"label": nil}, nil},
		{"unknown fields ignored", map[string]any{"sparkline": true}, nil},
		{"wrong scalar", map[string]any{"label": 3.0}, []string{"label"}},
		{"bad enum", map[string]any{"trendDirection": "SIDEWAYS"}, []string{"trendDirection"}},
		{"nested required", map[string]any{"action": map[string]any{"payload": nil}}, []string{"action.type"}},
		{"several, sorted", map[string]any{"value": true, "label": false}, []string{"label", "value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(statProps, tt.data)
			if tt.paths == nil {
				assert.NoError(t, err)
				return
			}
			var errs Errors
			require.ErrorAs(t, err, &errs)
			var got []string
			for _, fe := range errs {
				got = append(got, fe.Path)
			}
			assert.Equal(t, tt.paths, got)
		})
	}
}

func TestValidate_SlicePaths(t *testing.T) {
	s := Schema{"data": Slice(Object(Schema{"name": String(), "value": Float()}))}
	err := Validate(s, map[string]any{"data": []any{
		map[string]any{"name": "a", "value": 1.0},
		map[string]any{"name": "b"},
		"oops",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "data.1.value": required`)
	assert.Contains(t, err.Error(), `field "data.2": expected object, got string`)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "data.1.value", fe.Path)
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "string?", Optional(Optional(String())).Name())
	assert.Equal(t, "enum(UP|DOWN|NEUTRAL)", Enum("UP", "DOWN", "NEUTRAL").Name())
	assert.Equal(t, "string | float | object | null", OneOf(String(), Float(), Object(nil), Null()).Name())
	assert.Equal(t, "[bool]", Slice(Bool()).Name())
}

func TestIsOptional(t *testing.T) {
	assert.True(t, IsOptional(Optional(Float())))
	assert.True(t, IsOptional(Any()))
	assert.False(t, IsOptional(String()))
	assert.False(t, IsOptional(Object(Schema{})))
}

func TestFloat_AcceptsGoIntegers(t *testing.T) {
	assert.NoError(t, Float().Validate(3))
	assert.NoError(t, Float().Validate(3.5))
	assert.EqualError(t, Float().Validate("3"), "expected float, got string")
}

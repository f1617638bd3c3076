package domain

import (
	"encoding/json"
)

// ToolCallKey is the root key of the tool-call document shape.
const ToolCallKey = "tool_call"

// ToolCall is a model request to run an external tool instead of emitting UI:
//
//	{"tool_call": {"name": "get_weather", "arguments": {"location": "Tokyo"}}}
type ToolCall struct {
	ID   string         `json:"id,omitempty" yaml:"id" mapstructure:"id"`
	Name string         `json:"name" yaml:"name" mapstructure:"name"`
	Args map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments"`
}

// Fingerprint identifies a call by name and canonical arguments. Two calls
// with the same fingerprint would produce the same request upstream.
func (c ToolCall) Fingerprint() string {
	// encoding/json sorts map keys, which makes the encoding canonical.
	args, _ := json.Marshal(c.Args)
	return c.Name + ":" + string(args)
}

// DetectToolCall reports whether a parsed frame is a tool-call document. A
// partial frame counts as soon as the key appears; the call itself may still
// be incomplete.
func DetectToolCall(frame any) bool {
	m, ok := frame.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[ToolCallKey]
	return ok
}

// ExtractToolCall reads name and arguments out of a complete tool-call frame.
func ExtractToolCall(frame any) (ToolCall, bool) {
	m, ok := frame.(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	body, ok := m[ToolCallKey].(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	name, _ := body["name"].(string)
	if name == "" {
		return ToolCall{}, false
	}
	args, _ := body["arguments"].(map[string]any)
	if args == nil {
		args = map[string]any{}
	}
	return ToolCall{Name: name, Args: args}, true
}

// ToolResult is the outcome of a tool execution. Failures are results too:
// they are fed back to the model as {"error": true, "message": ...}.
type ToolResult struct {
	ID      string `json:"id,omitempty"` // Must match the ToolCall.ID
	Name    string `json:"name"`
	Result  any    `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Payload is the value embedded in the follow-up prompt.
func (r ToolResult) Payload() any {
	if r.IsError {
		return map[string]any{"error": true, "message": r.Error}
	}
	return r.Result
}

// Tool describes a tool available to the model. Parameters is a JSON Schema
// object.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

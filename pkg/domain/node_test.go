package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	assert.Len(t, Catalog, 20)
	for _, c := range Catalog {
		assert.True(t, IsComponent(string(c)))
		props := NewProps(c)
		require.NotNil(t, props, c)
		assert.Equal(t, c, props.Component())
	}
	assert.False(t, IsComponent("tool_call"))
	assert.Nil(t, NewProps("carousel"))
}

func TestNode_MarshalJSON(t *testing.T) {
	n := Node{Type: ComponentCard, Props: &CardProps{
		Title: "Stats",
		Children: []Node{
			{Type: ComponentTable, Props: &TableProps{
				Headers: []string{"k", "v"},
				Rows: [][]Cell{{
					{Kind: CellText, Text: "a"},
					{Kind: CellNumber, Number: 2},
					{Kind: CellNode, Node: &Node{Type: ComponentBadge, Props: &BadgeProps{Label: "ok"}}},
					{},
				}},
			}},
			{Type: ComponentKanban, Props: &KanbanProps{Columns: []KanbanColumn{{
				Title: "Todo",
				Items: []KanbanItem{{Content: "plain", Plain: true}, {Content: "tagged", Tag: "api"}},
			}}}},
			{Type: ComponentSeparator, Props: &SeparatorProps{}},
		},
	}}

	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"card":{"title":"Stats","children":[
		{"table":{"headers":["k","v"],"rows":[["a",2,{"badge":{"label":"ok"}},null]]}},
		{"kanban":{"columns":[{"title":"Todo","items":["plain",{"content":"tagged","tag":"api"}]}]}},
		{"separator":{}}
	]}}`, string(b))
}

func TestNode_Children(t *testing.T) {
	kid := Node{Type: ComponentText, Props: &TextProps{Content: "x"}}
	assert.Len(t, Node{Type: ComponentContainer, Props: &ContainerProps{Children: []Node{kid}}}.Children(), 1)
	assert.Nil(t, kid.Children())
}

func TestAction_Effect(t *testing.T) {
	tests := []struct {
		payload any
		want    Effect
		ok      bool
	}{
		{map[string]any{"effect": "CONFETTI"}, EffectConfetti, true},
		{map[string]any{"effect": "SNOW"}, EffectSnow, true},
		{map[string]any{"effect": "FIREWORKS"}, "", false},
		{"CONFETTI", "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := Action{Type: ActionTriggerEffect, Payload: tt.payload}.Effect()
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "PATCH_STATE@root.x", Action{Type: ActionPatchState, Path: "root.x"}.String())
}

func TestToolCallDetection(t *testing.T) {
	partial := map[string]any{"tool_call": map[string]any{"name": "get_wea"}}
	assert.True(t, DetectToolCall(partial))
	assert.False(t, DetectToolCall(map[string]any{"text": map[string]any{}}))
	assert.False(t, DetectToolCall([]any{}))

	full := map[string]any{"tool_call": map[string]any{
		"name":      "get_weather",
		"arguments": map[string]any{"location": "Tokyo"},
	}}
	call, ok := ExtractToolCall(full)
	require.True(t, ok)
	assert.Equal(t, "get_weather", call.Name)
	assert.Equal(t, map[string]any{"location": "Tokyo"}, call.Args)

	noArgs, ok := ExtractToolCall(map[string]any{"tool_call": map[string]any{"name": "x"}})
	require.True(t, ok)
	assert.Empty(t, noArgs.Args)

	_, ok = ExtractToolCall(map[string]any{"tool_call": map[string]any{"arguments": map[string]any{}}})
	assert.False(t, ok)
}

func TestToolCall_Fingerprint(t *testing.T) {
	a := ToolCall{Name: "get_weather", Args: map[string]any{"location": "Tokyo", "unit": "c"}}
	b := ToolCall{Name: "get_weather", Args: map[string]any{"unit": "c", "location": "Tokyo"}}
	c := ToolCall{Name: "get_weather", Args: map[string]any{"location": "Paris"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestToolResult_Payload(t *testing.T) {
	ok := ToolResult{Name: "x", Result: map[string]any{"v": 1}}
	assert.Equal(t, map[string]any{"v": 1}, ok.Payload())

	failed := ToolResult{Name: "x", IsError: true, Error: "boom"}
	assert.Equal(t, map[string]any{"error": true, "message": "boom"}, failed.Payload())
}

func TestLastUIIndex(t *testing.T) {
	msgs := []Message{
		{ID: "0", Role: RoleSystem},
		{ID: "1", Role: RoleAssistant, UI: map[string]any{}},
		{ID: "2", Role: RoleSystem},
	}
	assert.Equal(t, 1, LastUIIndex(msgs))
	assert.Equal(t, -1, LastUIIndex(msgs[:1]))
}

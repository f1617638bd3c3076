package dsl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/dsl"
)

func TestBuilder_MatchesDecodedJSON(t *testing.T) {
	tree, err := dsl.New().Build(
		dsl.Card("Weather",
			dsl.Stat("Tokyo", "18°C"),
			dsl.Progress("Humidity", 40),
			dsl.Button("Snow", domain.Action{
				Type:    domain.ActionTriggerEffect,
				Payload: map[string]any{"effect": "SNOW"},
			}),
		),
	)
	require.NoError(t, err)

	var want any
	require.NoError(t, json.Unmarshal([]byte(`{"card": {"title": "Weather", "children": [
		{"stat": {"label": "Tokyo", "value": "18°C"}},
		{"progress": {"label": "Humidity", "value": 40}},
		{"button": {"label": "Snow", "action": {"type": "TRIGGER_EFFECT", "payload": {"effect": "SNOW"}}}}
	]}}`), &want))
	assert.Equal(t, want, tree)
}

func TestBuilder_Layouts(t *testing.T) {
	tree, err := dsl.New().Build(
		dsl.BentoContainer(
			dsl.BentoCard("Board", 2, 1,
				dsl.Kanban(
					dsl.Column{Title: "To Do", Items: []any{"Write docs"}},
					dsl.Column{Title: "Done", Color: "GREEN", Items: []any{map[string]any{"content": "Ship", "tag": "v1"}}},
				),
			),
			dsl.BentoCard("Hero", 1, 1, dsl.Hero("Hi", "there", dsl.Container("ROW", dsl.Text("a"), dsl.Badge("new", "BLUE")))),
		),
	)
	require.NoError(t, err)

	bento := tree.(map[string]any)["bento_container"].(map[string]any)
	cards := bento["children"].([]any)
	require.Len(t, cards, 2)
	first := cards[0].(map[string]any)["bento_card"].(map[string]any)
	assert.Equal(t, 2.0, first["colSpan"], "numbers decode as float64")
}

func TestBuilder_Errors(t *testing.T) {
	_, err := dsl.New().Build(nil)
	assert.Error(t, err)

	_, err = dsl.New().Build(dsl.Node("carousel"))
	assert.ErrorIs(t, err, domain.ErrInvalidNode)

	_, err = dsl.New().Build(dsl.Text("x").Set("bad", func() {}))
	assert.ErrorContains(t, err, "encode text")

	assert.Panics(t, func() { dsl.MustBuild(dsl.Node("carousel")) })
}

func TestNodeBuilder_EmptyChildren(t *testing.T) {
	tree := dsl.MustBuild(dsl.Container("COLUMN"))
	props := tree.(map[string]any)["container"].(map[string]any)
	assert.Equal(t, []any{}, props["children"])
}

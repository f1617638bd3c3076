/*
Package dsl provides a Go DSL for building GenUI component trees.

It lets Go code define trees with a fluent builder instead of nested
map literals. Build canonicalizes the result to the raw JSON form the model
produces and validates it against the catalog, so a built tree behaves
exactly like a parsed one.

Example usage:

	tree, err := dsl.New().Build(
		dsl.Card("Weather",
			dsl.Stat("Tokyo", "18°C").Set("trend", "+2°"),
			dsl.Input("City").Set("placeholder", "Search..."),
			dsl.Button("Let it snow", domain.Action{
				Type:    domain.ActionTriggerEffect,
				Payload: map[string]any{"effect": "SNOW"},
			}),
		),
	)
*/
package dsl

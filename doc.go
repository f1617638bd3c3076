/*
Package genui is the client core of a generative user interface: a language
model streams a JSON description of a UI tree and the client turns that
stream into something it can render, interact with and repair.

# Concept

A model answers every prompt with one JSON document. Each node of the
document is an object with exactly one key, the component name:

	{"card": {"title": "Weather", "children": [
		{"stat": {"label": "Lisbon", "value": "21°C"}}
	]}}

While the document streams, every prefix is repaired into valid JSON
(package partialjson) and shown as a live tree. Nodes are checked against a
catalog of twenty components (package catalog) and rendered recursively
(package render); a node that fails does not take its siblings down, and a
subtree that fails to render is sent back to the model for repair.

The model may answer with a tool call instead of UI:

	{"tool_call": {"name": "get_weather", "arguments": {"location": "Tokyo"}}}

The client runs the tool and asks again with the result, up to a bounded
depth.

# Usage

	model := openai.New(openai.Config{APIKey: os.Getenv("GENUI_API_KEY")})
	client, err := genui.New(genui.WithModel(model))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	snap, _ := client.Create(ctx)
	if err := client.Submit(ctx, snap.ConversationID, "A login form"); err != nil {
		log.Fatal(err)
	}
	tree, _ := client.Render(ctx, snap.ConversationID)

Rendered components emit actions (PATCH_STATE, TRIGGER_EFFECT, SUBMIT_FORM,
NAVIGATE), which go back through Dispatch.
*/
package genui

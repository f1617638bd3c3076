package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui"
	mcpadapter "github.com/aretw0/genui/pkg/adapters/mcp"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

type staticGallery []domain.Example

func (g staticGallery) Examples(context.Context) ([]domain.Example, error) { return g, nil }

func connect(t *testing.T, srv *mcpadapter.Server) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ClientInfo:      mcp.Implementation{Name: "genui-test", Version: "0.0.0"},
	}})
	require.NoError(t, err)
	return c
}

// call invokes a tool and decodes its JSON text content into out.
func call(t *testing.T, c *client.Client, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok, "expected text content")
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return res
}

func TestListTools(t *testing.T) {
	t.Run("stateless", func(t *testing.T) {
		c := connect(t, mcpadapter.NewServer())
		res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"validate_ui", "render_ui", "repair_json", "patch_ui", "list_components"}, names)
	})

	t.Run("with generator", func(t *testing.T) {
		gc, err := genui.New(genui.WithModel(memory.NewModel()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = gc.Close() })
		c := connect(t, mcpadapter.NewServer(mcpadapter.WithGenerator(gc)))
		res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)
		assert.Len(t, res.Tools, 6)
	})
}

func TestValidateUI(t *testing.T) {
	c := connect(t, mcpadapter.NewServer())

	tests := []struct {
		name      string
		tree      string
		valid     bool
		component string
		isError   bool
	}{
		{name: "valid", tree: `{"text": {"content": "hi"}}`, valid: true, component: "text"},
		{name: "unknown component", tree: `{"carousel": {}}`},
		{name: "flattened", tree: `{"type": "Button", "label": "Go"}`},
		{name: "not json", tree: `{"text":`, isError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out mcpadapter.ValidateResponse
			res := call(t, c, "validate_ui", map[string]any{"tree": tt.tree}, &out)
			assert.Equal(t, tt.isError, res.IsError)
			if tt.isError {
				return
			}
			assert.Equal(t, tt.valid, out.Valid)
			assert.Equal(t, tt.component, out.Component)
			if !tt.valid {
				assert.NotEmpty(t, out.Error)
			}
		})
	}
}

func TestRenderUI(t *testing.T) {
	c := connect(t, mcpadapter.NewServer())

	var out mcpadapter.RenderResponse
	res := call(t, c, "render_ui", map[string]any{
		"tree":     `{"container": {"children": [{"progress": {"value": 150}}, {"text": {"content": "ok"`,
		"selected": "root.container.children.1",
	}, &out)
	require.False(t, res.IsError)

	require.NotNil(t, out.Root)
	assert.Equal(t, "root", out.Root.Path)
	assert.Equal(t, "container", out.Root.Component)
	assert.Equal(t, []string{"root.container.children.0"}, out.Failures)
	require.Len(t, out.Root.Children, 2)
	assert.True(t, out.Root.Children[1].Selected)
	assert.Contains(t, out.Paths, "root.container.children.1")
}

func TestRepairJSON(t *testing.T) {
	c := connect(t, mcpadapter.NewServer())

	var out mcpadapter.RepairResponse
	res := call(t, c, "repair_json", map[string]any{"text": "```json\n{\"card\": {\"title\": \"Sal"}, &out)
	require.False(t, res.IsError)
	assert.Equal(t, map[string]any{"card": map[string]any{"title": "Sal"}}, out.Value)

	res = call(t, c, "repair_json", map[string]any{"text": "   "}, nil)
	assert.True(t, res.IsError)
}

func TestPatchUI(t *testing.T) {
	c := connect(t, mcpadapter.NewServer())
	tree := `{"card": {"children": [{"input": {"label": "Email"}}]}}`

	t.Run("merge", func(t *testing.T) {
		var out mcpadapter.TreeResponse
		call(t, c, "patch_ui", map[string]any{
			"tree":  tree,
			"path":  "root.card.children.0.input",
			"value": `{"value": "a@b.c"}`,
		}, &out)
		assert.Equal(t, map[string]any{"card": map[string]any{"children": []any{
			map[string]any{"input": map[string]any{"label": "Email", "value": "a@b.c"}},
		}}}, out.Tree)
	})

	t.Run("set", func(t *testing.T) {
		var out mcpadapter.TreeResponse
		call(t, c, "patch_ui", map[string]any{
			"tree":  tree,
			"path":  "card.children.0",
			"value": `{"text": {"content": "gone"}}`,
			"mode":  "set",
		}, &out)
		assert.Equal(t, map[string]any{"card": map[string]any{"children": []any{
			map[string]any{"text": map[string]any{"content": "gone"}},
		}}}, out.Tree)
	})

	t.Run("index past the end", func(t *testing.T) {
		res := call(t, c, "patch_ui", map[string]any{
			"tree":  tree,
			"path":  "root.card.children.50000000.input",
			"value": `{"value": "x"}`,
		}, nil)
		assert.True(t, res.IsError)
	})

	t.Run("bad value", func(t *testing.T) {
		res := call(t, c, "patch_ui", map[string]any{"tree": tree, "path": "card", "value": "{"}, nil)
		assert.True(t, res.IsError)
	})
}

func TestGenerateUI(t *testing.T) {
	model := memory.NewModel()
	model.Fallback = func(ports.GenerateRequest) memory.Script {
		return memory.Script{Chunks: memory.Split(`{"stat": {"label": "Users", "value": "42"}}`, 7)}
	}
	gc, err := genui.New(genui.WithModel(model), genui.WithDebounceDelay(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gc.Close() })
	c := connect(t, mcpadapter.NewServer(mcpadapter.WithGenerator(gc)))

	var out mcpadapter.GenerateResponse
	res := call(t, c, "generate_ui", map[string]any{"prompt": "user count"}, &out)
	require.False(t, res.IsError)
	assert.NotEmpty(t, out.ConversationID)
	assert.Equal(t, map[string]any{"stat": map[string]any{"label": "Users", "value": "42"}}, out.Tree)

	ids, err := gc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{out.ConversationID}, ids)
}

func TestResources(t *testing.T) {
	gallery := staticGallery{{Name: "hello", Title: "Hello", Prompt: "greet me", UI: map[string]any{"text": map[string]any{"content": "hi"}}}}
	c := connect(t, mcpadapter.NewServer(mcpadapter.WithGallery(gallery)))
	ctx := context.Background()

	read := func(uri string) string {
		res, err := c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: uri}})
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		text, ok := res.Contents[0].(mcp.TextResourceContents)
		require.True(t, ok)
		return text.Text
	}

	var cat struct {
		Components []map[string]string `json:"components"`
		Prompt     string              `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal([]byte(read(mcpadapter.CatalogURI)), &cat))
	assert.Len(t, cat.Components, 20)
	assert.NotEmpty(t, cat.Prompt)

	var examples []domain.Example
	require.NoError(t, json.Unmarshal([]byte(read(mcpadapter.GalleryURI)), &examples))
	require.Len(t, examples, 1)
	assert.Equal(t, "greet me", examples[0].Prompt)
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/partialjson"
	"github.com/aretw0/genui/pkg/ports"
	"github.com/aretw0/genui/pkg/render"
	"github.com/aretw0/genui/pkg/treepath"
)

const (
	CatalogURI = "genui://catalog"
	GalleryURI = "genui://gallery"
)

// ValidateResponse reports whether a tree satisfies the component catalog.
type ValidateResponse struct {
	Valid     bool   `json:"valid" jsonschema_description:"True when the whole tree validates"`
	Component string `json:"component,omitempty" jsonschema_description:"Root component type of a valid tree"`
	Error     string `json:"error,omitempty" jsonschema_description:"First validation error"`
}

// RenderResponse is a rendered tree with the paths of failed subtrees.
type RenderResponse struct {
	Root     *render.View `json:"root,omitempty" jsonschema_description:"Rendered element tree"`
	Paths    []string     `json:"paths" jsonschema_description:"Wire paths of every rendered element"`
	Failures []string     `json:"failures,omitempty" jsonschema_description:"Paths of subtrees that failed validation"`
}

// RepairResponse is the closed form of a truncated JSON document.
type RepairResponse struct {
	Repaired string `json:"repaired" jsonschema_description:"Syntactically complete JSON"`
	Value    any    `json:"value" jsonschema_description:"Parsed value of the repaired document"`
}

// TreeResponse carries an edited tree.
type TreeResponse struct {
	Tree any `json:"tree" jsonschema_description:"The resulting UI tree"`
}

// GenerateResponse is the outcome of one generation in a conversation.
type GenerateResponse struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text,omitempty" jsonschema_description:"Text of the last model message"`
	Tree           any    `json:"tree,omitempty" jsonschema_description:"The generated UI tree, if any"`
}

// Generator runs generations against conversations. *genui.Client
// implements it.
type Generator interface {
	Create(ctx context.Context) (domain.Snapshot, error)
	Snapshot(ctx context.Context, id string) (domain.Snapshot, error)
	Submit(ctx context.Context, id, text string) error
}

var _ Generator = (*genui.Client)(nil)

// Server exposes the catalog, renderer and repair parser as MCP tools.
type Server struct {
	validator *catalog.Validator
	renderer  *render.Renderer
	generator Generator
	gallery   ports.Gallery
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithGenerator adds the generate_ui tool.
func WithGenerator(g Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithGallery adds the gallery resource.
func WithGallery(g ports.Gallery) Option {
	return func(s *Server) { s.gallery = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = catalog.NewValidator(catalog.WithLogger(s.logger))
	s.renderer = render.New(render.WithValidator(s.validator), render.WithLogger(s.logger))
	s.mcpServer = server.NewMCPServer("genui-mcp", genui.Version)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_ui",
		mcp.WithDescription("Validate a UI tree against the component catalog."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("The UI tree as JSON")),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("render_ui",
		mcp.WithDescription("Render a UI tree. Invalid subtrees become placeholders instead of failing the whole tree."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("The UI tree as JSON, possibly truncated")),
		mcp.WithString("selected", mcp.Description("Wire path of the node to mark as selected, e.g. root.card.children.0")),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("repair_json",
		mcp.WithDescription("Close a truncated JSON document the way a streaming UI would see it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("A JSON prefix, optionally inside a code fence")),
		mcp.WithOutputSchema[RepairResponse](),
	), mcp.NewStructuredToolHandler(s.handleRepair))

	s.mcpServer.AddTool(mcp.NewTool("patch_ui",
		mcp.WithDescription("Edit a UI tree at a path. Merge mode merges an object into the target, set mode replaces it."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("The UI tree as JSON")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Target path, e.g. card.children.1.input")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The value or patch as JSON")),
		mcp.WithString("mode", mcp.Enum("merge", "set"), mcp.Description("merge (default) or set")),
		mcp.WithOutputSchema[TreeResponse](),
	), mcp.NewStructuredToolHandler(s.handlePatch))

	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("Describe the component library."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(catalog.PromptSpec()), nil
	})

	if s.generator != nil {
		s.mcpServer.AddTool(mcp.NewTool("generate_ui",
			mcp.WithDescription("Ask the model for a UI. Omit conversation_id to start a new conversation."),
			mcp.WithString("prompt", mcp.Required(), mcp.Description("What the UI should show")),
			mcp.WithString("conversation_id", mcp.Description("Conversation to continue")),
			mcp.WithOutputSchema[GenerateResponse](),
		), mcp.NewStructuredToolHandler(s.handleGenerate))
	}
}

func decodeTree(args map[string]interface{}, key string) (any, error) {
	raw, _ := args[key].(string)
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", key, err)
	}
	return v, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	tree, err := decodeTree(args, "tree")
	if err != nil {
		return ValidateResponse{}, err
	}
	node, err := s.validator.Validate(tree)
	if err != nil {
		return ValidateResponse{Error: err.Error()}, nil
	}
	return ValidateResponse{Valid: true, Component: string(node.Type)}, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	raw, _ := args["tree"].(string)
	tree, ok := partialjson.Parse(raw)
	if !ok {
		return RenderResponse{}, errors.New("tree is not repairable JSON")
	}
	selected, _ := args["selected"].(string)

	root := s.renderer.Render(tree, selected)
	resp := RenderResponse{Root: render.NewView(root), Paths: render.Paths(root)}
	render.Walk(root, func(el *render.Element) {
		if el.Status == render.StatusFailed {
			resp.Failures = append(resp.Failures, el.Path)
		}
	})
	return resp, nil
}

func (s *Server) handleRepair(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RepairResponse, error) {
	text, _ := args["text"].(string)
	repaired, ok := partialjson.Repair(text)
	if !ok {
		return RepairResponse{}, errors.New("text cannot be repaired yet")
	}
	var v any
	_ = json.Unmarshal([]byte(repaired), &v)
	return RepairResponse{Repaired: repaired, Value: v}, nil
}

func (s *Server) handlePatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TreeResponse, error) {
	tree, err := decodeTree(args, "tree")
	if err != nil {
		return TreeResponse{}, err
	}
	value, err := decodeTree(args, "value")
	if err != nil {
		return TreeResponse{}, err
	}
	path := treepath.Parse(treepath.Strip(fmt.Sprint(args["path"])))

	var out any
	switch mode, _ := args["mode"].(string); mode {
	case "", "merge":
		out, err = treepath.TryMerge(tree, path, value)
	case "set":
		out, err = treepath.TrySet(tree, path, value)
	default:
		return TreeResponse{}, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return TreeResponse{}, fmt.Errorf("path %s: %w", path.Wire(), err)
	}
	return TreeResponse{Tree: out}, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GenerateResponse, error) {
	prompt, _ := args["prompt"].(string)
	id, _ := args["conversation_id"].(string)
	if id == "" {
		snap, err := s.generator.Create(ctx)
		if err != nil {
			return GenerateResponse{}, err
		}
		id = snap.ConversationID
	}
	if err := s.generator.Submit(ctx, id, prompt); err != nil {
		return GenerateResponse{}, fmt.Errorf("generate failed: %w", err)
	}
	snap, err := s.generator.Snapshot(ctx, id)
	if err != nil {
		return GenerateResponse{}, err
	}

	resp := GenerateResponse{ConversationID: id}
	if n := len(snap.Messages); n > 0 {
		resp.Text = snap.Messages[n-1].Text
	}
	if i := domain.LastUIIndex(snap.Messages); i >= 0 {
		resp.Tree = snap.Messages[i].UI
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Component catalog",
		mcp.WithResourceDescription("Components, their properties and enum values"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		defs := catalog.Definitions()
		components := make([]map[string]string, 0, len(defs))
		for _, d := range defs {
			components = append(components, map[string]string{"name": string(d.Type), "summary": d.Summary})
		}
		jsonBytes, err := json.Marshal(map[string]any{"components": components, "prompt": catalog.PromptSpec()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: CatalogURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})

	if s.gallery == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(GalleryURI, "Example gallery",
		mcp.WithResourceDescription("Curated prompts paired with the trees that answer them"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		examples, err := s.gallery.Examples(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load gallery: %w", err)
		}
		jsonBytes, err := json.Marshal(examples)
		if err != nil {
			return nil, fmt.Errorf("failed to encode gallery: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GalleryURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})
}

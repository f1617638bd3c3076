package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/genui/pkg/domain"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
// A returned error becomes an error result for the model, not a Go error for
// the caller of Execute.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

// Failure is a tool error whose message is shown to the model as is,
// without the "Failed to execute tool" prefix.
type Failure struct {
	Message string
}

func (f *Failure) Error() string { return f.Message }

// Fail builds a Failure.
func Fail(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

type entry struct {
	tool domain.Tool
	fn   ToolFunction
}

// Registry manages the available tools. It implements ports.ToolExecutor.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten in place.
func (r *Registry) Register(tool domain.Tool, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name]; !ok {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = entry{tool: tool, fn: fn}
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Tools describes the registered tools in registration order.
func (r *Registry) Tools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Execute looks up a tool by name and executes it. Unknown tools and tool
// failures are returned as error results; only a cancelled context is
// returned as an error.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolResult{}, err
	}

	r.mu.RLock()
	e, ok := r.tools[call.Name]
	r.mu.RUnlock()

	result := domain.ToolResult{ID: call.ID, Name: call.Name}
	if !ok {
		result.IsError = true
		result.Error = fmt.Sprintf("Tool '%s' not found. Available tools: %s.", call.Name, strings.Join(r.Names(), ", "))
		return result, nil
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	out, err := e.fn(ctx, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ToolResult{}, ctxErr
		}
		result.IsError = true
		var f *Failure
		if errors.As(err, &f) {
			result.Error = f.Message
		} else {
			result.Error = fmt.Sprintf("Failed to execute tool '%s': %v", call.Name, err)
		}
		return result, nil
	}
	result.Result = out
	return result, nil
}

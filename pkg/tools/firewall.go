package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// Firewall validates tool-call arguments before they reach the executor.
// Tools without a schema pass through; unknown tools are left to the
// executor, which reports them to the model.
type Firewall struct {
	next    ports.ToolExecutor
	schemas map[string]*jsonschema.Schema
}

// NewFirewall compiles the parameter schema of each tool.
func NewFirewall(next ports.ToolExecutor, tools []domain.Tool) (*Firewall, error) {
	f := &Firewall{next: next, schemas: make(map[string]*jsonschema.Schema)}
	for _, t := range tools {
		if err := f.Allow(t); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Allow compiles and installs the schema of one tool.
func (f *Firewall) Allow(t domain.Tool) error {
	if len(t.Parameters) == 0 {
		delete(f.schemas, t.Name)
		return nil
	}
	raw, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("tool %q schema: %w", t.Name, err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://genui.local/tools/%s.schema.json", t.Name)
	if err := c.AddResource(schemaURL, strings.NewReader(string(raw))); err != nil {
		return fmt.Errorf("tool %q schema load failed: %w", t.Name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("tool %q schema compile failed: %w", t.Name, err)
	}
	f.schemas[t.Name] = compiled
	return nil
}

// Tools reports the catalog of the wrapped executor, if it has one.
func (f *Firewall) Tools() []domain.Tool { return listTools(f.next) }

func (f *Firewall) Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	if schema, ok := f.schemas[call.Name]; ok {
		args := call.Args
		if args == nil {
			args = map[string]any{}
		}
		if err := schema.Validate(toJSONValue(args)); err != nil {
			return domain.ToolResult{
				ID:      call.ID,
				Name:    call.Name,
				IsError: true,
				Error:   fmt.Sprintf("Failed to execute tool '%s': invalid arguments: %s", call.Name, firstCause(err)),
			}, nil
		}
	}
	return f.next.Execute(ctx, call)
}

// toJSONValue converts args to the generic JSON form the validator expects.
func toJSONValue(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return args
	}
	return v
}

func firstCause(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

func listTools(next ports.ToolExecutor) []domain.Tool {
	if l, ok := next.(ports.ToolLister); ok {
		return l.Tools()
	}
	return nil
}

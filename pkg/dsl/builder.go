package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/genui/pkg/catalog"
)

// Builder turns node builders into validated raw trees.
type Builder struct {
	validator *catalog.Validator
}

// New creates a builder that validates with the default catalog.
func New() *Builder {
	return &Builder{validator: catalog.NewValidator()}
}

// Build returns root as a raw tree: nested maps, slices, strings, float64
// numbers and bools, exactly what decoding the model's JSON would yield.
func (b *Builder) Build(root *NodeBuilder) (any, error) {
	if root == nil {
		return nil, fmt.Errorf("dsl: nil root")
	}
	data, err := json.Marshal(root.raw())
	if err != nil {
		return nil, fmt.Errorf("dsl: encode %s: %w", root.typ, err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("dsl: decode %s: %w", root.typ, err)
	}
	if _, err := b.validator.Validate(tree); err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return tree, nil
}

// MustBuild is Build for trees known at compile time. It panics on an
// invalid tree.
func MustBuild(root *NodeBuilder) any {
	tree, err := New().Build(root)
	if err != nil {
		panic(err)
	}
	return tree
}

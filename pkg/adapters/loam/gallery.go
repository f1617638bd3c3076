package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/partialjson"
)

// ErrExampleNotFound is returned by Get for unknown names.
var ErrExampleNotFound = errors.New("example not found")

// Gallery serves example trees stored as markdown or JSON documents. It
// implements ports.Gallery.
type Gallery struct {
	Repo      *loam.TypedRepository[ExampleMetadata]
	validator *catalog.Validator
}

// New creates a Gallery over repo.
func New(repo *loam.TypedRepository[ExampleMetadata]) *Gallery {
	return &Gallery{Repo: repo, validator: catalog.NewValidator()}
}

// Open opens dir as a read-only gallery.
func Open(dir string) (*Gallery, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gallery path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[ExampleMetadata](repo)), nil
}

// Examples lists every example sorted by name. Two documents resolving to
// the same name, or a document whose tree does not validate, fail the
// whole listing.
func (g *Gallery) Examples(ctx context.Context) ([]domain.Example, error) {
	docs, err := g.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make([]domain.Example, 0, len(docs))
	for _, doc := range docs {
		ex, err := g.build(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[ex.Name]; ok {
			return nil, fmt.Errorf("collision detected: example '%s' is defined in both '%s' and '%s'", ex.Name, existing, doc.ID)
		}
		seen[ex.Name] = doc.ID
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns one example by name.
func (g *Gallery) Get(ctx context.Context, name string) (domain.Example, error) {
	examples, err := g.Examples(ctx)
	if err != nil {
		return domain.Example{}, err
	}
	for _, ex := range examples {
		if ex.Name == name {
			return ex, nil
		}
	}
	return domain.Example{}, fmt.Errorf("%w: %s", ErrExampleNotFound, name)
}

func (g *Gallery) build(docID string, meta ExampleMetadata, content string) (domain.Example, error) {
	ex := domain.Example{
		Name:   meta.Name,
		Title:  meta.Title,
		Prompt: meta.Prompt,
		Tags:   meta.Tags,
	}
	if ex.Name == "" {
		ex.Name = trimExtension(docID)
	}
	if ex.Title == "" {
		ex.Title = ex.Name
	}

	ui, err := normalize(meta.UI)
	if err != nil {
		return ex, fmt.Errorf("example %s: %w", docID, err)
	}
	if ui == nil {
		// notes may precede the code block
		if i := strings.Index(content, "```"); i > 0 {
			content = content[i:]
		}
		body, ok := partialjson.Parse(content)
		if !ok {
			return ex, fmt.Errorf("example %s has no ui tree", docID)
		}
		ui = body
	}
	if _, err := g.validator.Validate(ui); err != nil {
		return ex, fmt.Errorf("example %s: %w", docID, err)
	}
	ex.UI = ui
	return ex, nil
}

// normalize round-trips v through JSON so numbers decode as float64, the
// form trees take everywhere else.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ui is not JSON-compatible: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/aretw0/genui/pkg/domain"
)

// Write stores examples in dir as markdown documents: frontmatter for the
// metadata and a fenced JSON block for the tree. Existing documents with
// the same name are replaced.
func Write(ctx context.Context, dir string, examples []domain.Example) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve gallery path: %w", err)
	}
	repo, err := loam.Init(absPath, loam.WithVersioning(false), loam.WithForceTemp(false))
	if err != nil {
		return fmt.Errorf("failed to open gallery %s: %w", absPath, err)
	}

	for _, ex := range examples {
		if ex.Name == "" {
			return fmt.Errorf("example without a name: %q", ex.Title)
		}
		tree, err := json.MarshalIndent(ex.UI, "", "  ")
		if err != nil {
			return fmt.Errorf("example %s: %w", ex.Name, err)
		}
		meta := core.Metadata{"title": ex.Title, "prompt": ex.Prompt}
		if len(ex.Tags) > 0 {
			meta["tags"] = ex.Tags
		}
		doc := core.Document{
			ID:       ex.Name + ".md",
			Content:  "```json\n" + string(tree) + "\n```\n",
			Metadata: meta,
		}
		if err := repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save example %s: %w", ex.Name, err)
		}
	}
	return nil
}

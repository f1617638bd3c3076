package ports

import (
	"context"

	"github.com/aretw0/genui/pkg/domain"
)

// Gallery lists curated example trees.
type Gallery interface {
	Examples(ctx context.Context) ([]domain.Example, error)
}

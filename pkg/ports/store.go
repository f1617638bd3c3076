package ports

import (
	"context"

	"github.com/aretw0/genui/pkg/domain"
)

// ConversationStore keeps conversation snapshots. Live generation state
// (Streaming, Loading) is process-local and need not be persisted.
type ConversationStore interface {
	// Save stores a copy of the snapshot under its ConversationID.
	Save(ctx context.Context, snap domain.Snapshot) error

	// Load returns domain.ErrConversationNotFound for unknown IDs.
	Load(ctx context.Context, id string) (domain.Snapshot, error)

	Delete(ctx context.Context, id string) error

	// List returns the stored conversation IDs.
	List(ctx context.Context) ([]string, error)
}

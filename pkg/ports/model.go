package ports

import (
	"context"

	"github.com/aretw0/genui/pkg/domain"
)

// GenerateRequest is one model turn.
type GenerateRequest struct {
	// Prompt is the text sent to the model. For tool follow-ups and form
	// submissions it differs from Original.
	Prompt string
	// Original is the user text the generation answers.
	Original string
	Context  domain.UserContext
}

// ChunkStream is a sequence of raw text fragments. Concatenated, they form
// one JSON document. Fragments may split tokens, escapes and UTF-8 sequences
// anywhere.
type ChunkStream interface {
	// Next blocks until a chunk is available. It returns false at the end of
	// the stream or on error.
	Next() bool
	Chunk() string
	Err() error
	Close() error
}

// Model is the external language model.
type Model interface {
	// Stream opens a generation.
	Stream(ctx context.Context, req GenerateRequest) (ChunkStream, error)

	// Refine rewrites subtree following instruction and returns the
	// replacement tree.
	Refine(ctx context.Context, instruction string, subtree any) (any, error)

	// Fix repairs subtree, which failed to render with errMsg.
	Fix(ctx context.Context, errMsg string, subtree any) (any, error)
}

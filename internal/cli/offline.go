package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/adapters/openai"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

const offlineChunk = 24

// NewOfflineModel answers every request with the example whose prompt,
// name or tags share the most words with it, streamed in small chunks.
// Refinements return the subtree unchanged.
func NewOfflineModel(examples []domain.Example) *memory.Model {
	if len(examples) == 0 {
		examples = openai.BuiltinExamples()
	}
	m := memory.NewModel()
	m.Fallback = func(req ports.GenerateRequest) memory.Script {
		raw, err := json.Marshal(bestExample(examples, req.Original).UI)
		if err != nil {
			return memory.Script{Err: err}
		}
		return memory.Script{Chunks: memory.Split(string(raw), offlineChunk)}
	}
	m.RefineFunc = func(_ context.Context, _ string, subtree any) (any, error) { return subtree, nil }
	m.FixFunc = func(_ context.Context, _ string, subtree any) (any, error) { return subtree, nil }
	return m
}

func bestExample(examples []domain.Example, text string) domain.Example {
	words := strings.Fields(strings.ToLower(text))
	best, score := examples[0], -1
	for _, ex := range examples {
		hay := strings.ToLower(ex.Name + " " + ex.Title + " " + ex.Prompt + " " + strings.Join(ex.Tags, " "))
		n := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(hay, w) {
				n++
			}
		}
		if n > score {
			best, score = ex, n
		}
	}
	return best
}

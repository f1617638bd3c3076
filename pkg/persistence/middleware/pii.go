package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ConversationStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks sensitive values in stored trees: the value of
// every password input, and every property whose key matches one of the
// patterns. Loaded snapshots keep the masks.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ConversationStore) ports.ConversationStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, snap domain.Snapshot) error {
	// Trees are shared with the live conversation; mask copies.
	msgs := make([]domain.Message, len(snap.Messages))
	for i, msg := range snap.Messages {
		if msg.UI != nil {
			msg.UI = m.mask(msg.UI)
		}
		msgs[i] = msg
	}
	snap.Messages = msgs
	return m.next.Save(ctx, snap)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a masked deep copy of v.
func (m *piiMiddleware) mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if m.sensitive(k) {
				out[k] = Mask
				continue
			}
			out[k] = m.mask(val)
		}
		if in, ok := out[string(domain.ComponentInput)].(map[string]any); ok && in["type"] == "password" {
			if _, has := in["value"]; has {
				in["value"] = Mask
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = m.mask(val)
		}
		return out
	}
	return v
}

func (m *piiMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

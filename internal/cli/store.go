package cli

import (
	"encoding/base64"
	"fmt"

	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/pkg/persistence/middleware"
	"github.com/aretw0/genui/pkg/ports"
)

// protectStore wraps store with password masking and, when a key is
// configured, encryption at rest.
func protectStore(store ports.ConversationStore, cfg config.StoreConfig) (ports.ConversationStore, error) {
	pii, err := middleware.NewPIIMiddleware(cfg.MaskPatterns)
	if err != nil {
		return nil, err
	}
	mws := []middleware.Middleware{pii}

	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		if enc.ActiveKey, err = decodeKey(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		for i, k := range cfg.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		sealed, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, sealed)
	}
	return middleware.Chain(store, mws...), nil
}

func decodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

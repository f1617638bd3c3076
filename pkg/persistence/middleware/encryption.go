package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/ports"
)

// sealedMessageID marks the single message of an encrypted envelope.
const sealedMessageID = "__sealed__"

var (
	// ErrNotSealed is returned when a stored snapshot carries no envelope.
	ErrNotSealed = errors.New("snapshot is missing its encrypted envelope")
	// ErrNoKeyOpens is returned when no configured key decrypts an envelope.
	ErrNoKeyOpens = errors.New("no configured key opens the envelope")
)

// EncryptionConfig holds the AES-256 keys.
type EncryptionConfig struct {
	// ActiveKey seals new snapshots.
	ActiveKey []byte
	// FallbackKeys only open. They let keys rotate without rewriting
	// stored conversations.
	FallbackKeys [][]byte
}

// Validate checks that every key is 32 bytes.
func (c EncryptionConfig) Validate() error {
	if len(c.ActiveKey) != 32 {
		return fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(c.ActiveKey))
	}
	for i, k := range c.FallbackKeys {
		if len(k) != 32 {
			return fmt.Errorf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return nil
}

// keyRing seals with its first cipher and opens with any of them.
type keyRing []cipher.AEAD

func newKeyRing(cfg EncryptionConfig) (keyRing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var ring keyRing
	for _, key := range append([][]byte{cfg.ActiveKey}, cfg.FallbackKeys...) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		ring = append(ring, gcm)
	}
	return ring, nil
}

// seal returns nonce||ciphertext.
func (r keyRing) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, r[0].NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return r[0].Seal(nonce, nonce, plain, nil), nil
}

func (r keyRing) open(sealed []byte) ([]byte, error) {
	for _, gcm := range r {
		n := gcm.NonceSize()
		if len(sealed) < n {
			continue
		}
		if plain, err := gcm.Open(nil, sealed[:n], sealed[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, ErrNoKeyOpens
}

type encryptedStore struct {
	next ports.ConversationStore
	ring keyRing
}

// NewEncryptionMiddleware stores each snapshot as an AES-GCM sealed
// envelope. The conversation ID stays readable for listing; everything else
// travels base64-encoded in one system message.
func NewEncryptionMiddleware(cfg EncryptionConfig) (Middleware, error) {
	ring, err := newKeyRing(cfg)
	if err != nil {
		return nil, err
	}
	return func(next ports.ConversationStore) ports.ConversationStore {
		return &encryptedStore{next: next, ring: ring}
	}, nil
}

func (s *encryptedStore) Save(ctx context.Context, snap domain.Snapshot) error {
	plain, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sealed, err := s.ring.seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt snapshot: %w", err)
	}
	return s.next.Save(ctx, domain.Snapshot{
		ConversationID: snap.ConversationID,
		Messages: []domain.Message{{
			ID:   sealedMessageID,
			Role: domain.RoleSystem,
			Text: base64.StdEncoding.EncodeToString(sealed),
		}},
	})
}

// Load refuses plain snapshots instead of passing them through.
func (s *encryptedStore) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	env, err := s.next.Load(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(env.Messages) != 1 || env.Messages[0].ID != sealedMessageID {
		return domain.Snapshot{}, fmt.Errorf("conversation %s: %w", id, ErrNotSealed)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Messages[0].Text)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("conversation %s: bad envelope encoding: %w", id, err)
	}
	plain, err := s.ring.open(sealed)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("conversation %s: %w", id, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("conversation %s: %w", id, err)
	}
	return snap, nil
}

func (s *encryptedStore) Delete(ctx context.Context, id string) error { return s.next.Delete(ctx, id) }

func (s *encryptedStore) List(ctx context.Context) ([]string, error) { return s.next.List(ctx) }

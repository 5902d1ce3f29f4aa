package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// EncryptionConfig holds AES-256 keys for session sealing.
type EncryptionConfig struct {
	// ActiveKey seals every save. It must be 32 bytes.
	ActiveKey []byte
	// FallbackKeys are retired keys still accepted when opening, newest
	// first. Sessions move to ActiveKey on their next save.
	FallbackKeys [][]byte
}

// ErrSealBroken is returned when no configured key opens a session, or the
// stored document carries no sealed payload at all.
var ErrSealBroken = errors.New("sealed session cannot be opened")

// sealedStage is the StageData slot holding the ciphertext of an envelope.
const sealedStage domain.StageID = "__sealed__"

// ParseKey decodes a hex encoded AES-256 key.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: got %d bytes, want 32", len(key))
	}
	return key, nil
}

// NewEncryptionMiddleware seals whole sessions with AES-GCM before they
// reach the wrapped store. Only the session ID, status and timestamps stay
// readable there; the credential, transcript and staged uploads do not.
// The ciphertext is bound to its session ID, so an envelope copied under
// another ID does not open. It panics on a malformed key.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	active, err := newAEAD(config.ActiveKey)
	if err != nil {
		panic(fmt.Sprintf("encryption middleware: active key: %v", err))
	}
	s := &sealer{active: active}
	for i, key := range config.FallbackKeys {
		aead, err := newAEAD(key)
		if err != nil {
			panic(fmt.Sprintf("encryption middleware: fallback key %d: %v", i, err))
		}
		s.fallbacks = append(s.fallbacks, aead)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &sealedStore{next: next, sealer: s}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("got %d bytes, want 32", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// sealer holds the prepared ciphers. The session ID is the associated data.
type sealer struct {
	active    cipher.AEAD
	fallbacks []cipher.AEAD
}

func (s *sealer) seal(sessionID string, plain []byte) ([]byte, error) {
	nonce := make([]byte, s.active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.active.Seal(nonce, nonce, plain, []byte(sessionID)), nil
}

func (s *sealer) open(sessionID string, sealed []byte) ([]byte, error) {
	for _, aead := range append([]cipher.AEAD{s.active}, s.fallbacks...) {
		n := aead.NonceSize()
		if len(sealed) < n {
			break
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], []byte(sessionID)); err == nil {
			return plain, nil
		}
	}
	return nil, ErrSealBroken
}

type sealedStore struct {
	next   ports.StateStore
	sealer *sealer
}

func (m *sealedStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	sealed, err := m.sealer.seal(sessionID, plain)
	if err != nil {
		return fmt.Errorf("seal session %s: %w", sessionID, err)
	}

	envelope := &domain.State{
		SessionID: state.SessionID,
		Status:    state.Status,
		StageData: map[domain.StageID]map[string]any{
			sealedStage: {"ciphertext": base64.StdEncoding.EncodeToString(sealed)},
		},
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *sealedStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.StageData[sealedStage]["ciphertext"].(string)
	if !ok {
		// A clear-text session here means someone bypassed the middleware.
		return nil, fmt.Errorf("session %s has no sealed payload: %w", sessionID, ErrSealBroken)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: %w", sessionID, ErrSealBroken, err)
	}
	plain, err := m.sealer.open(sessionID, sealed)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	var state domain.State
	if err := json.Unmarshal(plain, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (m *sealedStore) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *sealedStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

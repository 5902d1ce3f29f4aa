package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func newSecretState(id string) *domain.State {
	state := domain.NewState(id, domain.SessionContext{
		ActorRole:       domain.RoleOrgAdmin,
		OrganizationID:  "org-1",
		IsAuthenticated: true,
		AuthToken:       "my-secret-token",
	}, domain.StageTeam)
	state.StageData[domain.StageTeam] = map[string]any{"note": "encrypted-with-old-key"}
	return state
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	originalState := newSecretState(sessionID)

	if err := secureStore.Save(ctx, sessionID, originalState); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The wrapped store only sees the envelope.
	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if storedState.Session.AuthToken != "" {
		t.Fatalf("Expected credential to be hidden, found: %v", storedState.Session.AuthToken)
	}
	if _, ok := storedState.StageData["__sealed__"]["ciphertext"]; !ok {
		t.Fatal("Expected sealed ciphertext in envelope")
	}
	if storedState.SessionID != sessionID {
		t.Errorf("Expected session id to stay visible, got %q", storedState.SessionID)
	}

	loadedState, err := secureStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loadedState.Session.AuthToken != "my-secret-token" {
		t.Errorf("Expected 'my-secret-token', got %v", loadedState.Session.AuthToken)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureStoreOld := mwOld(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"

	if err := secureStoreOld.Save(ctx, sessionID, newSecretState(sessionID)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureStoreNew := mwNew(underlyingStore)

	loadedState, err := secureStoreNew.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loadedState.StageData[domain.StageTeam]["note"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loadedState.StageData[domain.StageTeam]["note"] = "encrypted-with-new-key"
	if err := secureStoreNew.Save(ctx, sessionID, loadedState); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	_, err = secureStoreOld.Load(ctx, sessionID)
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	_ = underlyingStore.Save(ctx, "plain", newSecretState("plain"))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected plain state to be rejected")
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ports.RunStateStoreContract(t, store)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(hex.EncodeToString(key))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(parsed) != string(key) {
		t.Error("ParseKey returned a different key")
	}

	if _, err := middleware.ParseKey(strings.Repeat("ab", 16)); err == nil {
		t.Error("Expected error for 16 byte key")
	}
	if _, err := middleware.ParseKey("not-hex"); err == nil {
		t.Error("Expected error for non-hex key")
	}
}

func TestEncryptionMiddleware_EnvelopeIsBoundToSession(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	ctx := context.Background()

	if err := secureStore.Save(ctx, "victim", newSecretState("victim")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	envelope, err := underlyingStore.Load(ctx, "victim")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if err := underlyingStore.Save(ctx, "attacker", envelope); err != nil {
		t.Fatalf("Underlying save failed: %v", err)
	}

	_, err = secureStore.Load(ctx, "attacker")
	if !errors.Is(err, middleware.ErrSealBroken) {
		t.Errorf("Expected ErrSealBroken for a copied envelope, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidFallbackKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid fallback key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
}

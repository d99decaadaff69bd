package identity_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/identity"
	"github.com/veromart/storefront-go/storage"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}
func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk unavailable")
}
func (failingStore) Remove(context.Context, string) error {
	return errors.New("disk unavailable")
}

// readOnlyStore reads fine but rejects every write, like a full disk.
type readOnlyStore struct{}

func (readOnlyStore) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (readOnlyStore) Set(context.Context, string, string) error {
	return errors.New("read-only filesystem")
}
func (readOnlyStore) Remove(context.Context, string) error {
	return errors.New("read-only filesystem")
}

// unsignedToken builds a JWT-shaped token with the given claims. The
// resolver only inspects claims, it never verifies signatures.
func unsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.sig", enc.EncodeToString(header), enc.EncodeToString(payload))
}

func TestHeadersAnonymous(t *testing.T) {
	r := identity.NewResolver(nil, storage.NewMemoryStore(), zerolog.Nop())
	h := r.Headers(context.Background())
	if _, ok := h["Authorization"]; ok {
		t.Error("Authorization set for anonymous caller")
	}
	if h["X-Session-ID"] == "" {
		t.Error("X-Session-ID missing for anonymous caller")
	}
	if len(h) != 1 {
		t.Errorf("got %d headers, want exactly one", len(h))
	}
}

func TestHeadersAuthenticated(t *testing.T) {
	tok := unsignedToken(t, map[string]any{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	r := identity.NewResolver(identity.TokenFunc(func() string { return tok }), storage.NewMemoryStore(), zerolog.Nop())
	h := r.Headers(context.Background())
	if h["Authorization"] != "Bearer "+tok {
		t.Errorf("Authorization = %q, want bearer token", h["Authorization"])
	}
	if _, ok := h["X-Session-ID"]; ok {
		t.Error("X-Session-ID set alongside Authorization")
	}
}

func TestExpiredTokenFallsBackToAnonymous(t *testing.T) {
	tok := unsignedToken(t, map[string]any{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	r := identity.NewResolver(identity.TokenFunc(func() string { return tok }), storage.NewMemoryStore(), zerolog.Nop())
	h := r.Headers(context.Background())
	if _, ok := h["Authorization"]; ok {
		t.Error("expired token still sent as Authorization")
	}
	if h["X-Session-ID"] == "" {
		t.Error("X-Session-ID missing after expired-token fallback")
	}
}

func TestMalformedTokenSentAsIs(t *testing.T) {
	r := identity.NewResolver(identity.TokenFunc(func() string { return "not-a-jwt" }), storage.NewMemoryStore(), zerolog.Nop())
	h := r.Headers(context.Background())
	if h["Authorization"] != "Bearer not-a-jwt" {
		t.Errorf("Authorization = %q, want malformed token passed through", h["Authorization"])
	}
}

func TestSessionIDStable(t *testing.T) {
	store := storage.NewMemoryStore()
	r := identity.NewResolver(nil, store, zerolog.Nop())
	ctx := context.Background()

	first := r.SessionID(ctx)
	if first == "" {
		t.Fatal("SessionID() returned empty")
	}
	if second := r.SessionID(ctx); second != first {
		t.Errorf("SessionID() = %q on second call, want %q", second, first)
	}

	// A fresh resolver over the same store sees the same identity.
	other := identity.NewResolver(nil, store, zerolog.Nop())
	if got := other.SessionID(ctx); got != first {
		t.Errorf("SessionID() from new resolver = %q, want %q", got, first)
	}
}

func TestSessionIDStorageFailureFallback(t *testing.T) {
	r := identity.NewResolver(nil, failingStore{}, zerolog.Nop())
	ctx := context.Background()

	first := r.SessionID(ctx)
	if first == "" {
		t.Fatal("SessionID() returned empty on storage failure")
	}
	// The in-memory fallback keeps the identity stable for the process.
	if second := r.SessionID(ctx); second != first {
		t.Errorf("SessionID() = %q after storage failure, want stable %q", second, first)
	}
}

func TestSessionIDStableWhenWritesFail(t *testing.T) {
	r := identity.NewResolver(nil, readOnlyStore{}, zerolog.Nop())
	ctx := context.Background()

	first := r.SessionID(ctx)
	if first == "" {
		t.Fatal("SessionID() returned empty on write-failing store")
	}
	// The store keeps reporting the key absent, yet the identity must not
	// be re-minted on every call.
	for i := 0; i < 3; i++ {
		if got := r.SessionID(ctx); got != first {
			t.Fatalf("SessionID() call %d = %q, want stable %q", i, got, first)
		}
	}
}

func TestIdentitySwitchesWithToken(t *testing.T) {
	var tok string
	r := identity.NewResolver(identity.TokenFunc(func() string { return tok }), storage.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	if !r.Anonymous() {
		t.Fatal("Anonymous() = false before login")
	}
	tok = unsignedToken(t, map[string]any{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	if r.Anonymous() {
		t.Fatal("Anonymous() = true after login")
	}
	if _, ok := r.Headers(ctx)["Authorization"]; !ok {
		t.Error("Authorization missing after login")
	}
	tok = ""
	if _, ok := r.Headers(ctx)["X-Session-ID"]; !ok {
		t.Error("X-Session-ID missing after logout")
	}
}

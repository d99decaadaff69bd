// Package identity decides how every backend request identifies its caller:
// a bearer token for authenticated users, or a durable anonymous session ID
// for everyone else.
package identity

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/storage"
)

// TokenSource supplies the current auth token, or an empty string when the
// caller is logged out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Resolver produces identity headers for outbound requests. An anonymous ID
// is minted once, persisted, and reused; when persistence fails the ID is
// held in memory so a single process still keeps a stable identity.
type Resolver struct {
	tokens TokenSource
	store  storage.Store
	log    zerolog.Logger

	mu       sync.Mutex
	fallback string
}

// NewResolver wires a resolver to its token source and persistent store.
// tokens may be nil for purely anonymous clients.
func NewResolver(tokens TokenSource, store storage.Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		store:  store,
		log:    log.With().Str("component", "identity").Logger(),
	}
}

// Headers returns the identity headers for a request: Authorization when a
// usable token exists, X-Session-ID otherwise. Exactly one of the two is set.
func (r *Resolver) Headers(ctx context.Context) map[string]string {
	if tok := r.bearer(); tok != "" {
		return map[string]string{"Authorization": "Bearer " + tok}
	}
	return map[string]string{"X-Session-ID": r.SessionID(ctx)}
}

// Anonymous reports whether requests currently go out without a bearer token.
func (r *Resolver) Anonymous() bool {
	return r.bearer() == ""
}

func (r *Resolver) bearer() string {
	if r.tokens == nil {
		return ""
	}
	tok := r.tokens.Token()
	if tok == "" {
		return ""
	}
	if expired(tok) {
		r.log.Debug().Msg("bearer token expired, falling back to anonymous identity")
		return ""
	}
	return tok
}

// expired reports whether the token carries an exp claim in the past. Tokens
// that cannot be parsed are sent as-is and left for the server to judge.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// SessionID returns the durable anonymous session ID, minting and persisting
// one on first use.
func (r *Resolver) SessionID(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok, err := r.store.Get(ctx, storage.KeySessionID)
	if err == nil && ok {
		r.fallback = ""
		return v
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("read anonymous session id")
	}
	// A previously minted ID that never made it to the store still wins:
	// identity must stay stable even on a half-broken backend.
	if r.fallback != "" {
		return r.fallback
	}

	id := uuid.NewString()
	if setErr := r.store.Set(ctx, storage.KeySessionID, id); setErr != nil {
		r.log.Warn().Err(setErr).Msg("persist anonymous session id, keeping in memory")
		r.fallback = id
	}
	return id
}

// Package storage provides the small key-value store the SDK uses to persist
// identity and session state across process restarts. Implementations back it
// with the local filesystem, Redis, or plain memory.
package storage

import "context"

// Well-known keys shared by the identity, auth, and chat layers.
const (
	KeySessionID   = "session_id"
	KeyChatSession = "chat_session"
	KeyToken       = "token"
	KeyUser        = "user"
)

// Store is a string key-value store. Get reports presence separately from
// failure so callers can distinguish a missing key from a broken backend.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Package chat manages the lifetime of a storefront chat session: resolving
// it against the backend, submitting user messages, and folding streamed
// reply tokens into an ordered message log.
package chat

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the session transcript. Timestamp is an ISO-8601
// string assigned by whoever created the message and serves as a stable key
// for list rendering.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is the backend's view of a chat session. SessionID is the routing
// key for message submission and the push stream.
type Session struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	SessionID   string    `json:"session_id"`
	IsAnonymous bool      `json:"is_anonymous"`
	CartID      *string   `json:"cart_id"`
	Messages    []Message `json:"messages"`
	CreatedAt   string    `json:"created_at,omitempty"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
	ExpiryDate  string    `json:"expiry_date,omitempty"`
}

// ConnState describes the push stream connection.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
)

// StreamEvent is one decoded event from the push stream. The server sends a
// connection preamble first, then token events until Finished, and reports
// processing failures through Error.
type StreamEvent struct {
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	Token     string `json:"token"`
	Finished  bool   `json:"finished"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Preamble reports whether the event is the server's connection handshake
// rather than reply content.
func (e *StreamEvent) Preamble() bool {
	return e.Type == "connection"
}

// Stream is an open push stream. Recv blocks until the next event arrives or
// the stream fails; Close tears the stream down and unblocks Recv.
type Stream interface {
	Recv() (*StreamEvent, error)
	Close() error
}

// StreamDialer opens a push stream for a session.
type StreamDialer interface {
	Dial(ctx context.Context, sessionID string) (Stream, error)
}

// API is the slice of the backend the chat service depends on.
type API interface {
	FetchSession(ctx context.Context) (*Session, error)
	PostMessage(ctx context.Context, sessionID, message string) error
}

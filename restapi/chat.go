package restapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/veromart/storefront-go/chat"
)

// ErrChatUnavailable is returned while the chat circuit breaker is open.
var ErrChatUnavailable = errors.New("restapi: chat backend temporarily unavailable")

// FetchSession resolves the chat session for the current identity. The
// backend creates one when none exists.
func (c *Client) FetchSession(ctx context.Context) (*chat.Session, error) {
	var result struct {
		ChatSession chat.Session `json:"chat_session"`
		SessionID   string       `json:"session_id"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/chat/sessions")
	if err != nil {
		return nil, fmt.Errorf("fetch chat session: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	sess := result.ChatSession
	if sess.SessionID == "" {
		sess.SessionID = result.SessionID
	}
	return &sess, nil
}

// PostMessage submits a user message for asynchronous processing. The
// backend acknowledges with 202 and delivers the reply over the push stream.
func (c *Client) PostMessage(ctx context.Context, sessionID, message string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{
				"message":    message,
				"session_id": sessionID,
			}).
			Post("/chat/message")
		if err != nil {
			return nil, fmt.Errorf("submit chat message: %w", err)
		}
		if resp.IsError() {
			return nil, apiError(resp)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrChatUnavailable, err)
	}
	return err
}

var _ chat.API = (*Client)(nil)

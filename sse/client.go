// Package sse implements the push stream transport: a Server-Sent Events
// client that decodes the backend's chat stream into events.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/chat"
)

const streamPath = "/chat/stream"

// Dialer opens SSE connections against the storefront backend.
type Dialer struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewDialer builds a dialer for the given backend root. The HTTP client
// carries no overall timeout; stream lifetime is governed by the dial
// context.
func NewDialer(baseURL string, log zerolog.Logger) *Dialer {
	return &Dialer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     log.With().Str("component", "sse").Logger(),
	}
}

// Dial opens the push stream for a session. The stream stays open until
// Close is called or ctx ends.
func (d *Dialer) Dial(ctx context.Context, sessionID string) (chat.Stream, error) {
	endpoint := fmt.Sprintf("%s%s?session_id=%s", d.baseURL, streamPath, url.QueryEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect push stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("push stream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	d.log.Debug().Str("session_id", sessionID).Msg("push stream connected")
	return &stream{resp: resp, reader: bufio.NewReader(resp.Body), log: d.log}, nil
}

type stream struct {
	resp   *http.Response
	reader *bufio.Reader
	log    zerolog.Logger
	err    error
}

// Recv reads frames until one carries a decodable data payload. Comment and
// keep-alive lines are skipped; malformed payloads are logged and dropped
// rather than killing the stream. A final frame cut off without its newline
// is still delivered, with the read error surfaced on the next call.
func (s *stream) Recv() (*chat.StreamEvent, error) {
	for {
		if s.err != nil {
			return nil, s.err
		}
		line, err := s.reader.ReadString('\n')
		if ev, ok := s.decode(line); ok {
			if err != nil {
				s.err = err
			}
			return ev, nil
		}
		if s.err != nil {
			return nil, s.err
		}
		if err != nil {
			return nil, err
		}
	}
}

// decode parses one SSE line. It reports false for blanks, comments,
// non-data lines, and malformed payloads; the end-of-stream marker records
// io.EOF instead of producing an event.
func (s *stream) decode(line string) (*chat.StreamEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return nil, false
	}
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return nil, false
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, false
	}
	if data == "[DONE]" {
		s.err = io.EOF
		return nil, false
	}

	var ev chat.StreamEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		s.log.Debug().Err(err).Str("data", data).Msg("skipping malformed stream payload")
		return nil, false
	}
	return &ev, true
}

func (s *stream) Close() error {
	return s.resp.Body.Close()
}

var _ chat.StreamDialer = (*Dialer)(nil)
var _ chat.Stream = (*stream)(nil)

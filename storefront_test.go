package storefront_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	storefront "github.com/veromart/storefront-go"
	"github.com/veromart/storefront-go/chat"
	"github.com/veromart/storefront-go/config"
	"github.com/veromart/storefront-go/storage"
)

// chatBackend is a minimal storefront backend: sessions keyed by identity,
// asynchronous message processing, and replies delivered over SSE.
type chatBackend struct {
	mu      sync.Mutex
	streams map[string]chan chat.StreamEvent
}

func (b *chatBackend) stream(sessionID string) chan chat.StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.streams[sessionID]; ok {
		return ch
	}
	ch := make(chan chat.StreamEvent, 16)
	b.streams[sessionID] = ch
	return ch
}

func (b *chatBackend) sessionID(c *gin.Context) (string, bool) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return "user-sess", false
	}
	return "anon-" + c.GetHeader("X-Session-ID"), true
}

func newChatBackend(t *testing.T) (*chatBackend, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &chatBackend{streams: make(map[string]chan chat.StreamEvent)}
	r := gin.New()
	api := r.Group("/api")

	api.GET("/chat/sessions", func(c *gin.Context) {
		id, anon := b.sessionID(c)
		c.JSON(http.StatusOK, gin.H{
			"chat_session": gin.H{
				"id":           "cs-" + id,
				"session_id":   id,
				"is_anonymous": anon,
				"messages": []gin.H{{
					"role": "assistant", "content": "Chào mừng đến với cửa hàng!", "timestamp": "2026-01-01T00:00:00Z",
				}},
			},
			"session_id": id,
		})
	})

	api.POST("/chat/message", func(c *gin.Context) {
		var body struct {
			Message   string `json:"message"`
			SessionID string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		ch := b.stream(body.SessionID)
		go func() {
			for _, tok := range []string{"Mình", " có thể", " giúp gì?"} {
				ch <- chat.StreamEvent{Token: tok, SessionID: body.SessionID}
			}
			ch <- chat.StreamEvent{SessionID: body.SessionID, Finished: true}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "processing", "session_id": body.SessionID})
	})

	api.GET("/chat/stream", func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}
		ch := b.stream(sessionID)
		c.Header("Content-Type", "text/event-stream")
		flusher := c.Writer.(http.Flusher)
		fmt.Fprintf(c.Writer, "data: {\"type\": \"connection\", \"status\": \"connected\"}\n\n")
		flusher.Flush()
		for {
			select {
			case ev := <-ch:
				fmt.Fprintf(c.Writer, "data: {\"token\": %q, \"session_id\": %q, \"finished\": %v}\n\n",
					ev.Token, ev.SessionID, ev.Finished)
				flusher.Flush()
				if ev.Finished {
					return
				}
			case <-c.Request.Context().Done():
				return
			}
		}
	})

	api.POST("/auth/login", func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Password != "secret" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   "tok-1",
			"user":    gin.H{"id": "u-1", "email": body.Email, "username": "an", "role": "user"},
		})
	})
	api.GET("/auth/profile", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer tok-1" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is missing!"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": "u-1", "email": "an@example.com", "username": "an", "role": "user"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newStorefront(t *testing.T, baseURL string) *storefront.Storefront {
	t.Helper()
	cfg := &config.Config{
		ServiceName: "storefront-go",
		Environment: "development",
		LogLevel:    "error",
		BaseURL:     baseURL + "/api",
		HTTPTimeout: 5 * time.Second,
	}
	sf, err := storefront.New(cfg, storefront.WithStore(storage.NewMemoryStore()))
	if err != nil {
		t.Fatalf("storefront.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sf.Close() })
	return sf
}

func TestFullChatTurn(t *testing.T) {
	_, srv := newChatBackend(t)
	sf := newStorefront(t, srv.URL)
	ctx := context.Background()

	if err := sf.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := sf.Chat.Session()
	if sess == nil || !sess.IsAnonymous {
		t.Fatalf("Session() = %+v, want anonymous session", sess)
	}

	if err := sf.Chat.Send(ctx, "xin chào"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	waitFor(t, "reply to finish", func() bool { return !sf.Chat.Sending() })

	msgs := sf.Chat.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want greeting + user + reply: %+v", len(msgs), msgs)
	}
	if msgs[2].Role != chat.RoleAssistant || msgs[2].Content != "Mình có thể giúp gì?" {
		t.Errorf("reply = %+v, want streamed tokens assembled in order", msgs[2])
	}
}

func TestLoginSwitchesChatIdentity(t *testing.T) {
	_, srv := newChatBackend(t)
	sf := newStorefront(t, srv.URL)
	ctx := context.Background()

	if err := sf.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	anonID := sf.Chat.Session().SessionID

	if _, err := sf.Auth.Login(ctx, "an@example.com", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	waitFor(t, "session switch", func() bool {
		s := sf.Chat.Session()
		return s != nil && s.SessionID != anonID
	})

	sess := sf.Chat.Session()
	if sess.IsAnonymous {
		t.Errorf("session still anonymous after login: %+v", sess)
	}

	// The new identity chats on its own session.
	if err := sf.Chat.Send(ctx, "đơn hàng của tôi?"); err != nil {
		t.Fatalf("Send() after login error = %v", err)
	}
	waitFor(t, "reply after login", func() bool { return !sf.Chat.Sending() })

	if err := sf.Auth.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	waitFor(t, "anonymous session restored", func() bool {
		s := sf.Chat.Session()
		return s != nil && s.IsAnonymous
	})
}

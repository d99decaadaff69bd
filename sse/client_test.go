package sse_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/chat"
	"github.com/veromart/storefront-go/sse"
)

func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/stream" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("session_id") == "" {
			http.Error(w, `{"error":"session_id is required"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}))
}

func TestDialAndReceive(t *testing.T) {
	srv := streamServer(t, []string{
		`data: {"type": "connection", "status": "connected"}`,
		"",
		`: keep-alive`,
		`data: {"token": "Xin", "session_id": "s-1", "finished": false}`,
		`data: {"token": " chào", "session_id": "s-1", "finished": false}`,
		`data: {"token": "", "session_id": "s-1", "finished": true}`,
	})
	defer srv.Close()

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	stream, err := d.Dial(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if !ev.Preamble() {
		t.Errorf("first event = %+v, want connection preamble", ev)
	}

	var tokens []string
	for {
		ev, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if ev.Token != "" {
			tokens = append(tokens, ev.Token)
		}
		if ev.Finished {
			break
		}
	}
	if len(tokens) != 2 || tokens[0] != "Xin" || tokens[1] != " chào" {
		t.Errorf("tokens = %v, want [Xin,  chào] in order", tokens)
	}

	// Server closed the connection after the finished event.
	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("Recv() after server close error = %v, want EOF", err)
	}
}

func TestMalformedPayloadsSkipped(t *testing.T) {
	srv := streamServer(t, []string{
		`data: {not json`,
		`event: noise`,
		`data: {"token": "ok", "finished": true}`,
	})
	defer srv.Close()

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	stream, err := d.Dial(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if ev.Token != "ok" || !ev.Finished {
		t.Errorf("event = %+v, want the valid payload after skipping garbage", ev)
	}
}

func TestFinalFrameWithoutNewlineDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// The connection drops right after the frame, before its newline.
		fmt.Fprint(w, `data: {"token": "cuối", "finished": true}`)
	}))
	defer srv.Close()

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	stream, err := d.Dial(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v, want truncated frame delivered", err)
	}
	if ev.Token != "cuối" || !ev.Finished {
		t.Errorf("event = %+v, want the cut-off frame decoded", ev)
	}
	if _, err := stream.Recv(); err == nil {
		t.Error("Recv() after truncated frame error = nil, want terminal error")
	}
}

func TestErrorEventCarriesServerFailure(t *testing.T) {
	srv := streamServer(t, []string{
		`data: {"error": "Timeout waiting for response", "session_id": "s-1", "finished": true}`,
	})
	defer srv.Close()

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	stream, err := d.Dial(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if ev.Error == "" || !ev.Finished {
		t.Errorf("event = %+v, want finished error event", ev)
	}
}

func TestDialRejectsNon200(t *testing.T) {
	srv := streamServer(t, nil)
	defer srv.Close()

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	if _, err := d.Dial(context.Background(), ""); err == nil {
		t.Fatal("Dial() error = nil, want status failure")
	}
}

func TestCloseUnblocksRecv(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	d := sse.NewDialer(srv.URL, zerolog.Nop())
	stream, err := d.Dial(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		done <- err
	}()
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := <-done; err == nil {
		t.Fatal("Recv() returned nil error after Close")
	}
}

var _ chat.StreamDialer = (*sse.Dialer)(nil)

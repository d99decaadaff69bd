package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/metrics"
	"github.com/veromart/storefront-go/observability"
	"github.com/veromart/storefront-go/storage"
)

// Config wires a chat service to its collaborators.
type Config struct {
	API    API
	Dialer StreamDialer
	Store  storage.Store
	Logger zerolog.Logger

	// OnUpdate is invoked after every observable state change, outside the
	// service lock. It must not call back into the service synchronously
	// with blocking operations of its own.
	OnUpdate func()

	// StreamIdleTimeout bounds the lifetime of one push stream. Zero means
	// no bound.
	StreamIdleTimeout time.Duration
}

// Service owns the chat session state machine. All exported methods are safe
// for concurrent use; reads return copies.
type Service struct {
	api         API
	dialer      StreamDialer
	store       storage.Store
	log         zerolog.Logger
	onUpdate    func()
	idleTimeout time.Duration

	mu         sync.Mutex
	session    *Session
	messages   []Message
	loading    bool
	sending    bool
	connState  ConnState
	generation uint64
	recv       *receiver
	turnStart  time.Time
	closed     bool
}

// NewService builds a chat service. The session is not resolved until Init
// is called.
func NewService(cfg Config) *Service {
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return &Service{
		api:         cfg.API,
		dialer:      cfg.Dialer,
		store:       store,
		log:         cfg.Logger.With().Str("component", "chat").Logger(),
		onUpdate:    cfg.OnUpdate,
		idleTimeout: cfg.StreamIdleTimeout,
		connState:   StateDisconnected,
	}
}

// Init resolves the session for the current identity and replaces the local
// transcript with the server's. When resolution fails and no session is held
// in memory, the last persisted snapshot is restored so the transcript is
// not lost offline.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	gen := s.generation
	s.loading = true
	s.mu.Unlock()
	s.notify()

	ctx, span := observability.StartSessionSpan(ctx)
	defer span.End()

	sess, err := s.api.FetchSession(ctx)

	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		s.log.Debug().Msg("discarding stale session init result")
		return nil
	}
	s.loading = false
	if err != nil {
		metrics.SessionInitsTotal.WithLabelValues(metrics.StatusError).Inc()
		if s.session == nil {
			s.restoreSnapshotLocked(ctx)
		}
		s.mu.Unlock()
		s.notify()
		observability.RecordError(span, err)
		return fmt.Errorf("resolve chat session: %w", err)
	}
	s.session = sess
	s.messages = append([]Message(nil), sess.Messages...)
	s.connState = StateDisconnected
	s.mu.Unlock()
	s.notify()

	metrics.SessionInitsTotal.WithLabelValues(metrics.StatusOK).Inc()
	s.persistSnapshot(ctx, sess)
	s.log.Info().Str("session_id", sess.SessionID).Bool("anonymous", sess.IsAnonymous).Msg("chat session resolved")
	return nil
}

// Reinit discards the current session and transcript and resolves a fresh
// session. It is the entry point for identity changes: any in-flight turn is
// abandoned and its late results are ignored.
func (s *Service) Reinit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.generation++
	s.closeReceiverLocked()
	s.sending = false
	s.session = nil
	s.messages = nil
	s.mu.Unlock()
	s.notify()
	return s.Init(ctx)
}

// Send records content as a user message, opens the push stream for the
// reply, and submits the message. It returns once the submission is
// accepted; the reply arrives asynchronously through the stream.
func (s *Service) Send(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	if s.session == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	sessionID := s.session.SessionID
	anonymous := s.session.IsAnonymous
	s.sending = true
	s.turnStart = time.Now()
	s.messages = append(s.messages, Message{Role: RoleUser, Content: trimmed, Timestamp: nowISO()})
	s.closeReceiverLocked()
	s.connState = StateConnecting
	gen := s.generation
	s.mu.Unlock()
	s.notify()

	ctx, span := observability.StartSendSpan(ctx, observability.ChatAttributes(sessionID, anonymous)...)
	defer span.End()

	// The stream must outlive this call: the reply keeps arriving after
	// Send returns.
	streamCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if s.idleTimeout > 0 {
		streamCtx, cancel = context.WithTimeout(streamCtx, s.idleTimeout)
	}

	stream, err := s.dialer.Dial(streamCtx, sessionID)
	if err != nil {
		cancel()
		metrics.StreamConnectsTotal.WithLabelValues(metrics.StatusError).Inc()
		s.abortTurn(gen, err)
		observability.RecordError(span, err)
		return fmt.Errorf("open push stream: %w", err)
	}
	metrics.StreamConnectsTotal.WithLabelValues(metrics.StatusOK).Inc()

	r := newReceiver(s, stream, cancel, gen)
	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		_ = stream.Close()
		cancel()
		return nil
	}
	s.recv = r
	s.mu.Unlock()
	go r.run()

	if err := s.api.PostMessage(ctx, sessionID, trimmed); err != nil {
		metrics.MessagesSentTotal.WithLabelValues(metrics.StatusError).Inc()
		s.abortTurn(gen, err)
		observability.RecordError(span, err)
		return fmt.Errorf("submit chat message: %w", err)
	}
	metrics.MessagesSentTotal.WithLabelValues(metrics.StatusOK).Inc()
	return nil
}

// Clear wipes the transcript and its persisted snapshot, then resolves a
// fresh session.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.generation++
	s.closeReceiverLocked()
	s.sending = false
	s.session = nil
	s.messages = nil
	s.mu.Unlock()
	s.notify()

	if err := s.store.Remove(ctx, storage.KeyChatSession); err != nil {
		s.log.Warn().Err(err).Msg("remove chat session snapshot")
	}
	return s.Init(ctx)
}

// Close tears down the push stream and rejects further operations.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.generation++
	s.closeReceiverLocked()
	s.sending = false
	s.mu.Unlock()
	return nil
}

// Messages returns a copy of the transcript in arrival order.
func (s *Service) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Session returns the resolved session, or nil before Init succeeds.
func (s *Service) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	cp.Messages = append([]Message(nil), s.session.Messages...)
	return &cp
}

// Loading reports whether session resolution is in progress.
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Sending reports whether a turn is awaiting its finished signal.
func (s *Service) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// ConnState reports the push stream connection state.
func (s *Service) ConnState() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connState
}

// abortTurn rolls back an in-flight send after a dial or submission failure:
// the stream is torn down, sending is released, and an assistant-authored
// failure notice joins the transcript after the user message.
func (s *Service) abortTurn(gen uint64, cause error) {
	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.sending = false
	s.closeReceiverLocked()
	s.connState = StateError
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: failureReply, Timestamp: nowISO()})
	s.mu.Unlock()
	s.notify()
	s.log.Error().Err(cause).Msg("chat turn failed")
}

// closeReceiverLocked tears down the current receiver, if any. Callers hold
// s.mu.
func (s *Service) closeReceiverLocked() {
	if s.recv != nil {
		_ = s.recv.stream.Close()
		s.recv.cancel()
		s.recv = nil
	}
	if s.connState == StateConnected || s.connState == StateConnecting {
		s.connState = StateDisconnected
	}
}

func (s *Service) persistSnapshot(ctx context.Context, sess *Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode chat session snapshot")
		return
	}
	if err := s.store.Set(ctx, storage.KeyChatSession, string(data)); err != nil {
		s.log.Warn().Err(err).Msg("persist chat session snapshot")
	}
}

// restoreSnapshotLocked loads the last persisted session so the transcript
// survives a backend outage. Callers hold s.mu.
func (s *Service) restoreSnapshotLocked(ctx context.Context) {
	data, ok, err := s.store.Get(ctx, storage.KeyChatSession)
	if err != nil || !ok {
		return
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.log.Warn().Err(err).Msg("decode chat session snapshot")
		return
	}
	s.session = &sess
	s.messages = append([]Message(nil), sess.Messages...)
	s.log.Info().Str("session_id", sess.SessionID).Msg("restored chat session from snapshot")
}

func (s *Service) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

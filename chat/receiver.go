package chat

import (
	"context"
	"strings"
	"time"

	"github.com/veromart/storefront-go/metrics"
)

// receiver drains one push stream for one turn. It accumulates reply tokens
// and folds them into the transcript tail; a superseded receiver's events
// are discarded by identity check, so tokens never leak across turns.
type receiver struct {
	svc    *Service
	stream Stream
	cancel context.CancelFunc
	gen    uint64

	// Mutated only from this receiver's goroutine, under svc.mu.
	reply    strings.Builder
	appended bool
	finished bool
}

func newReceiver(svc *Service, stream Stream, cancel context.CancelFunc, gen uint64) *receiver {
	return &receiver{svc: svc, stream: stream, cancel: cancel, gen: gen}
}

func (r *receiver) run() {
	for {
		ev, err := r.stream.Recv()
		if err != nil {
			r.svc.streamEnded(r, err)
			_ = r.stream.Close()
			r.cancel()
			return
		}
		r.svc.handleEvent(r, ev)
	}
}

// handleEvent folds one stream event into service state. Events from a
// receiver that is no longer current are dropped.
func (s *Service) handleEvent(r *receiver, ev *StreamEvent) {
	s.mu.Lock()
	if s.recv != r || s.generation != r.gen {
		s.mu.Unlock()
		return
	}

	if ev.Preamble() {
		s.connState = StateConnected
		s.mu.Unlock()
		s.notify()
		return
	}

	if ev.Token != "" {
		r.reply.WriteString(ev.Token)
		metrics.StreamTokensTotal.Inc()
		text := r.reply.String()
		if r.appended && len(s.messages) > 0 && s.messages[len(s.messages)-1].Role == RoleAssistant {
			s.messages[len(s.messages)-1].Content = text
		} else {
			s.messages = append(s.messages, Message{Role: RoleAssistant, Content: text, Timestamp: nowISO()})
			r.appended = true
		}
	}

	if ev.Finished {
		r.finished = true
		s.sending = false
		if !s.turnStart.IsZero() {
			metrics.TurnDuration.Observe(time.Since(s.turnStart).Seconds())
		}
		if ev.Error != "" {
			s.log.Warn().Str("error", ev.Error).Msg("turn finished with server-reported error")
		}
	}
	s.mu.Unlock()
	s.notify()
}

// streamEnded handles the terminal Recv error of a stream. After a finished
// turn the close is expected; before it, the turn is released so the next
// send can retry, and an assistant failure notice is added when no reply
// content ever arrived.
func (s *Service) streamEnded(r *receiver, err error) {
	s.mu.Lock()
	if s.recv != r || s.generation != r.gen {
		s.mu.Unlock()
		return
	}
	s.recv = nil
	if r.finished {
		s.connState = StateDisconnected
		s.mu.Unlock()
		s.notify()
		return
	}

	s.connState = StateError
	metrics.StreamErrorsTotal.Inc()
	interrupted := s.sending
	if interrupted {
		s.sending = false
		if !r.appended {
			s.messages = append(s.messages, Message{Role: RoleAssistant, Content: failureReply, Timestamp: nowISO()})
		}
	}
	s.mu.Unlock()
	s.notify()
	s.log.Warn().Err(err).Bool("mid_turn", interrupted).Msg("push stream ended unexpectedly")
}

// Package metrics exposes Prometheus counters for the chat pipeline. Hosts
// that embed the SDK scrape them through the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "storefront"
	subsystem = "chat"
)

var (
	// SessionInitsTotal counts chat session resolutions by outcome.
	SessionInitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_inits_total",
			Help:      "Total chat session initializations by status",
		},
		[]string{"status"},
	)

	// MessagesSentTotal counts user message submissions by outcome.
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent_total",
			Help:      "Total chat messages submitted by status",
		},
		[]string{"status"},
	)

	// StreamConnectsTotal counts push stream dial attempts by outcome.
	StreamConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_connects_total",
			Help:      "Total push stream connection attempts by status",
		},
		[]string{"status"},
	)

	// StreamTokensTotal counts reply tokens received over push streams.
	StreamTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_tokens_total",
			Help:      "Total reply tokens received over push streams",
		},
	)

	// StreamErrorsTotal counts push streams that ended with a transport error.
	StreamErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_errors_total",
			Help:      "Total push streams terminated by a transport error",
		},
	)

	// TurnDuration observes the time from message submission to the finished
	// signal of the assistant reply.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turn_duration_seconds",
			Help:      "Duration of a full chat turn in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

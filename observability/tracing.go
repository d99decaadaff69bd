package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "storefront-go"

// GetTracer returns the SDK tracer.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// ChatAttributes returns the common span attributes for chat operations.
func ChatAttributes(sessionID string, anonymous bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("chat.session_id", sessionID),
		attribute.Bool("chat.anonymous", anonymous),
	}
}

// StartSessionSpan starts a span covering chat session resolution.
func StartSessionSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "chat.session.init",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// StartSendSpan starts a span covering one chat turn, from submission to the
// finished signal.
func StartSendSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "chat.message.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span failed and records the error.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "buildrelay"

// StartRelaySpan starts the root span for one inbound event.
func StartRelaySpan(ctx context.Context, mode string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "relay",
		trace.WithAttributes(attribute.String("relay.mode", mode)),
	)
}

// StartStageSpan starts a span for one orchestrator stage
// (resolve, annotate, dispatch).
func StartStageSpan(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, stage, trace.WithAttributes(attrs...))
}

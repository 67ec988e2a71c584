package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planvault"

// StartOperationSpan starts a span for one dispatched operation.
func StartOperationSpan(ctx context.Context, operation, correlationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "operation",
		trace.WithAttributes(
			attribute.String("operation.name", operation),
			attribute.String("operation.correlation_id", correlationID),
		),
	)
}

// StartExtractionSpan starts a span for an extraction model call.
func StartExtractionSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "extraction",
		trace.WithAttributes(
			attribute.String("extraction.model", model),
		),
	)
}

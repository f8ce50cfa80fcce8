package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// TracingCollector implements circulation.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector on the given tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span with the given string attributes and returns the context carrying it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds the final attributes, maps status to a span status and ends the span.
// Span contexts from other tracing implementations are ignored.
func (t *TracingCollector) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ circulation.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps the status strings used by the handlers and engines to span status codes.
// Business rejections and idempotent outcomes are not errors. Unknown statuses become a "status" attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case "success", "idempotent", "rejected", "ok":
		s.span.SetStatus(codes.Ok, "")
	case "error":
		s.span.SetStatus(codes.Error, "operation failed")
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "operation canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "operation timed out")
	case "concurrency_conflict", "conflict":
		s.span.SetStatus(codes.Error, "concurrency conflict")
	case "invariant_violation":
		s.span.SetStatus(codes.Error, "invariant violation prevented")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute sets a string attribute on the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ circulation.SpanContext = (*OTelSpanContext)(nil)

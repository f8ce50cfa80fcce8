package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
)

func newTracing() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func attributeValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := newTracing()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "commandhandler.handle", map[string]string{"command_type": "RenewLoan"})
	spanCtx.AddAttribute("book_id", "b-1")
	collector.FinishSpan(spanCtx, "success", map[string]string{"business_outcome": "success"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "commandhandler.handle", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, want := range map[string]string{"command_type": "RenewLoan", "book_id": "b-1", "business_outcome": "success"} {
		got, ok := attributeValue(spans[0], key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status string
		want   codes.Code
	}{
		{status: "success", want: codes.Ok},
		{status: "idempotent", want: codes.Ok},
		{status: "rejected", want: codes.Ok},
		{status: "error", want: codes.Error},
		{status: "canceled", want: codes.Error},
		{status: "timeout", want: codes.Error},
		{status: "concurrency_conflict", want: codes.Error},
		{status: "invariant_violation", want: codes.Error},
		{status: "something_else", want: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, exporter := newTracing()
			_, spanCtx := collector.StartSpan(context.Background(), "span", nil)

			// act
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.want, spans[0].Status.Code)
		})
	}
}

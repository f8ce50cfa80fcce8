// Package oteladapters implements the circulation observability interfaces on top of OpenTelemetry.
//
// Use them to plug the engines and command handlers into an OpenTelemetry pipeline:
//
//	logger := oteladapters.NewSlogBridgeLogger("circulation")
//	metrics := oteladapters.NewMetricsCollector(otel.Meter("circulation"))
//	tracing := oteladapters.NewTracingCollector(otel.Tracer("circulation"))
//
// The providers behind otel.Meter and otel.Tracer are set up by the config package.
package oteladapters

// Package testdoubles provides spies for the circulation observability interfaces.
//
//   - MetricsCollectorSpy: captures duration, counter and value records, plain and context-aware
//   - TracingCollectorSpy: captures started and finished spans
//   - LoggerSpy: captures plain and context-aware log calls by level
//   - LogHandlerSpy: captures slog records for tests that log through log/slog
//
// The spies are safe for concurrent use, so they can be shared by handlers running in parallel.
package testdoubles

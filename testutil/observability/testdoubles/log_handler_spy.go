package testdoubles

import (
	"context"
	"log/slog"
	"sync"
)

// LogHandlerSpy is a slog.Handler that captures every record.
type LogHandlerSpy struct {
	mu      *sync.Mutex
	records *[]slog.Record
	level   slog.Level
}

// NewLogHandlerSpy captures records at or above level.
func NewLogHandlerSpy(level slog.Level) *LogHandlerSpy {
	return &LogHandlerSpy{mu: &sync.Mutex{}, records: &[]slog.Record{}, level: level}
}

// Enabled implements slog.Handler.
func (s *LogHandlerSpy) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.level
}

// Handle implements slog.Handler.
func (s *LogHandlerSpy) Handle(_ context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	*s.records = append(*s.records, record.Clone())

	return nil
}

// WithAttrs implements slog.Handler. Attributes are not tracked.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler. Groups are not tracked.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// HasRecord reports whether a record with the level and message was captured.
func (s *LogHandlerSpy) HasRecord(level slog.Level, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range *s.records {
		if r.Level == level && r.Message == message {
			return true
		}
	}

	return false
}

// RecordCount returns the number of captured records.
func (s *LogHandlerSpy) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(*s.records)
}

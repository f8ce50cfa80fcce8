package testdoubles

import (
	"context"
	"slices"
	"sync"
)

// Log levels recorded by LoggerSpy.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level      string
	Message    string
	Args       []any
	Contextual bool
}

// LoggerSpy implements both circulation.Logger and circulation.ContextualLogger.
type LoggerSpy struct {
	mu          sync.Mutex
	records     []LogRecord
	recordCalls bool
}

// NewLoggerSpy creates a spy. With recordCalls false it swallows all calls.
func NewLoggerSpy(recordCalls bool) *LoggerSpy {
	return &LoggerSpy{recordCalls: recordCalls}
}

func (s *LoggerSpy) record(level string, contextual bool, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: slices.Clone(args), Contextual: contextual})
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record(LevelDebug, false, msg, args) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record(LevelInfo, false, msg, args) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record(LevelWarn, false, msg, args) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record(LevelError, false, msg, args) }

func (s *LoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.record(LevelDebug, true, msg, args)
}

func (s *LoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.record(LevelInfo, true, msg, args)
}

func (s *LoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.record(LevelWarn, true, msg, args)
}

func (s *LoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.record(LevelError, true, msg, args)
}

// Records returns a copy of all captured log calls.
func (s *LoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// Reset clears all captured log calls.
func (s *LoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// HasLog reports whether a call with the level and message was captured.
func (s *LoggerSpy) HasLog(level, message string) bool {
	return s.CountLogs(level, message) > 0
}

// CountLogs counts captured calls with the level and message.
func (s *LoggerSpy) CountLogs(level, message string) int {
	count := 0

	for _, r := range s.Records() {
		if r.Level == level && r.Message == message {
			count++
		}
	}

	return count
}

func (s *LoggerSpy) HasDebugLog(message string) bool { return s.HasLog(LevelDebug, message) }
func (s *LoggerSpy) HasInfoLog(message string) bool  { return s.HasLog(LevelInfo, message) }
func (s *LoggerSpy) HasWarnLog(message string) bool  { return s.HasLog(LevelWarn, message) }
func (s *LoggerSpy) HasErrorLog(message string) bool { return s.HasLog(LevelError, message) }

// ArgValue returns the value following key in the args of the first matching call.
func (s *LoggerSpy) ArgValue(level, message, key string) (any, bool) {
	for _, r := range s.Records() {
		if r.Level != level || r.Message != message {
			continue
		}

		for i := 0; i+1 < len(r.Args); i += 2 {
			if r.Args[i] == key {
				return r.Args[i+1], true
			}
		}
	}

	return nil, false
}

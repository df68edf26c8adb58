package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-inventory/shell"
)

// ContextualLoggerSpy is a ContextualLogger implementation that captures contextual logging calls for testing.
type ContextualLoggerSpy struct {
	records []SpyLogRecord
	mu      sync.Mutex
}

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy instance.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{
		Level:   level,
		Message: msg,
		Args:    args,
		Context: ctx,
	})
}

// RecordsAt returns a copy of all records with the given level.
func (s *ContextualLoggerSpy) RecordsAt(level string) []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]SpyLogRecord, 0)
	for _, record := range s.records {
		if record.Level == level {
			found = append(found, record)
		}
	}

	return found
}

// HasLog checks if a log with the given level and message exists.
func (s *ContextualLoggerSpy) HasLog(level, message string) bool {
	for _, record := range s.RecordsAt(level) {
		if record.Message == message {
			return true
		}
	}

	return false
}

// Reset clears all recorded log calls.
func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
}

// Compile-time check to ensure ContextualLoggerSpy implements ContextualLogger interface.
var _ shell.ContextualLogger = (*ContextualLoggerSpy)(nil)

// LoggerSpy is a plain Logger implementation that captures logging calls for testing.
type LoggerSpy struct {
	inner ContextualLoggerSpy
}

// NewLoggerSpy creates a new LoggerSpy instance.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug implements the Logger interface for testing.
func (s *LoggerSpy) Debug(msg string, args ...any) {
	s.inner.DebugContext(context.Background(), msg, args...)
}

// Info implements the Logger interface for testing.
func (s *LoggerSpy) Info(msg string, args ...any) {
	s.inner.InfoContext(context.Background(), msg, args...)
}

// Warn implements the Logger interface for testing.
func (s *LoggerSpy) Warn(msg string, args ...any) {
	s.inner.WarnContext(context.Background(), msg, args...)
}

// Error implements the Logger interface for testing.
func (s *LoggerSpy) Error(msg string, args ...any) {
	s.inner.ErrorContext(context.Background(), msg, args...)
}

// RecordsAt returns a copy of all records with the given level.
func (s *LoggerSpy) RecordsAt(level string) []SpyLogRecord {
	return s.inner.RecordsAt(level)
}

// HasLog checks if a log with the given level and message exists.
func (s *LoggerSpy) HasLog(level, message string) bool {
	return s.inner.HasLog(level, message)
}

var _ shell.Logger = (*LoggerSpy)(nil)

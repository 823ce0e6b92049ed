package logging

import (
	"context"
	"io"
	"log/slog"
)

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewJSON builds a JSON slog logger writing to w. Debug enables debug level.
func NewJSON(w io.Writer, debug bool) *SlogLogger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

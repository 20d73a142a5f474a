// Package logging defines the minimal structured-logging contract used by the
// SDK. Observability records (for example callable-request verification
// summaries) are emitted through a ServiceLogger so applications can plug in
// their existing logger instead of depending on slog directly.
package logging

import (
	"context"
	"log/slog"
)

// LogFields represents structured logging key/value pairs.
type LogFields map[string]any

// LabelsField is the field key the hosting platform uses to route log labels.
const LabelsField = "logging.googleapis.com/labels"

// ServiceLogger is the logging contract required by the SDK.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Warn(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
}

// NewSlogServiceLogger wraps a slog.Logger so it satisfies the ServiceLogger
// interface.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		panic("functions: slog logger cannot be nil")
	}
	return &slogServiceLogger{inner: log}
}

// Default returns a ServiceLogger backed by slog.Default. Registrations that
// do not supply a logger fall back to it.
func Default() ServiceLogger {
	return &slogServiceLogger{inner: slog.Default()}
}

type slogServiceLogger struct {
	inner *slog.Logger
}

func (s *slogServiceLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return s
	}
	return &slogServiceLogger{inner: s.inner.With(toAttrs(fields)...)}
}

func (s *slogServiceLogger) Debug(msg string, fields LogFields) {
	s.log(slog.LevelDebug, msg, nil, fields)
}

func (s *slogServiceLogger) Info(msg string, fields LogFields) {
	s.log(slog.LevelInfo, msg, nil, fields)
}

func (s *slogServiceLogger) Warn(msg string, fields LogFields) {
	s.log(slog.LevelWarn, msg, nil, fields)
}

func (s *slogServiceLogger) Error(msg string, err error, fields LogFields) {
	s.log(slog.LevelError, msg, err, fields)
}

func (s *slogServiceLogger) log(level slog.Level, msg string, err error, fields LogFields) {
	attrs := toAttrs(fields)
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	s.inner.Log(context.Background(), level, msg, attrs...)
}

func toAttrs(fields LogFields) []any {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]any, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	return attrs
}

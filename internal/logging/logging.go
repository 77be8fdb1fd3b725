// Package logging defines the leveled, fire-and-forget log sink consumed by
// the registry engine, together with adapters for zap and slog.
//
// A Sink never reports failures back to its caller. Use Safe to guard a sink
// whose implementation might panic.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives diagnostic messages. Key/value pairs follow the slog
// convention; a failure cause is passed as "error", err.
type Sink interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type zapSink struct {
	l *zap.SugaredLogger
}

// NewZap adapts a zap logger. A nil logger yields a no-op sink.
func NewZap(l *zap.Logger) Sink {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapSink{l: l.Sugar()}
}

func (s *zapSink) Debug(msg string, kv ...any) { s.l.Debugw(msg, kv...) }
func (s *zapSink) Info(msg string, kv ...any)  { s.l.Infow(msg, kv...) }
func (s *zapSink) Warn(msg string, kv ...any)  { s.l.Warnw(msg, kv...) }
func (s *zapSink) Error(msg string, kv ...any) { s.l.Errorw(msg, kv...) }

type slogSink struct {
	l *slog.Logger
}

// NewSlog adapts a slog logger. A nil logger uses slog.Default().
func NewSlog(l *slog.Logger) Sink {
	if l == nil {
		l = slog.Default()
	}
	return &slogSink{l: l}
}

func (s *slogSink) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogSink) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogSink) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogSink) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

type nopSink struct{}

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

func (nopSink) Debug(string, ...any) {}
func (nopSink) Info(string, ...any)  {}
func (nopSink) Warn(string, ...any)  {}
func (nopSink) Error(string, ...any) {}

type safeSink struct {
	next Sink
}

// Safe wraps a sink so that a panicking implementation cannot escape into the
// caller. Wrapping an already safe sink returns it unchanged.
func Safe(s Sink) Sink {
	if s == nil {
		return Nop()
	}
	if _, ok := s.(*safeSink); ok {
		return s
	}
	return &safeSink{next: s}
}

func (s *safeSink) Debug(msg string, kv ...any) {
	defer recoverSink()
	s.next.Debug(msg, kv...)
}

func (s *safeSink) Info(msg string, kv ...any) {
	defer recoverSink()
	s.next.Info(msg, kv...)
}

func (s *safeSink) Warn(msg string, kv ...any) {
	defer recoverSink()
	s.next.Warn(msg, kv...)
}

func (s *safeSink) Error(msg string, kv ...any) {
	defer recoverSink()
	s.next.Error(msg, kv...)
}

func recoverSink() {
	_ = recover()
}

// ParseLevel maps a config string onto a zap level. Unknown values fall back
// to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewZapLogger builds a zap logger writing to w. format is "json" or
// "console" (the default).
func NewZapLogger(level, format string, w io.Writer) (*zap.Logger, error) {
	if w == nil {
		return nil, fmt.Errorf("log writer is nil")
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console", "text":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or console)", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), ParseLevel(level))
	return zap.New(core), nil
}

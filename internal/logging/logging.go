// Package logging provides the structured logger used across ghee, backed by
// zap. Arguments after the message are alternating key/value pairs.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	// LevelNone disables logging entirely.
	LevelNone = "none"

	FormatConsole = "console"
	FormatJSON    = "json"
)

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l zapLogger) With(kv ...any) Logger       { return zapLogger{s: l.s.With(kv...)} }
func (l zapLogger) Sync() error                 { return l.s.Sync() }

// New returns a logger writing to w at the given level and format.
// An empty level means info, an empty format means console.
func New(w io.Writer, level, format string) (Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == LevelNone {
		return Nop(), nil
	}
	if level == "" {
		level = LevelInfo
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "", FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zapLogger{s: zap.New(core).Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return zapLogger{s: zap.NewNop().Sugar()}
}

package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger provides structured logging on top of zap
type Logger struct {
	z *zap.Logger
}

// Field represents a key-value pair for structured logging
type Field = zap.Field

// New creates a new logger. format is "json" or "console".
func New(level Level, format string) *Logger {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		// The config above is static; a build failure means stderr is unusable.
		return NewNop()
	}
	return &Logger{z: z}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// FromZap wraps an existing zap logger (used by tests with observers)
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// With returns a child logger carrying the given fields on every entry
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Named returns a child logger tagged with a component name
func (l *Logger) Named(component string) *Logger {
	return l.With(F("component", component))
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...Field) {
	l.z.Info(message, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...Field) {
	l.z.Warn(message, fields...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...Field) {
	l.z.Error(message, fields...)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...Field) {
	l.z.Debug(message, fields...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// F creates a string Field
func F(key, value string) Field {
	return zap.String(key, value)
}

// Int creates an integer Field
func Int(key string, value int) Field {
	return zap.Int(key, value)
}

// Float creates a float Field
func Float(key string, value float64) Field {
	return zap.Float64(key, value)
}

// Err creates an error Field
func Err(err error) Field {
	return zap.Error(err)
}

func toZapLevel(level Level) zapcore.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Package logging provides structured logging using zap
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// NewDefaultLogger creates a logger with default configuration using zap
func NewDefaultLogger() Logger {
	config := DefaultLogConfig()
	logger, err := NewZapLogger(config)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger initializes the global logger writing JSON lines to the
// given file. The parent directory is created if missing; if the directory or
// file cannot be created the logger falls back to stderr so the server can
// still start. stdout is never used: it carries the MCP protocol stream.
func InitGlobalLogger(levelStr, logFile string) {
	level := ParseLevel(levelStr)

	output, fallback := openLogFile(logFile)

	config := LogConfig{
		Level:      level,
		Output:     output,
		TimeFormat: time.RFC3339,
	}

	logger, err := NewZapLogger(config)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	SetGlobalLogger(logger)

	logger.Info("logging.initialized",
		Field{"level", level.String()},
		Field{"log_file", logFile},
		Field{"stderr_fallback", fallback},
	)
}

// openLogFile opens the log file for appending, creating the directory first.
// Returns (stderr, true) when the file cannot be opened.
func openLogFile(logFile string) (*os.File, bool) {
	if logFile == "" {
		return os.Stderr, true
	}
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return os.Stderr, true
		}
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr, true
	}
	return file, false
}

// MustSync flushes any buffered log entries for zap loggers
// This should be called before application exit
func MustSync() {
	logger := GetGlobalLogger()
	if zapLogger, ok := logger.(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// WithContext is a convenience function to add context to the global logger
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

// Performance-optimized field constructors that use zap's typed fields
// These avoid the reflection overhead of zap.Any

// Strings creates a string slice field
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Ints creates an int slice field
func Ints(key string, values []int) Field {
	return Field{Key: key, Value: values}
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// NamedError creates an error field with a custom key
func NamedError(key string, err error) Field {
	return Field{Key: key, Value: err}
}

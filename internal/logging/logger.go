package logging

import (
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar overrides the configured log level when set, so debug
// logging can be turned on without changing the invocation.
const LevelEnvVar = "TERRALITE_LOG_LEVEL"

var logger *slog.Logger

// Init initializes the global structured logger. The level argument
// comes from the --log-level flag; TERRALITE_LOG_LEVEL wins over it.
func Init(level string) {
	if env := os.Getenv(LevelEnvVar); env != "" {
		level = env
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

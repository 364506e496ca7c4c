// Package logging configures the shared structured logger for monorel.
// All diagnostic output (degraded git queries, config warnings, debug traces)
// goes through this logger so that levels and formatting stay consistent
// across commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger instance. Commands and internal packages
// log through the package-level helpers below rather than importing
// charmbracelet/log directly.
var Logger = newDefault()

func newDefault() *log.Logger {
	l := log.New(os.Stderr)
	l.SetTimeFormat("")
	l.SetLevel(log.InfoLevel)
	return l
}

// Configure sets the log level and output destination.
// Level precedence: explicit argument > MONOREL_LOG_LEVEL env var > info.
// An empty output keeps the current destination (stderr by default).
func Configure(level string, output io.Writer) {
	if level == "" {
		level = os.Getenv("MONOREL_LOG_LEVEL")
	}
	if output != nil {
		l := log.New(output)
		l.SetTimeFormat("")
		Logger = l
	}
	Logger.SetLevel(parseLevel(level))
}

// parseLevel converts a level name to a charmbracelet log level.
// Unknown names fall back to info.
func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info", "":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, keyvals ...any) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, keyvals ...any) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, keyvals ...any) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, keyvals ...any) {
	Logger.Error(msg, keyvals...)
}

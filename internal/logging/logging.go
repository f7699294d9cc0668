// Package logging provides a simple leveled logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// sink is shared by a logger and every child created with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger is a simple leveled logger, optionally scoped to a component.
type Logger struct {
	sink      *sink
	component string
}

// New creates a new logger writing to stderr.
func New(level Level) *Logger {
	return &Logger{
		sink: &sink{level: level, output: os.Stderr},
	}
}

// With returns a child logger that prefixes messages with component.
// Children share the parent's level and output.
func (l *Logger) With(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: component}
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the minimum log level.
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	var line string
	if l.component != "" {
		line = fmt.Sprintf("%s [%s] %s: %s\n", timestamp, level.String(), l.component, msg)
	} else {
		line = fmt.Sprintf("%s [%s] %s\n", timestamp, level.String(), msg)
	}

	_, _ = l.sink.output.Write([]byte(line))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{
		sink: &sink{
			level:  LevelError + 1, // Higher than any level
			output: io.Discard,
		},
	}
}

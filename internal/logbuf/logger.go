package logbuf

import (
	"fmt"
	"sort"
	"strings"
)

// Logger formats messages and appends them to a Buffer.
//
// Loggers are cheap values; WithComponent and WithField return copies that
// share the same underlying buffer.
type Logger struct {
	buf       *Buffer
	component string
	fields    map[string]any
}

// NewLogger creates a logger writing to buf.
func NewLogger(buf *Buffer) *Logger {
	return &Logger{buf: buf}
}

// WithComponent returns a new logger whose messages are prefixed with the
// component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		buf:       l.buf,
		component: component,
		fields:    l.fields,
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	newFields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		buf:       l.buf,
		component: l.component,
		fields:    newFields,
	}
}

// Trace logs a trace message.
func (l *Logger) Trace(msg string, args ...any) {
	l.log(LevelTrace, msg, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarning, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// Log logs a message at an explicit level. The message is not formatted.
func (l *Logger) Log(level Level, msg string) {
	l.log(level, msg)
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if l == nil || l.buf == nil {
		return
	}
	// Skip formatting work for entries that would be dropped anyway.
	if l.buf.mode == ModeProduction && level.IsVerbose() {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var sb strings.Builder
	if l.component != "" {
		sb.WriteString(l.component)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, l.fields[k])
		}
		sb.WriteString("}")
	}

	l.buf.Append(level, sb.String())
}

// Discard is a logger that drops everything.
var Discard = &Logger{}

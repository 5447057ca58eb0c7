// Package logbuf provides the module's leveled, append-only log buffer.
//
// The buffer is shared by every component of the module for the whole
// process lifetime. Appends are serialized; readers take snapshots and never
// observe a partially written entry.
package logbuf

import "strings"

// Level represents the severity level of a log entry.
type Level int

const (
	// LevelTrace is for very detailed tracing output.
	LevelTrace Level = iota
	// LevelDebug is for detailed debugging information.
	LevelDebug
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarning is for warning messages.
	LevelWarning
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// IsVerbose reports whether entries of this level are only kept in
// diagnostic mode.
func (l Level) IsVerbose() bool {
	return l == LevelTrace || l == LevelDebug
}

package logbuf

import "strings"

// Mode controls which entries the buffer retains.
type Mode int

const (
	// ModeProduction discards Trace and Debug entries at append time.
	ModeProduction Mode = iota
	// ModeDiagnostic retains every entry and mirrors it to the sinks.
	ModeDiagnostic
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == ModeDiagnostic {
		return "diagnostic"
	}
	return "production"
}

// ParseMode parses a mode name. An empty or unknown name yields DefaultMode.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diagnostic", "debug":
		return ModeDiagnostic
	case "production", "release":
		return ModeProduction
	default:
		return DefaultMode
	}
}

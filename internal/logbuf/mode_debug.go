//go:build debug

package logbuf

// DefaultMode is the retention mode of builds tagged "debug".
const DefaultMode = ModeDiagnostic

//go:build !debug

package logbuf

// DefaultMode is the retention mode of release builds.
const DefaultMode = ModeProduction

package config

import (
	"errors"
	"fmt"
)

// ErrVersionMismatch is returned when a document was written by an
// incompatible version of the module.
var ErrVersionMismatch = errors.New("config version mismatch")

// ParseError represents an error while parsing a configuration document.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

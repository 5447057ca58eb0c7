package plugin

import (
	"errors"
	"fmt"
)

// Coordinator errors.
var (
	// ErrPluginDirUnknown is returned when the host cannot say where the
	// plugin was loaded from.
	ErrPluginDirUnknown = errors.New("plugin file is unknown to the host")

	// ErrInvalidState is returned when Activate is called outside the
	// Uninitialized state.
	ErrInvalidState = errors.New("invalid lifecycle state")
)

// InitError records which activation step failed.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func stateError(s State) error {
	return fmt.Errorf("%w: activate while %s", ErrInvalidState, s)
}

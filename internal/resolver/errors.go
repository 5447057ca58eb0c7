package resolver

import (
	"errors"
	"io/fs"
)

// Resolver errors.
var (
	// ErrLocked is returned when a module file is held exclusively elsewhere.
	ErrLocked = errors.New("module file is locked")

	// ErrAccessDenied is returned when a module file is blocked by a
	// security or execution policy.
	ErrAccessDenied = errors.New("module file access denied")

	// ErrAlreadyRegistered is returned when a resolver is registered twice.
	ErrAlreadyRegistered = errors.New("resolver is already registered")

	// ErrNilRegistry is returned when registering against a nil registry.
	ErrNilRegistry = errors.New("hook registry is nil")
)

// FailureClass classifies why a present module file could not be loaded.
type FailureClass int

const (
	// FailureOther is any failure not covered by a more specific class.
	FailureOther FailureClass = iota
	// FailureLocked means the file is held exclusively elsewhere.
	FailureLocked
	// FailureAccessDenied means a security policy blocked the load.
	FailureAccessDenied
)

// String returns the name of the class.
func (c FailureClass) String() string {
	switch c {
	case FailureLocked:
		return "locked"
	case FailureAccessDenied:
		return "access_denied"
	default:
		return "failed"
	}
}

// Classify maps a load error onto a FailureClass.
func Classify(err error) FailureClass {
	switch {
	case err == nil:
		return FailureOther
	case errors.Is(err, ErrLocked) || isLockErrno(err):
		return FailureLocked
	case errors.Is(err, ErrAccessDenied) || errors.Is(err, fs.ErrPermission):
		return FailureAccessDenied
	default:
		return FailureOther
	}
}

// LoadError describes a module file that exists but could not be loaded.
type LoadError struct {
	Path  string
	Class FailureClass
	Err   error
}

func (e *LoadError) Error() string {
	return "load " + e.Path + " (" + e.Class.String() + "): " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

package plugin

// State is the lifecycle state of the coordinator.
type State int

// Coordinator states.
const (
	// StateUninitialized - Not yet activated, or rolled back after a
	// failed activation.
	StateUninitialized State = iota

	// StateInitializing - Activation is in progress.
	StateInitializing

	// StateActive - All resources are acquired.
	StateActive

	// StateDeinitializing - Deactivation is in progress.
	StateDeinitializing

	// StateTerminated - Deactivated. No further transitions.
	StateTerminated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateDeinitializing:
		return "deinitializing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// CanActivate reports whether Activate may be called in this state.
func (s State) CanActivate() bool {
	return s == StateUninitialized
}

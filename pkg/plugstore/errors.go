package plugstore

import "fmt"

// UnknownPluginError indicates a lookup for a key that is not present in
// the active repository. This is a programming or configuration error,
// not a recoverable runtime condition.
type UnknownPluginError struct {
	// Key is the requested plugin key.
	Key string
}

// Error implements the error interface.
func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("plugin %q does not exist", e.Key)
}

// StateError indicates a lifecycle method was invoked in the wrong
// state, such as a lookup before Start or a second Start.
type StateError struct {
	// Op is the operation that was attempted.
	Op string
	// State is the repository state at the time of the call.
	State State
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: repository is %s", e.Op, e.State)
}

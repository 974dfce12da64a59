package automation

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation marks a contract violation: a transition or drive
// command was requested from a state that does not allow it.
var ErrInvalidOperation = errors.New("invalid operation")

// InvalidOperationError identifies the refused action and the state it was
// attempted from.
type InvalidOperationError struct {
	Action string
	State  State
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("cannot %s from state %s: %s", e.Action, e.State, e.Reason)
}

func (e *InvalidOperationError) Unwrap() error { return ErrInvalidOperation }

func invalidOperation(action string, state State, reason string) error {
	return &InvalidOperationError{Action: action, State: state, Reason: reason}
}

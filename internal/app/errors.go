// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a failed manipulator link call.
	ErrTransport = errors.New("manipulator transport failure")

	// ErrSequenceInProgress is returned when a probe already has a running
	// drive, exit or entry sequence.
	ErrSequenceInProgress = errors.New("a sequence is already running for this probe")

	// ErrNoTarget is returned when a sequence needs a target and none is
	// selected.
	ErrNoTarget = errors.New("no target selected")

	// ErrNotCalibrated is returned when a procedure needs a dura-calibrated probe.
	ErrNotCalibrated = errors.New("probe is not calibrated to the dura")

	// ErrPitchTooShallow is returned when the probe is too flat for automation.
	ErrPitchTooShallow = errors.New("probe pitch must exceed 30 degrees for automation")
)

// TransportError wraps a failed link call with the operation and
// manipulator it was issued for.
type TransportError struct {
	Operation     string
	ManipulatorID string
	Err           error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s on manipulator %s failed: %v", e.Operation, e.ManipulatorID, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

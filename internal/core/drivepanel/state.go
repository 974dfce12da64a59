// Package drivepanel contains the drive panel's own insertion state machine.
// It describes the same real-world process as the automation package but is
// an independent peer: states are unordered and illegal calls are reported
// instead of returned.
package drivepanel

import "fmt"

// DriveState is a drive panel stage.
type DriveState string

const (
	Outside             DriveState = "outside"
	ExitingToOutside    DriveState = "exiting_to_outside"
	AtExitMargin        DriveState = "at_exit_margin"
	ExitingToMargin     DriveState = "exiting_to_margin"
	AtDura              DriveState = "at_dura"
	ExitingToDura       DriveState = "exiting_to_dura"
	DrivingToNearTarget DriveState = "driving_to_near_target"
	AtNearTarget        DriveState = "at_near_target"
	ExitingToNearTarget DriveState = "exiting_to_near_target"
	DrivingToPastTarget DriveState = "driving_to_past_target"
	AtPastTarget        DriveState = "at_past_target"
	ReturningToTarget   DriveState = "returning_to_target"
	AtTarget            DriveState = "at_target"
)

// AllStates lists every drive panel state.
var AllStates = []DriveState{
	Outside, ExitingToOutside, AtExitMargin, ExitingToMargin, AtDura,
	ExitingToDura, DrivingToNearTarget, AtNearTarget, ExitingToNearTarget,
	DrivingToPastTarget, AtPastTarget, ReturningToTarget, AtTarget,
}

// ParseDriveState converts a persisted name back to a DriveState.
func ParseDriveState(name string) (DriveState, error) {
	for _, s := range AllStates {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown drive state %q", name)
}

// IsMoving reports whether s is a transitional (in-motion) state.
func IsMoving(s DriveState) bool {
	switch s {
	case ExitingToOutside, ExitingToMargin, ExitingToDura, DrivingToNearTarget,
		ExitingToNearTarget, DrivingToPastTarget, ReturningToTarget:
		return true
	}
	return false
}

// CanDrive reports whether the drive button applies in s: the probe is at or
// below the Dura.
func CanDrive(s DriveState) bool {
	switch s {
	case DrivingToNearTarget, AtNearTarget, DrivingToPastTarget, AtPastTarget,
		ReturningToTarget, ExitingToDura, ExitingToNearTarget, AtTarget:
		return true
	}
	return false
}

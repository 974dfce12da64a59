package automation

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// IsCalibratedState reports whether s is past the calibration phase.
func IsCalibratedState(s State) bool {
	return s.AtOrAfter(IsCalibrated)
}

// HasReachedTargetEntryCoordinateState reports whether s is at or past the
// entry coordinate.
func HasReachedTargetEntryCoordinateState(s State) bool {
	return s.AtOrAfter(AtEntryCoordinate)
}

// IsInsertableState reports whether a probe in s may be driven into the brain:
// calibrated to the Dura, not yet back out of it, and not resting on target.
func IsInsertableState(s State) bool {
	return s.AtOrAfter(AtDuraInsert) && s.Before(AtDuraExit) && s != AtTarget
}

// IsExitableState reports whether a probe in s has gone through the Dura.
func IsExitableState(s State) bool {
	return s.Valid() && s.After(AtDuraInsert)
}

// CanSetDrivingToTargetEntryCoordinate evaluates whether a probe may start
// driving to the target entry coordinate.
// Rule: only from IsCalibrated or from AtEntryCoordinate.
func CanSetDrivingToTargetEntryCoordinate(s State) GuardResult {
	if s != IsCalibrated && s != AtEntryCoordinate {
		return deny("probe must be calibrated or at the entry coordinate (state: %s)", s)
	}
	return allow()
}

// CanSetAtEntryCoordinate evaluates whether a probe may be marked as at the
// entry coordinate.
// Rule: only while driving there or exiting to there.
func CanSetAtEntryCoordinate(s State) GuardResult {
	if s != DrivingToTargetEntryCoordinate && s != ExitingToTargetEntryCoordinate {
		return deny("probe was not driving or exiting to the entry coordinate (state: %s)", s)
	}
	return allow()
}

// CanSetAtDuraInsert evaluates whether a probe may be marked as at the Dura.
// Rule: only from the entry coordinate or while exiting to the Dura.
func CanSetAtDuraInsert(s State) GuardResult {
	if s != AtEntryCoordinate && s != ExitingToDura {
		return deny("probe was not at the entry coordinate or exiting to the Dura (state: %s)", s)
	}
	return allow()
}

// CanIncrementInsertionCycle evaluates whether the insertion cycle may advance.
// Rule: state must lie in [AtDuraInsert, ExitingToTargetEntryCoordinate].
func CanIncrementInsertionCycle(s State) GuardResult {
	if !s.Between(AtDuraInsert, ExitingToTargetEntryCoordinate) {
		return deny("probe is not in the insertion cycle (state: %s)", s)
	}
	return allow()
}

// CanSetInsertionDriving evaluates whether a probe may enter an insertion
// driving state.
func CanSetInsertionDriving(s State) GuardResult {
	if !IsInsertableState(s) {
		return deny("probe is not at the Dura or inside the brain (state: %s)", s)
	}
	return allow()
}

// CanSetExitingDriving evaluates whether a probe may enter an exit driving
// state.
func CanSetExitingDriving(s State) GuardResult {
	if !IsExitableState(s) {
		return deny("probe is not past the Dura (state: %s)", s)
	}
	return allow()
}

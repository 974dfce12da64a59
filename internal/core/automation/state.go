// Package automation contains the pure probe automation state machine.
// This is part of the Functional Core - no I/O, only pure functions.
package automation

import "fmt"

// State is a probe's position in the calibration → insertion → exit cycle.
// The value is the stable persisted name; ordering comes from the declared
// order table, never from the value itself.
type State string

const (
	IsUncalibrated                 State = "is_uncalibrated"
	IsCalibrated                   State = "is_calibrated"
	DrivingToTargetEntryCoordinate State = "driving_to_target_entry_coordinate"
	AtEntryCoordinate              State = "at_entry_coordinate"
	AtDuraInsert                   State = "at_dura_insert"
	DrivingToNearTarget            State = "driving_to_near_target"
	AtNearTargetInsert             State = "at_near_target_insert"
	DrivingToPastTarget            State = "driving_to_past_target"
	AtPastTarget                   State = "at_past_target"
	ReturningToTarget              State = "returning_to_target"
	AtTarget                       State = "at_target"
	ExitingToNearTarget            State = "exiting_to_near_target"
	AtNearTargetExit               State = "at_near_target_exit"
	ExitingToDura                  State = "exiting_to_dura"
	AtDuraExit                     State = "at_dura_exit"
	ExitingToMargin                State = "exiting_to_margin"
	AtExitMargin                   State = "at_exit_margin"
	ExitingToTargetEntryCoordinate State = "exiting_to_target_entry_coordinate"
)

// order is the declared cycle order. Range predicates compare ranks in this
// table; ExitingToTargetEntryCoordinate wraps back to AtEntryCoordinate.
var order = [...]State{
	IsUncalibrated,
	IsCalibrated,
	DrivingToTargetEntryCoordinate,
	AtEntryCoordinate,
	AtDuraInsert,
	DrivingToNearTarget,
	AtNearTargetInsert,
	DrivingToPastTarget,
	AtPastTarget,
	ReturningToTarget,
	AtTarget,
	ExitingToNearTarget,
	AtNearTargetExit,
	ExitingToDura,
	AtDuraExit,
	ExitingToMargin,
	AtExitMargin,
	ExitingToTargetEntryCoordinate,
}

var rank = func() map[State]int {
	m := make(map[State]int, len(order))
	for i, s := range order {
		m[s] = i
	}
	return m
}()

// Order returns a copy of the declared state order.
func Order() []State {
	out := make([]State, len(order))
	copy(out, order[:])
	return out
}

// Rank returns the position of s in the declared order, or -1 if s is unknown.
func (s State) Rank() int {
	r, ok := rank[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is a declared state.
func (s State) Valid() bool {
	return s.Rank() >= 0
}

// Before reports whether s comes strictly before o in the cycle order.
func (s State) Before(o State) bool { return s.Rank() < o.Rank() }

// After reports whether s comes strictly after o in the cycle order.
func (s State) After(o State) bool { return s.Rank() > o.Rank() }

// AtOrAfter reports whether s is o or later in the cycle order.
func (s State) AtOrAfter(o State) bool { return s.Rank() >= o.Rank() }

// Between reports whether s lies in the inclusive range [lo, hi].
func (s State) Between(lo, hi State) bool {
	return s.Valid() && s.AtOrAfter(lo) && !s.After(hi)
}

// next returns the state declared directly after s.
// Callers guarantee s is not the last declared state.
func (s State) next() State {
	return order[s.Rank()+1]
}

func (s State) String() string { return string(s) }

// ParseState converts a persisted name back to a State.
func ParseState(name string) (State, error) {
	s := State(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown probe automation state %q", name)
	}
	return s, nil
}

// IsDrivingState reports whether s is an insertion motion state.
func IsDrivingState(s State) bool {
	switch s {
	case DrivingToTargetEntryCoordinate, DrivingToNearTarget, DrivingToPastTarget, ReturningToTarget:
		return true
	}
	return false
}

// IsExitingState reports whether s is an exit motion state.
func IsExitingState(s State) bool {
	switch s {
	case ExitingToNearTarget, ExitingToDura, ExitingToMargin, ExitingToTargetEntryCoordinate:
		return true
	}
	return false
}

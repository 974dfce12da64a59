package drivepanel

import "fmt"

// IllegalCallError describes a call the current state cannot honour.
type IllegalCallError struct {
	Action string
	State  DriveState
}

func (e *IllegalCallError) Error() string {
	return fmt.Sprintf("cannot %s from drive state %s", e.Action, e.State)
}

// Reporter receives illegal-call errors.
type Reporter func(err error)

// Manager is the drive panel state machine. Illegal calls leave the state
// unchanged and go to the reporter.
type Manager struct {
	state  DriveState
	report Reporter
}

// NewManager returns a manager in Outside. A nil reporter discards reports.
func NewManager(report Reporter) *Manager {
	return RestoreManager(Outside, report)
}

// RestoreManager returns a manager in state s.
func RestoreManager(s DriveState, report Reporter) *Manager {
	if report == nil {
		report = func(error) {}
	}
	return &Manager{state: s, report: report}
}

// State returns the current drive state.
func (m *Manager) State() DriveState { return m.state }

// DriveIncrement enters the motion that heads deeper.
func (m *Manager) DriveIncrement() {
	switch m.state {
	case AtDura, ExitingToDura:
		m.state = DrivingToNearTarget
	case AtNearTarget, ExitingToNearTarget:
		m.state = DrivingToPastTarget
	case AtPastTarget:
		m.state = ReturningToTarget
	case DrivingToNearTarget, DrivingToPastTarget, ReturningToTarget:
	case Outside, ExitingToOutside, AtExitMargin, ExitingToMargin, AtTarget:
		m.report(&IllegalCallError{Action: "drive down", State: m.state})
	default:
		m.report(&IllegalCallError{Action: "drive down", State: m.state})
	}
}

// ExitIncrement enters the motion that heads shallower.
func (m *Manager) ExitIncrement() {
	switch m.state {
	case AtExitMargin:
		m.state = ExitingToOutside
	case AtDura:
		m.state = ExitingToMargin
	case AtNearTarget, DrivingToNearTarget:
		m.state = ExitingToDura
	case AtPastTarget, AtTarget, ReturningToTarget, DrivingToPastTarget:
		m.state = ExitingToNearTarget
	case ExitingToMargin, ExitingToDura, ExitingToNearTarget, ExitingToOutside:
	case Outside:
		m.report(&IllegalCallError{Action: "exit", State: m.state})
	default:
		m.report(&IllegalCallError{Action: "exit", State: m.state})
	}
}

// CompleteMovement lands a motion on its landmark.
func (m *Manager) CompleteMovement() {
	switch m.state {
	case ExitingToOutside:
		m.state = Outside
	case ExitingToMargin:
		m.state = AtExitMargin
	case ExitingToDura:
		m.state = AtDura
	case DrivingToNearTarget, ExitingToNearTarget:
		m.state = AtNearTarget
	case DrivingToPastTarget:
		m.state = AtPastTarget
	case ReturningToTarget:
		m.state = AtTarget
	case Outside, AtExitMargin, AtDura, AtNearTarget, AtPastTarget, AtTarget:
		m.report(&IllegalCallError{Action: "complete movement", State: m.state})
	default:
		m.report(&IllegalCallError{Action: "complete movement", State: m.state})
	}
}

// ResetToDura anchors the panel at the Dura after a dura reset.
func (m *Manager) ResetToDura() {
	m.state = AtDura
}

package automation

// insertionDriving maps a landmark to the driving state that leaves it
// deeper. Any other state is left unchanged.
var insertionDriving = map[State]State{
	AtDuraInsert:        DrivingToNearTarget,
	AtNearTargetInsert:  DrivingToPastTarget,
	AtPastTarget:        ReturningToTarget,
	ExitingToDura:       DrivingToNearTarget,
}

// exitingDriving maps a landmark or insertion motion to the exit state that
// leaves it shallower. Any other state is left unchanged.
var exitingDriving = map[State]State{
	AtTarget:            ExitingToDura,
	ReturningToTarget:   ExitingToDura,
	DrivingToPastTarget: ExitingToDura,
	AtNearTargetInsert:  ExitingToDura,
	DrivingToNearTarget: ExitingToDura,
	AtDuraExit:          ExitingToMargin,
	AtExitMargin:        ExitingToTargetEntryCoordinate,
}

// StateManager owns one probe's automation state. It holds no I/O; callers
// serialize access.
type StateManager struct {
	state State
}

// NewStateManager returns a manager in IsUncalibrated.
func NewStateManager() *StateManager {
	return &StateManager{state: IsUncalibrated}
}

// RestoreStateManager rehydrates a manager from a persisted state name.
func RestoreStateManager(name string) (*StateManager, error) {
	s, err := ParseState(name)
	if err != nil {
		return nil, err
	}
	return &StateManager{state: s}, nil
}

// State returns the current automation state.
func (m *StateManager) State() State { return m.state }

// IsCalibrated reports whether the probe is past calibration.
func (m *StateManager) IsCalibrated() bool { return IsCalibratedState(m.state) }

// HasReachedTargetEntryCoordinate reports whether the probe is at or past its
// entry coordinate.
func (m *StateManager) HasReachedTargetEntryCoordinate() bool {
	return HasReachedTargetEntryCoordinateState(m.state)
}

// IsInsertable reports whether Drive may be dispatched.
func (m *StateManager) IsInsertable() bool { return IsInsertableState(m.state) }

// IsExitable reports whether Exit may be dispatched.
func (m *StateManager) IsExitable() bool { return IsExitableState(m.state) }

// SetCalibrated resets the cycle to IsCalibrated from any state.
func (m *StateManager) SetCalibrated() {
	m.state = IsCalibrated
}

// SetDrivingToTargetEntryCoordinate starts the drive to the entry coordinate.
func (m *StateManager) SetDrivingToTargetEntryCoordinate() error {
	if r := CanSetDrivingToTargetEntryCoordinate(m.state); !r.Allowed {
		return invalidOperation("drive to target entry coordinate", m.state, r.Reason)
	}
	m.state = DrivingToTargetEntryCoordinate
	return nil
}

// SetAtEntryCoordinate marks arrival at the entry coordinate.
func (m *StateManager) SetAtEntryCoordinate() error {
	if r := CanSetAtEntryCoordinate(m.state); !r.Allowed {
		return invalidOperation("set at entry coordinate", m.state, r.Reason)
	}
	m.state = AtEntryCoordinate
	return nil
}

// SetAtDuraInsert marks the probe tip as resting on the Dura.
func (m *StateManager) SetAtDuraInsert() error {
	if r := CanSetAtDuraInsert(m.state); !r.Allowed {
		return invalidOperation("set at dura", m.state, r.Reason)
	}
	m.state = AtDuraInsert
	return nil
}

// IncrementInsertionCycleState advances to the next declared state, wrapping
// ExitingToTargetEntryCoordinate back to AtEntryCoordinate.
func (m *StateManager) IncrementInsertionCycleState() error {
	if r := CanIncrementInsertionCycle(m.state); !r.Allowed {
		return invalidOperation("increment insertion cycle", m.state, r.Reason)
	}
	if m.state == ExitingToTargetEntryCoordinate {
		m.state = AtEntryCoordinate
		return nil
	}
	m.state = m.state.next()
	return nil
}

// SetToInsertionDrivingState moves the probe from its current landmark into
// the driving state that heads deeper.
func (m *StateManager) SetToInsertionDrivingState() error {
	if r := CanSetInsertionDriving(m.state); !r.Allowed {
		return invalidOperation("drive", m.state, r.Reason)
	}
	if next, ok := insertionDriving[m.state]; ok {
		m.state = next
	}
	return nil
}

// SetToExitingDrivingState moves the probe from its current landmark into the
// exit state that heads shallower.
func (m *StateManager) SetToExitingDrivingState() error {
	if r := CanSetExitingDriving(m.state); !r.Allowed {
		return invalidOperation("exit", m.state, r.Reason)
	}
	if next, ok := exitingDriving[m.state]; ok {
		m.state = next
	}
	return nil
}

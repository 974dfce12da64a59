package primary

import (
	"context"
	"time"
)

// AutomationService defines the primary port for automated insertion and exit.
type AutomationService interface {
	// Drive runs the insertion sequence from the probe's current state until
	// it reaches the target or a step fails.
	Drive(ctx context.Context, req DriveRequest) (*SequenceResult, error)

	// Exit runs the exit sequence until the probe is back at its entry
	// coordinate or a step fails.
	Exit(ctx context.Context, req ExitRequest) (*SequenceResult, error)

	// Stop halts the manipulator and any running sequence. The automation
	// state is left where the last completed step put it.
	Stop(ctx context.Context, probeID string) error

	// SetCalibrated anchors the probe at the start of the automation cycle.
	SetCalibrated(ctx context.Context, probeID string) error

	// ETA estimates the remaining insertion time.
	ETA(ctx context.Context, req ETARequest) (time.Duration, error)
}

// StepObserver is told about every completed step of a sequence.
type StepObserver func(step StepReport)

// StepReport describes one completed sequence step.
type StepReport struct {
	ProbeID   string
	Phase     string // 'drive' or 'exit'
	FromState string
	ToState   string
	Command   string // effect type that was executed
}

// DriveRequest contains parameters for an insertion.
type DriveRequest struct {
	ProbeID           string
	TargetID          string // empty uses the probe's selected target
	BaseSpeed         float64
	DrivePastDistance float64
	Observer          StepObserver
}

// ExitRequest contains parameters for an exit.
type ExitRequest struct {
	ProbeID   string
	TargetID  string
	BaseSpeed float64
	Observer  StepObserver
}

// ETARequest contains parameters for an insertion time estimate.
type ETARequest struct {
	ProbeID           string
	TargetID          string
	BaseSpeed         float64
	DrivePastDistance float64
}

// SequenceResult describes where a sequence left the probe.
type SequenceResult struct {
	ProbeID    string
	FinalState string
	Steps      int
	Moving     bool
	Completed  bool
}

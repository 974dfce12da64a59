package primary

import "context"

// DrivePanelService defines the primary port for the manual drive panel.
// Illegal panel calls are reported to the event log, not returned.
type DrivePanelService interface {
	// Drive steps the panel deeper until the target is reached.
	Drive(ctx context.Context, req PanelRequest) (*PanelStatus, error)

	// Exit steps the panel shallower until the probe is outside the brain.
	Exit(ctx context.Context, req PanelRequest) (*PanelStatus, error)

	// Stop halts the manipulator.
	Stop(ctx context.Context, probeID string) (*PanelStatus, error)

	// ResetToDura anchors the panel at the Dura.
	ResetToDura(ctx context.Context, probeID string) (*PanelStatus, error)

	// Status returns the panel of a probe.
	Status(ctx context.Context, probeID string) (*PanelStatus, error)
}

// PanelRequest contains parameters for a panel motion. Zero speed or
// distance keeps the panel's saved value.
type PanelRequest struct {
	ProbeID           string
	TargetID          string
	BaseSpeed         float64
	DrivePastDistance float64
}

// PanelStatus is a probe's drive panel at the port boundary.
type PanelStatus struct {
	ProbeID           string
	State             string
	BaseSpeed         float64
	DrivePastDistance float64
	CanDrive          bool
	Steps             int
}

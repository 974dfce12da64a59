// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI drives the application core.
package primary

import (
	"context"

	"github.com/example/pinpoint/internal/models"
)

// ProbeService defines the primary port for probe and target registration.
type ProbeService interface {
	// RegisterProbe attaches a probe to a manipulator. The probe starts
	// uncalibrated.
	RegisterProbe(ctx context.Context, req RegisterProbeRequest) (*RegisterProbeResponse, error)

	// UnregisterProbe detaches a probe and forgets its automation state.
	UnregisterProbe(ctx context.Context, probeID string) error

	// GetProbe retrieves a probe by ID.
	GetProbe(ctx context.Context, probeID string) (*Probe, error)

	// ListProbes lists registered probes.
	ListProbes(ctx context.Context) ([]*Probe, error)

	// SetProbeAngles records the angles of the probe mounted on the manipulator.
	SetProbeAngles(ctx context.Context, probeID string, angles models.Angles) error

	// CreateTarget plans a target insertion.
	CreateTarget(ctx context.Context, req CreateTargetRequest) (*Target, error)

	// GetTarget retrieves a target by ID.
	GetTarget(ctx context.Context, targetID string) (*Target, error)

	// ListTargets lists planned targets.
	ListTargets(ctx context.Context) ([]*Target, error)

	// DeleteTarget removes a target. Probes aiming at it lose their selection.
	DeleteTarget(ctx context.Context, targetID string) error

	// SelectTarget aims a probe at a target. The probe and target angles
	// must be coterminal.
	SelectTarget(ctx context.Context, probeID, targetID string) error
}

// RegisterProbeRequest contains parameters for registering a probe.
type RegisterProbeRequest struct {
	Name          string
	ManipulatorID string
	Angles        models.Angles
	RightHanded   bool
}

// RegisterProbeResponse contains the result of registering a probe.
type RegisterProbeResponse struct {
	ProbeID string
	Probe   *Probe
}

// Probe is a manipulator-driven probe at the port boundary.
type Probe struct {
	ID                 string
	Name               string
	ManipulatorID      string
	State              string
	TargetID           string
	Moving             bool
	Calibrated         bool
	Insertable         bool
	Exitable           bool
	Angles             models.Angles
	Position           models.Vector4
	DuraDepth          float64
	DuraCoordinate     models.Vector3
	EntryCoordinate    models.Vector3
	BrainSurfaceOffset float64
	CreatedAt          string
	UpdatedAt          string
}

// CreateTargetRequest contains parameters for planning a target.
type CreateTargetRequest struct {
	Name      string
	Insertion models.Insertion
}

// Target is a planned insertion at the port boundary.
type Target struct {
	ID        string
	Name      string
	Insertion models.Insertion
	CreatedAt string
	UpdatedAt string
}

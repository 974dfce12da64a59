package primary

import (
	"context"

	"github.com/example/pinpoint/internal/models"
)

// CalibrationService defines the primary port for calibration procedures
// that gate entry into the drivable cycle.
type CalibrationService interface {
	// ResetDuraOffset records the current tip as resting on the Dura.
	// Returns false without error when the operator declines the
	// low-clearance prompt, and false with the error when the position
	// query fails.
	ResetDuraOffset(ctx context.Context, probeID string) (bool, error)

	// GetOffsetAdjustedTargetCoordinate returns the coordinate the probe
	// should aim for to reach the target along its own trajectory.
	GetOffsetAdjustedTargetCoordinate(ctx context.Context, probeID, targetID string) (models.Vector3, error)

	// IsAPMLDVWithinManipulatorBounds reports whether the manipulator can
	// reach apmldv.
	IsAPMLDVWithinManipulatorBounds(ctx context.Context, probeID string, apmldv models.Vector3) (bool, error)

	// CheckTargetBounds gates the entry coordinate and the final target on
	// manipulator reach, offering the operator an override for each.
	CheckTargetBounds(ctx context.Context, probeID, targetID string) (bool, error)

	// DriveToTargetEntryCoordinate moves a calibrated probe to where the
	// target trajectory enters the brain. Returns false without error when
	// the operator declines an out-of-bounds prompt.
	DriveToTargetEntryCoordinate(ctx context.Context, probeID, targetID string) (bool, error)

	// StopDriveToTargetEntryCoordinate halts the entry drive and returns
	// the probe to the calibrated state.
	StopDriveToTargetEntryCoordinate(ctx context.Context, probeID string) error

	// SetReferenceCoordinateOffset sets the manipulator zero coordinate.
	// NaN components keep their current value.
	SetReferenceCoordinateOffset(ctx context.Context, probeID string, offset models.Vector4) error
}

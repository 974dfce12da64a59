package secondary

import "github.com/example/pinpoint/internal/models"

// CoordinateConverter maps between manipulator positions and AP/ML/DV
// insertion coordinates. Implementations are pure.
type CoordinateConverter interface {
	// ManipulatorToInsertion returns the probe tip AP/ML/DV for a
	// manipulator position.
	ManipulatorToInsertion(position models.Vector4, frame models.ManipulatorFrame) models.Vector3

	// InsertionToManipulator returns the manipulator position that places
	// the tip at apmldv with the depth axis retracted.
	InsertionToManipulator(apmldv models.Vector3, frame models.ManipulatorFrame) models.Vector4

	// Reproject sends an AP/ML/DV coordinate through world space and back
	// so atlas scaling is applied.
	Reproject(apmldv models.Vector3) models.Vector3

	// ProbeForward returns the unit insertion direction in AP/ML/DV.
	ProbeForward(angles models.Angles) models.Vector3

	// BrainSurfaceOffset returns the drop-axis distance from the tip at
	// position to the brain surface.
	BrainSurfaceOffset(position models.Vector4, frame models.ManipulatorFrame) float64

	// EntryCoordinate returns where the target's trajectory crosses the
	// brain surface.
	EntryCoordinate(target models.Insertion) models.Vector3
}

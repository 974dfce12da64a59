package automation

// Distances in mm, speeds in mm/s.
const (
	// NearTargetDistance is how far above the target the fast approach stops.
	NearTargetDistance = 1.0

	// DuraMarginDistance is how far above the Dura the exit pauses.
	DuraMarginDistance = 0.2

	// NearTargetSpeedMultiplier slows motion close to the target.
	NearTargetSpeedMultiplier = 2.0 / 3.0

	// ExitDriveSpeedMultiplier speeds up retraction.
	ExitDriveSpeedMultiplier = 6.0

	// OutsideDriveSpeedMultiplier speeds up motion outside the brain.
	OutsideDriveSpeedMultiplier = 50.0

	// DefaultAutomaticMovementSpeed is used for entry-coordinate moves when no
	// speed is configured.
	DefaultAutomaticMovementSpeed = 0.5

	// DefaultDrivePastDistance is how far beyond the target the probe
	// overshoots before returning.
	DefaultDrivePastDistance = 0.05
)

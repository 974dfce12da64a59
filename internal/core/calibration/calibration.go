// Package calibration contains the pure geometry and safety checks used when
// calibrating a probe to the Dura and planning its approach to a target.
// This is part of the Functional Core - no I/O, only pure functions.
package calibration

import (
	"fmt"
	"math"

	"github.com/example/pinpoint/internal/models"
)

const (
	// DuraMarginDistance is the retraction above the Dura used when exiting (mm).
	DuraMarginDistance = 0.2

	// ExitClearanceFactor scales the margin to get the minimum safe depth.
	ExitClearanceFactor = 1.5

	// MinAutomationPitch is the smallest pitch (degrees) the automation accepts.
	MinAutomationPitch = 30.0

	// CoterminalTolerance is the largest angle residue (degrees) treated as zero.
	CoterminalTolerance = 0.01
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CheckExitClearance evaluates whether a manipulator at depth has room to
// retract past the exit margin. A refusal is a question for the operator,
// not a failure.
func CheckExitClearance(depth float64) GuardResult {
	minimum := ExitClearanceFactor * DuraMarginDistance
	if depth < minimum {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf("depth %.3f mm leaves less than %.3f mm to retract past the dura margin",
				depth, minimum),
		}
	}
	return GuardResult{Allowed: true}
}

// WithinBounds reports whether a manipulator position lies inside the travel
// volume [0, dimensions] on every axis.
func WithinBounds(pos, dimensions models.Vector4) bool {
	if pos.IsNaN() {
		return false
	}
	axes := [][2]float64{
		{pos.X, dimensions.X},
		{pos.Y, dimensions.Y},
		{pos.Z, dimensions.Z},
		{pos.W, dimensions.W},
	}
	for _, a := range axes {
		if a[0] < 0 || a[0] > a[1] {
			return false
		}
	}
	return true
}

// OffsetAdjustedTarget shifts target by the part of (probeTip - target) that
// lies in the plane perpendicular to forward, so the probe aims along its own
// trajectory at the target's depth.
func OffsetAdjustedTarget(probeTip, target, forward models.Vector3) models.Vector3 {
	return target.Add(probeTip.Sub(target).ProjectOnPlane(forward))
}

// TargetDepth returns the manipulator depth at which the tip reaches
// offsetAdjusted when driving straight down from the Dura.
func TargetDepth(duraDepth float64, duraCoordinate, offsetAdjusted models.Vector3) float64 {
	return duraDepth + offsetAdjusted.Distance(duraCoordinate)
}

// EntryTrajectory returns the waypoints from current to entry, both in
// AP/ML/DV: lift to the shallower DV, travel in AP/ML, then descend.
func EntryTrajectory(current, entry models.Vector3) []models.Vector3 {
	safeDV := math.Min(current.Z, entry.Z)
	return []models.Vector3{
		{X: current.X, Y: current.Y, Z: safeDV},
		{X: entry.X, Y: entry.Y, Z: safeDV},
		entry,
	}
}

// IsPitchValid reports whether a probe is steep enough for automation.
func IsPitchValid(pitch float64) bool {
	return pitch > MinAutomationPitch
}

// IsCoterminal reports whether two angles (degrees) point the same way.
func IsCoterminal(a, b float64) bool {
	r := math.Mod(math.Abs(a-b), 360)
	return r < CoterminalTolerance || 360-r < CoterminalTolerance
}

// AnglesCoterminal reports whether every component of a and b is coterminal.
func AnglesCoterminal(a, b models.Angles) bool {
	return IsCoterminal(a.Yaw, b.Yaw) && IsCoterminal(a.Pitch, b.Pitch) && IsCoterminal(a.Roll, b.Roll)
}

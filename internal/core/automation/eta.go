package automation

import (
	"math"
	"time"
)

// ETAInput describes where a probe is in its insertion.
type ETAInput struct {
	State             State
	CurrentDepth      float64
	TargetDepth       float64
	BaseSpeed         float64
	DrivePastDistance float64
}

// EstimateDriveDuration returns the time the remaining insertion steps take at
// their planned speeds. Probes not in the insertion half of the cycle report 0.
func EstimateDriveDuration(input ETAInput) time.Duration {
	if input.BaseSpeed <= 0 || !input.State.Between(AtDuraInsert, ReturningToTarget) {
		return 0
	}

	slow := input.BaseSpeed * NearTargetSpeedMultiplier
	nearDepth := input.TargetDepth - NearTargetDistance
	pastDepth := input.TargetDepth + input.DrivePastDistance

	depth := input.CurrentDepth
	seconds := 0.0

	if !input.State.After(DrivingToNearTarget) && depth < nearDepth {
		seconds += (nearDepth - depth) / input.BaseSpeed
		depth = nearDepth
	}
	if !input.State.After(DrivingToPastTarget) {
		if depth < pastDepth {
			seconds += (pastDepth - depth) / slow
		}
		depth = pastDepth
	}
	seconds += math.Abs(depth-input.TargetDepth) / slow

	return time.Duration(seconds * float64(time.Second))
}

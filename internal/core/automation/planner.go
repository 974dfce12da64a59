package automation

import (
	"fmt"

	"github.com/example/pinpoint/internal/core/effects"
	"github.com/example/pinpoint/internal/models"
)

// DriveStepInput contains the pre-fetched data needed to plan one insertion
// step.
type DriveStepInput struct {
	State             State
	ManipulatorID     string
	TargetDepth       float64 // dura depth + distance from dura to offset-adjusted target
	DistanceToTarget  float64 // current tip distance to the offset-adjusted target
	BaseSpeed         float64
	DrivePastDistance float64
}

// ExitStepInput contains the pre-fetched data needed to plan one exit step.
type ExitStepInput struct {
	State            State
	ManipulatorID    string
	TargetDepth      float64
	DuraDepth        float64
	DistanceToTarget float64
	BaseSpeed        float64
	SkipExitMargin   bool
	EntryPosition    models.Vector4 // manipulator position of the entry coordinate
	AutomaticSpeed   float64
}

// PlanDriveStep returns the single manipulator command for the driving state
// in input. Landmark states are contract violations.
func PlanDriveStep(input DriveStepInput) (effects.Effect, error) {
	switch input.State {
	case DrivingToNearTarget:
		if input.DistanceToTarget <= NearTargetDistance {
			return effects.SkipEffect{Reason: "already within near-target distance"}, nil
		}
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.TargetDepth - NearTargetDistance,
			Speed:         input.BaseSpeed,
		}, nil

	case DrivingToPastTarget:
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.TargetDepth + input.DrivePastDistance,
			Speed:         input.BaseSpeed * NearTargetSpeedMultiplier,
		}, nil

	case ReturningToTarget:
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.TargetDepth,
			Speed:         input.BaseSpeed * NearTargetSpeedMultiplier,
		}, nil

	case IsUncalibrated, IsCalibrated, DrivingToTargetEntryCoordinate, AtEntryCoordinate,
		AtDuraInsert, AtNearTargetInsert, AtPastTarget, AtTarget,
		ExitingToNearTarget, AtNearTargetExit, ExitingToDura, AtDuraExit,
		ExitingToMargin, AtExitMargin, ExitingToTargetEntryCoordinate:
		return nil, invalidOperation("plan drive step", input.State, "not an insertion driving state")
	}
	return nil, invalidOperation("plan drive step", input.State, fmt.Sprintf("unknown state %q", string(input.State)))
}

// PlanExitStep returns the single manipulator command for the exit state in
// input. Landmark states are contract violations.
func PlanExitStep(input ExitStepInput) (effects.Effect, error) {
	exitSpeed := input.BaseSpeed * ExitDriveSpeedMultiplier

	switch input.State {
	case ExitingToNearTarget:
		if input.DistanceToTarget >= NearTargetDistance {
			return effects.SkipEffect{Reason: "already above near-target depth"}, nil
		}
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.TargetDepth - NearTargetDistance,
			Speed:         exitSpeed * NearTargetSpeedMultiplier,
		}, nil

	case ExitingToDura:
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.DuraDepth,
			Speed:         exitSpeed,
		}, nil

	case ExitingToMargin:
		if input.SkipExitMargin {
			return effects.SkipEffect{Reason: "exit margin skipped by operator"}, nil
		}
		return effects.SetDepthEffect{
			ManipulatorID: input.ManipulatorID,
			Depth:         input.DuraDepth - DuraMarginDistance,
			Speed:         exitSpeed,
		}, nil

	case ExitingToTargetEntryCoordinate:
		return effects.SetPositionEffect{
			ManipulatorID: input.ManipulatorID,
			Position:      input.EntryPosition,
			Speed:         input.AutomaticSpeed,
		}, nil

	case IsUncalibrated, IsCalibrated, DrivingToTargetEntryCoordinate, AtEntryCoordinate,
		AtDuraInsert, DrivingToNearTarget, AtNearTargetInsert, DrivingToPastTarget,
		AtPastTarget, ReturningToTarget, AtTarget, AtNearTargetExit, AtDuraExit, AtExitMargin:
		return nil, invalidOperation("plan exit step", input.State, "not an exit driving state")
	}
	return nil, invalidOperation("plan exit step", input.State, fmt.Sprintf("unknown state %q", string(input.State)))
}

// IsDriveComplete reports whether an insertion sequence has finished.
func IsDriveComplete(s State) bool { return s == AtTarget }

// IsExitComplete reports whether an exit sequence has finished.
func IsExitComplete(s State) bool { return s == AtEntryCoordinate }

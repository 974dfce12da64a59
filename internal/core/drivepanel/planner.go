package drivepanel

import (
	"github.com/example/pinpoint/internal/core/effects"
	"github.com/example/pinpoint/internal/models"
)

// Distances in mm, speeds in mm/s.
const (
	OutsideDistance           = 3.5
	DuraMarginDistance        = 0.2
	NearTargetDistance        = 1.0
	DefaultDrivePastDistance  = 0.05
	DefaultBaseSpeed          = 0.005
	TestBaseSpeed             = 0.5
	NearTargetSpeedMultiplier = 2.0 / 3.0
	ExitSpeedMultiplier       = 6.0
	OutsideSpeedMultiplier    = 50.0
	Per1000Speed              = 0.001
	Per1000SpeedTest          = 0.01
)

// BaseSpeedPresets are the selectable panel base speeds.
var BaseSpeedPresets = []float64{0.002, DefaultBaseSpeed, 0.01, TestBaseSpeed}

// Geometry holds the panel landmarks for one probe and target.
type Geometry struct {
	DuraDepth           float64
	TargetDriveDistance float64 // straight-line distance from dura coordinate to target
	DrivePastDistance   float64
}

func (g Geometry) TargetDepth() float64     { return g.DuraDepth + g.TargetDriveDistance }
func (g Geometry) NearTargetDepth() float64 { return g.TargetDepth() - NearTargetDistance }
func (g Geometry) PastTargetDepth() float64 { return g.TargetDepth() + g.DrivePastDistance }
func (g Geometry) ExitMarginDepth() float64 { return g.DuraDepth - DuraMarginDistance }
func (g Geometry) OutsideDepth() float64    { return g.DuraDepth - OutsideDistance }

// Speeds holds the panel speeds derived from a base speed.
type Speeds struct {
	Base           float64
	TargetDrive    float64
	NearTarget     float64
	ExitBase       float64
	Exit           float64
	NearTargetExit float64
	Outside        float64
}

// ComputeSpeeds derives every panel speed from base and the drive distance.
func ComputeSpeeds(base, targetDriveDistance float64) Speeds {
	per1000 := Per1000Speed
	if base > DefaultBaseSpeed {
		per1000 = Per1000SpeedTest
	}
	exitBase := base * ExitSpeedMultiplier
	return Speeds{
		Base:           base,
		TargetDrive:    base + targetDriveDistance*per1000,
		NearTarget:     base * NearTargetSpeedMultiplier,
		ExitBase:       exitBase,
		Exit:           exitBase + targetDriveDistance*per1000,
		NearTargetExit: exitBase * NearTargetSpeedMultiplier,
		Outside:        base * OutsideSpeedMultiplier,
	}
}

// StepInput contains the pre-fetched data needed to plan one panel step.
type StepInput struct {
	State           DriveState
	ManipulatorID   string
	Position        models.Vector4 // current manipulator position
	OutsidePosition models.Vector4 // manipulator position above the dura; Z is the vertical axis
	Geometry        Geometry
	Speeds          Speeds
}

// PlanStep returns the command for the motion state in input. A SkipEffect
// means the landmark is already reached. ok is false for non-motion states.
func PlanStep(input StepInput) (eff effects.Effect, ok bool) {
	g := input.Geometry
	sp := input.Speeds
	w := input.Position.W
	id := input.ManipulatorID

	setDepth := func(depth, speed float64) effects.Effect {
		return effects.SetDepthEffect{ManipulatorID: id, Depth: depth, Speed: speed}
	}
	exitSpeed := func() float64 {
		if w > g.NearTargetDepth() {
			return sp.NearTargetExit
		}
		return sp.Exit
	}

	switch input.State {
	case DrivingToNearTarget:
		if w < g.NearTargetDepth() {
			return setDepth(g.NearTargetDepth(), sp.TargetDrive), true
		}
		return effects.SkipEffect{Reason: "already past near-target depth"}, true

	case DrivingToPastTarget:
		if w < g.PastTargetDepth() {
			return setDepth(g.PastTargetDepth(), sp.NearTarget), true
		}
		return effects.SkipEffect{Reason: "already past target"}, true

	case ReturningToTarget:
		return setDepth(g.TargetDepth(), sp.NearTarget), true

	case ExitingToNearTarget:
		if g.NearTargetDepth() > g.DuraDepth && w > g.NearTargetDepth() {
			return setDepth(g.NearTargetDepth(), sp.NearTargetExit), true
		}
		return effects.SkipEffect{Reason: "dura is within near-target distance"}, true

	case ExitingToDura:
		if w > g.DuraDepth {
			return setDepth(g.DuraDepth, exitSpeed()), true
		}
		return effects.SkipEffect{Reason: "already at dura"}, true

	case ExitingToMargin:
		if w > g.ExitMarginDepth() {
			return setDepth(g.ExitMarginDepth(), exitSpeed()), true
		}
		return effects.SkipEffect{Reason: "already at exit margin"}, true

	case ExitingToOutside:
		if input.Position.Z < input.OutsidePosition.Z {
			return effects.SetPositionEffect{ManipulatorID: id, Position: input.OutsidePosition, Speed: sp.Outside}, true
		}
		if w > g.OutsideDepth() {
			return setDepth(g.OutsideDepth(), sp.Outside), true
		}
		return effects.SkipEffect{Reason: "already outside"}, true

	case Outside, AtExitMargin, AtDura, AtNearTarget, AtPastTarget, AtTarget:
		return nil, false
	}
	return nil, false
}

// IsDriveDone reports whether a panel drive has finished.
func IsDriveDone(s DriveState) bool { return s == AtTarget }

// IsExitDone reports whether a panel exit has finished.
func IsExitDone(s DriveState) bool { return s == Outside }

// Package coords provides a CoordinateConverter for rigs whose manipulator
// axes are aligned with the AP/ML/DV axes.
package coords

import (
	"math"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// minDrop is the smallest DV component of the insertion direction that still
// crosses a horizontal plane.
const minDrop = 1e-6

// AxisConverter maps manipulator X/Y/Z onto AP/ML/DV after removing the
// reference offset. Left-handed manipulators mirror the AP axis. The depth
// axis runs along the probe's insertion direction and DV grows ventrally.
// The brain surface is modelled as the horizontal plane DV = SurfaceDV.
type AxisConverter struct {
	SurfaceDV float64
}

// NewAxisConverter creates a converter for a brain surface at surfaceDV.
func NewAxisConverter(surfaceDV float64) *AxisConverter {
	return &AxisConverter{SurfaceDV: surfaceDV}
}

func handedness(frame models.ManipulatorFrame) float64 {
	if frame.RightHanded {
		return 1
	}
	return -1
}

// ManipulatorToInsertion returns the probe tip AP/ML/DV for a manipulator
// position. The brain surface offset is added to the drop axis.
func (c *AxisConverter) ManipulatorToInsertion(position models.Vector4, frame models.ManipulatorFrame) models.Vector3 {
	rel := position.Sub(frame.ReferenceOffset)
	depth := rel.W
	base := models.Vector3{X: handedness(frame) * rel.X, Y: rel.Y, Z: rel.Z}

	if frame.DropToSurfaceWithDepth {
		depth += frame.BrainSurfaceOffset
	} else {
		base.Z += frame.BrainSurfaceOffset
	}

	return base.Add(c.ProbeForward(frame.Angles).Scale(depth))
}

// InsertionToManipulator returns the manipulator position that places the
// tip at apmldv with the depth axis fully retracted.
func (c *AxisConverter) InsertionToManipulator(apmldv models.Vector3, frame models.ManipulatorFrame) models.Vector4 {
	z := apmldv.Z
	if !frame.DropToSurfaceWithDepth {
		z -= frame.BrainSurfaceOffset
	}
	rel := models.Vector4{X: handedness(frame) * apmldv.X, Y: apmldv.Y, Z: z, W: 0}
	return rel.Add(frame.ReferenceOffset)
}

// Reproject is the identity: axis-aligned rigs have no atlas scaling.
func (c *AxisConverter) Reproject(apmldv models.Vector3) models.Vector3 {
	return apmldv
}

// ProbeForward returns the unit insertion direction. Pitch 90 points straight
// down; yaw turns the horizontal component from +AP towards +ML.
func (c *AxisConverter) ProbeForward(angles models.Angles) models.Vector3 {
	yaw := angles.Yaw * math.Pi / 180
	pitch := angles.Pitch * math.Pi / 180
	horizontal := math.Cos(pitch)
	return models.Vector3{
		X: horizontal * math.Cos(yaw),
		Y: horizontal * math.Sin(yaw),
		Z: math.Sin(pitch),
	}
}

// BrainSurfaceOffset returns how far the drop axis must travel from the tip
// at position to reach the surface plane. The frame's own offset is ignored.
func (c *AxisConverter) BrainSurfaceOffset(position models.Vector4, frame models.ManipulatorFrame) float64 {
	frame.BrainSurfaceOffset = 0
	tip := c.ManipulatorToInsertion(position, frame)
	gap := c.SurfaceDV - tip.Z

	if !frame.DropToSurfaceWithDepth {
		return gap
	}
	drop := c.ProbeForward(frame.Angles).Z
	if math.Abs(drop) < minDrop {
		return 0
	}
	return gap / drop
}

// EntryCoordinate returns where the target's insertion line crosses the
// surface plane. A horizontal insertion never crosses it and returns the
// target itself.
func (c *AxisConverter) EntryCoordinate(target models.Insertion) models.Vector3 {
	forward := c.ProbeForward(target.Angles)
	if math.Abs(forward.Z) < minDrop {
		return target.APMLDV
	}
	back := (target.APMLDV.Z - c.SurfaceDV) / forward.Z
	return target.APMLDV.Sub(forward.Scale(back))
}

var _ secondary.CoordinateConverter = (*AxisConverter)(nil)

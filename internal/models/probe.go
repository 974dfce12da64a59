package models

// Angles are the yaw/pitch/roll of a probe in degrees.
type Angles struct {
	Yaw   float64 `json:"yaw" yaml:"yaw"`
	Pitch float64 `json:"pitch" yaml:"pitch"`
	Roll  float64 `json:"roll" yaml:"roll"`
}

// Insertion is a probe tip coordinate with its insertion angles.
type Insertion struct {
	APMLDV Vector3 `json:"apmldv" yaml:"apmldv"`
	Angles Angles  `json:"angles" yaml:"angles"`
}

// TargetInsertion is a planned insertion a manipulator-driven probe aims for.
type TargetInsertion struct {
	ID        string
	Name      string
	Insertion Insertion
	CreatedAt string
	UpdatedAt string
}

// ManipulatorData is the calibration and motion bookkeeping for one
// manipulator-driven probe.
type ManipulatorData struct {
	ManipulatorID string `yaml:"manipulator_id"`

	// Position is the last manipulator position reported by the link.
	Position Vector4 `yaml:"position"`

	// Angles of the probe mounted on the manipulator.
	Angles Angles `yaml:"angles"`

	// DuraDepth is the depth axis reading when the tip touched the Dura.
	DuraDepth float64 `yaml:"dura_depth"`

	// DuraCoordinate is the tip AP/ML/DV at the Dura.
	DuraCoordinate Vector3 `yaml:"dura_coordinate"`

	// ReferenceOffset is the zero coordinate in manipulator space.
	ReferenceOffset Vector4 `yaml:"reference_offset"`

	// BrainSurfaceOffset is added to the drop axis when echoing positions.
	BrainSurfaceOffset float64 `yaml:"brain_surface_offset"`

	// DropToSurfaceWithDepth selects the depth axis (true) or DV axis as
	// the drop axis.
	DropToSurfaceWithDepth bool `yaml:"drop_to_surface_with_depth"`

	RightHanded bool `yaml:"right_handed"`

	// EntryCoordinate is where the target trajectory crosses the brain surface.
	EntryCoordinate Vector3 `yaml:"entry_coordinate"`

	// Target cache: the raw target coordinate the adjusted coordinate was
	// computed for.
	CachedTargetCoordinate         Vector3 `yaml:"cached_target_coordinate"`
	CachedOffsetAdjustedCoordinate Vector3 `yaml:"cached_offset_adjusted_coordinate"`

	SkipExitMargin          bool `yaml:"skip_exit_margin"`
	AcknowledgedOutOfBounds bool `yaml:"acknowledged_out_of_bounds"`

	Moving bool `yaml:"moving"`
}

// ManipulatorFrame is the subset of ManipulatorData that fixes how manipulator
// positions map to AP/ML/DV.
type ManipulatorFrame struct {
	ReferenceOffset        Vector4
	Angles                 Angles
	RightHanded            bool
	BrainSurfaceOffset     float64
	DropToSurfaceWithDepth bool
}

// Frame returns the coordinate frame of d.
func (d ManipulatorData) Frame() ManipulatorFrame {
	return ManipulatorFrame{
		ReferenceOffset:        d.ReferenceOffset,
		Angles:                 d.Angles,
		RightHanded:            d.RightHanded,
		BrainSurfaceOffset:     d.BrainSurfaceOffset,
		DropToSurfaceWithDepth: d.DropToSurfaceWithDepth,
	}
}

// NewManipulatorData returns data for a freshly attached manipulator with
// every coordinate unset.
func NewManipulatorData(manipulatorID string) ManipulatorData {
	return ManipulatorData{
		ManipulatorID:                  manipulatorID,
		Position:                       NaN4(),
		DuraDepth:                      0,
		DuraCoordinate:                 NaN3(),
		EntryCoordinate:                NaN3(),
		CachedTargetCoordinate:         NaN3(),
		CachedOffsetAdjustedCoordinate: NaN3(),
		DropToSurfaceWithDepth:         true,
	}
}

// InvalidateTargetCache forgets the cached offset-adjusted target.
func (d *ManipulatorData) InvalidateTargetCache() {
	d.CachedTargetCoordinate = NaN3()
	d.CachedOffsetAdjustedCoordinate = NaN3()
}

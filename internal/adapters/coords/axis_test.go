package coords

import (
	"math"
	"testing"

	"github.com/example/pinpoint/internal/models"
)

const eps = 1e-9

func near3(a, b models.Vector3) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func straightDown() models.Angles { return models.Angles{Yaw: 0, Pitch: 90} }

func TestAxisConverter_ProbeForward(t *testing.T) {
	c := NewAxisConverter(0)

	tests := []struct {
		name   string
		angles models.Angles
		want   models.Vector3
	}{
		{"straight down", straightDown(), models.Vector3{Z: 1}},
		{"flat along AP", models.Angles{Yaw: 0, Pitch: 0}, models.Vector3{X: 1}},
		{"flat along ML", models.Angles{Yaw: 90, Pitch: 0}, models.Vector3{Y: 1}},
		{"45 degrees", models.Angles{Yaw: 0, Pitch: 45}, models.Vector3{X: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ProbeForward(tt.angles)
			if !near3(got, tt.want) {
				t.Errorf("ProbeForward(%+v) = %s, want %s", tt.angles, got, tt.want)
			}
			if math.Abs(got.Length()-1) > eps {
				t.Errorf("expected unit vector, got length %v", got.Length())
			}
		})
	}
}

func TestAxisConverter_RoundTrip(t *testing.T) {
	c := NewAxisConverter(0)

	for _, rightHanded := range []bool{true, false} {
		frame := models.ManipulatorFrame{
			ReferenceOffset:        models.Vector4{X: 10, Y: 10, Z: 10, W: 0},
			Angles:                 straightDown(),
			RightHanded:            rightHanded,
			DropToSurfaceWithDepth: true,
		}
		target := models.Vector3{X: -1.5, Y: 2, Z: 0.5}

		pos := c.InsertionToManipulator(target, frame)
		if pos.W != 0 {
			t.Errorf("expected retracted depth axis, got %v", pos.W)
		}
		if got := c.ManipulatorToInsertion(pos, frame); !near3(got, target) {
			t.Errorf("right-handed=%v: round trip gave %s, want %s", rightHanded, got, target)
		}
	}
}

func TestAxisConverter_DepthMovesAlongProbe(t *testing.T) {
	c := NewAxisConverter(0)
	frame := models.ManipulatorFrame{Angles: straightDown(), RightHanded: true, DropToSurfaceWithDepth: true}

	tip := c.ManipulatorToInsertion(models.Vector4{X: 1, Y: 2, Z: 3, W: 4}, frame)
	if !near3(tip, models.Vector3{X: 1, Y: 2, Z: 7}) {
		t.Errorf("unexpected tip %s", tip)
	}

	frame.BrainSurfaceOffset = 0.5
	tip = c.ManipulatorToInsertion(models.Vector4{X: 1, Y: 2, Z: 3, W: 4}, frame)
	if !near3(tip, models.Vector3{X: 1, Y: 2, Z: 7.5}) {
		t.Errorf("expected the offset on the depth axis, got %s", tip)
	}
}

func TestAxisConverter_BrainSurfaceOffset(t *testing.T) {
	c := NewAxisConverter(5)

	t.Run("depth drop", func(t *testing.T) {
		frame := models.ManipulatorFrame{Angles: straightDown(), RightHanded: true, DropToSurfaceWithDepth: true, BrainSurfaceOffset: 99}
		got := c.BrainSurfaceOffset(models.Vector4{Z: 2, W: 1}, frame)
		if math.Abs(got-2) > eps {
			t.Errorf("expected 2 mm to the surface, got %v", got)
		}
	})

	t.Run("angled depth drop", func(t *testing.T) {
		frame := models.ManipulatorFrame{Angles: models.Angles{Pitch: 30}, RightHanded: true, DropToSurfaceWithDepth: true}
		got := c.BrainSurfaceOffset(models.Vector4{Z: 4}, frame)
		if math.Abs(got-2) > eps {
			t.Errorf("expected 2 mm along a 30 degree probe, got %v", got)
		}
	})

	t.Run("dv drop", func(t *testing.T) {
		frame := models.ManipulatorFrame{Angles: models.Angles{Pitch: 30}, RightHanded: true}
		got := c.BrainSurfaceOffset(models.Vector4{Z: 4}, frame)
		if math.Abs(got-1) > eps {
			t.Errorf("expected 1 mm on DV, got %v", got)
		}
	})

	t.Run("horizontal probe", func(t *testing.T) {
		frame := models.ManipulatorFrame{Angles: models.Angles{Pitch: 0}, DropToSurfaceWithDepth: true}
		if got := c.BrainSurfaceOffset(models.Vector4{}, frame); got != 0 {
			t.Errorf("expected 0 for a probe that never reaches the surface, got %v", got)
		}
	})
}

func TestAxisConverter_EntryCoordinate(t *testing.T) {
	c := NewAxisConverter(1)

	straight := c.EntryCoordinate(models.Insertion{APMLDV: models.Vector3{X: 2, Y: 3, Z: 6}, Angles: straightDown()})
	if !near3(straight, models.Vector3{X: 2, Y: 3, Z: 1}) {
		t.Errorf("unexpected straight entry %s", straight)
	}

	angled := c.EntryCoordinate(models.Insertion{APMLDV: models.Vector3{X: 0, Y: 0, Z: 2}, Angles: models.Angles{Pitch: 45}})
	if !near3(angled, models.Vector3{X: -1, Y: 0, Z: 1}) {
		t.Errorf("unexpected angled entry %s", angled)
	}

	flat := models.Insertion{APMLDV: models.Vector3{X: 4, Z: 9}, Angles: models.Angles{Pitch: 0}}
	if got := c.EntryCoordinate(flat); !near3(got, flat.APMLDV) {
		t.Errorf("expected horizontal insertion to return the target, got %s", got)
	}
}

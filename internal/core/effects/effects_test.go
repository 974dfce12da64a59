package effects

import (
	"testing"

	"github.com/example/pinpoint/internal/models"
)

func TestEffectTypes(t *testing.T) {
	tests := []struct {
		effect Effect
		want   string
	}{
		{SetDepthEffect{ManipulatorID: "1", Depth: 2, Speed: 0.005}, "set_depth"},
		{SetPositionEffect{ManipulatorID: "1", Position: models.Vector4{}}, "set_position"},
		{GetPositionEffect{ManipulatorID: "1"}, "get_position"},
		{StopEffect{ManipulatorID: "1"}, "stop"},
		{SkipEffect{Reason: "already there"}, "skip"},
		{CompositeEffect{}, "composite"},
		{NoEffect{}, "none"},
	}

	for _, tt := range tests {
		if got := tt.effect.EffectType(); got != tt.want {
			t.Errorf("%T.EffectType() = %q, want %q", tt.effect, got, tt.want)
		}
	}
}

func TestMovesManipulator(t *testing.T) {
	tests := []struct {
		name   string
		effect Effect
		want   bool
	}{
		{"set depth moves", SetDepthEffect{}, true},
		{"set position moves", SetPositionEffect{}, true},
		{"skip does not move", SkipEffect{}, false},
		{"stop does not move", StopEffect{}, false},
		{"empty composite", CompositeEffect{}, false},
		{"composite with move", CompositeEffect{Effects: []Effect{SkipEffect{}, SetDepthEffect{}}}, true},
		{"nested composite with move", CompositeEffect{Effects: []Effect{CompositeEffect{Effects: []Effect{SetPositionEffect{}}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MovesManipulator(tt.effect); got != tt.want {
				t.Errorf("MovesManipulator() = %v, want %v", got, tt.want)
			}
		})
	}
}

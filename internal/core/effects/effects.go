// Package effects defines manipulator commands as data structures.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects describe what the manipulator should do, not how the link does it.
package effects

import "github.com/example/pinpoint/internal/models"

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// SetDepthEffect drives the depth axis of a manipulator.
type SetDepthEffect struct {
	ManipulatorID string
	Depth         float64 // mm
	Speed         float64 // mm/s
}

func (e SetDepthEffect) EffectType() string { return "set_depth" }

// SetPositionEffect drives all four manipulator axes.
type SetPositionEffect struct {
	ManipulatorID string
	Position      models.Vector4
	Speed         float64 // mm/s
}

func (e SetPositionEffect) EffectType() string { return "set_position" }

// GetPositionEffect queries the manipulator position.
type GetPositionEffect struct {
	ManipulatorID string
}

func (e GetPositionEffect) EffectType() string { return "get_position" }

// StopEffect halts a manipulator.
type StopEffect struct {
	ManipulatorID string
}

func (e StopEffect) EffectType() string { return "stop" }

// SkipEffect completes a step without moving the manipulator.
type SkipEffect struct {
	Reason string
}

func (e SkipEffect) EffectType() string { return "skip" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }

// MovesManipulator reports whether executing eff issues any motion command.
func MovesManipulator(eff Effect) bool {
	switch typed := eff.(type) {
	case SetDepthEffect, SetPositionEffect:
		return true
	case CompositeEffect:
		for _, inner := range typed.Effects {
			if MovesManipulator(inner) {
				return true
			}
		}
	}
	return false
}

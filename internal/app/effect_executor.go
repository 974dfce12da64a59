package app

import (
	"context"
	"fmt"

	"github.com/example/pinpoint/internal/core/effects"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place manipulator I/O happens.
type EffectExecutor interface {
	// Execute runs eff and returns what is known of the manipulator position
	// afterwards; unknown axes are NaN.
	Execute(ctx context.Context, eff effects.Effect) (models.Vector4, error)
}

// LinkEffectExecutor implements EffectExecutor against a ManipulatorLink.
type LinkEffectExecutor struct {
	link secondary.ManipulatorLink
}

// NewEffectExecutor creates a new LinkEffectExecutor.
func NewEffectExecutor(link secondary.ManipulatorLink) *LinkEffectExecutor {
	return &LinkEffectExecutor{link: link}
}

// Execute runs eff. Link failures are returned as *TransportError.
func (e *LinkEffectExecutor) Execute(ctx context.Context, eff effects.Effect) (models.Vector4, error) {
	switch typed := eff.(type) {
	case effects.SetDepthEffect:
		depth, err := e.link.SetDepth(ctx, typed.ManipulatorID, typed.Depth, typed.Speed)
		if err != nil {
			return models.NaN4(), &TransportError{Operation: "set_depth", ManipulatorID: typed.ManipulatorID, Err: err}
		}
		pos := models.NaN4()
		pos.W = depth
		return pos, nil

	case effects.SetPositionEffect:
		pos, err := e.link.SetPosition(ctx, typed.ManipulatorID, typed.Position, typed.Speed)
		if err != nil {
			return models.NaN4(), &TransportError{Operation: "set_position", ManipulatorID: typed.ManipulatorID, Err: err}
		}
		return pos, nil

	case effects.GetPositionEffect:
		pos, err := e.link.GetPosition(ctx, typed.ManipulatorID)
		if err != nil {
			return models.NaN4(), &TransportError{Operation: "get_position", ManipulatorID: typed.ManipulatorID, Err: err}
		}
		return pos, nil

	case effects.StopEffect:
		if err := e.link.Stop(ctx, typed.ManipulatorID); err != nil {
			return models.NaN4(), &TransportError{Operation: "stop", ManipulatorID: typed.ManipulatorID, Err: err}
		}
		return models.NaN4(), nil

	case effects.CompositeEffect:
		last := models.NaN4()
		for _, inner := range typed.Effects {
			pos, err := e.Execute(ctx, inner)
			if err != nil {
				return last, err
			}
			last = last.Merge(pos)
		}
		return last, nil

	case effects.SkipEffect, effects.NoEffect:
		return models.NaN4(), nil

	default:
		return models.NaN4(), fmt.Errorf("unknown effect type: %T", eff)
	}
}

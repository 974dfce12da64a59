package app

import (
	"context"
	"fmt"

	"github.com/example/pinpoint/internal/core/calibration"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// Deps are the collaborators shared by the probe services.
type Deps struct {
	Registry  *ProbeRegistry
	Targets   secondary.TargetRepository
	Link      secondary.ManipulatorLink
	Converter secondary.CoordinateConverter
	Executor  EffectExecutor
	Dialog    secondary.Dialog
	Events    secondary.EventWriter
	Errors    secondary.ErrorSink
	Metrics   secondary.MetricsRecorder

	// AutomaticSpeed is the entry-coordinate travel speed (mm/s).
	AutomaticSpeed float64

	// Travel is the manipulator travel volume on each axis (mm).
	Travel models.Vector4
}

func insertionFromRecord(rec *secondary.TargetRecord) models.Insertion {
	return models.Insertion{
		APMLDV: models.Vector3{X: rec.AP, Y: rec.ML, Z: rec.DV},
		Angles: models.Angles{Yaw: rec.Yaw, Pitch: rec.Pitch, Roll: rec.Roll},
	}
}

// resolveTarget loads targetID, or the probe's selected target when
// targetID is empty.
func resolveTarget(ctx context.Context, targets secondary.TargetRepository, sess *probeSession, targetID string) (models.Insertion, error) {
	if targetID == "" {
		sess.mu.Lock()
		targetID = sess.targetID
		sess.mu.Unlock()
	}
	if targetID == "" {
		return models.Insertion{}, fmt.Errorf("probe %s: %w", sess.id, ErrNoTarget)
	}
	rec, err := targets.GetByID(ctx, targetID)
	if err != nil {
		return models.Insertion{}, err
	}
	return insertionFromRecord(rec), nil
}

// probeTip returns the tip AP/ML/DV at the last known position.
// Callers hold the session lock.
func probeTip(conv secondary.CoordinateConverter, data *models.ManipulatorData) models.Vector3 {
	return conv.ManipulatorToInsertion(data.Position, data.Frame())
}

// offsetAdjustedTarget returns the coordinate the probe must reach to hit
// target along its own trajectory. The result is cached on data until the
// target coordinate changes. Callers hold the session lock.
func offsetAdjustedTarget(conv secondary.CoordinateConverter, data *models.ManipulatorData, target models.Vector3) models.Vector3 {
	if !data.CachedOffsetAdjustedCoordinate.IsNaN() && data.CachedTargetCoordinate.Equal(target) {
		return data.CachedOffsetAdjustedCoordinate
	}
	adjusted := conv.Reproject(calibration.OffsetAdjustedTarget(
		probeTip(conv, data),
		target,
		conv.ProbeForward(data.Angles),
	))
	data.CachedTargetCoordinate = target
	data.CachedOffsetAdjustedCoordinate = adjusted
	return adjusted
}

// targetDepth returns the manipulator depth of the offset-adjusted target.
// Callers hold the session lock.
func targetDepth(conv secondary.CoordinateConverter, data *models.ManipulatorData, target models.Vector3) (depth, distance float64) {
	adjusted := offsetAdjustedTarget(conv, data, target)
	return calibration.TargetDepth(data.DuraDepth, data.DuraCoordinate, adjusted),
		probeTip(conv, data).Distance(adjusted)
}

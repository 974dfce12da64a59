package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/core/calibration"
	"github.com/example/pinpoint/internal/core/effects"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// CalibrationServiceImpl implements the CalibrationService interface.
type CalibrationServiceImpl struct {
	registry       *ProbeRegistry
	targets        secondary.TargetRepository
	link           secondary.ManipulatorLink
	converter      secondary.CoordinateConverter
	executor       EffectExecutor
	dialog         secondary.Dialog
	events         secondary.EventWriter
	errSink        secondary.ErrorSink
	metrics        secondary.MetricsRecorder
	automaticSpeed float64
	travel         models.Vector4
}

// NewCalibrationService creates a new CalibrationService with injected dependencies.
func NewCalibrationService(deps Deps) *CalibrationServiceImpl {
	speed := deps.AutomaticSpeed
	if speed <= 0 {
		speed = automation.DefaultAutomaticMovementSpeed
	}
	return &CalibrationServiceImpl{
		registry:       deps.Registry,
		targets:        deps.Targets,
		link:           deps.Link,
		converter:      deps.Converter,
		executor:       deps.Executor,
		dialog:         deps.Dialog,
		events:         deps.Events,
		errSink:        deps.Errors,
		metrics:        deps.Metrics,
		automaticSpeed: speed,
		travel:         deps.Travel,
	}
}

// ResetDuraOffset records the current tip as resting on the Dura.
func (s *CalibrationServiceImpl) ResetDuraOffset(ctx context.Context, probeID string) (bool, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	manipulatorID := sess.data.ManipulatorID
	busy := sess.inFlight
	sess.mu.Unlock()
	if busy {
		return false, ErrSequenceInProgress
	}

	pos, err := s.link.GetPosition(ctx, manipulatorID)
	if err != nil {
		te := &TransportError{Operation: "get_position", ManipulatorID: manipulatorID, Err: err}
		s.errSink.ReportError(ctx, probeID, te.Operation, te)
		s.metrics.IncTransportError(te.Operation)
		return false, te
	}

	skipMargin := false
	if check := calibration.CheckExitClearance(pos.W); !check.Allowed {
		ok, err := s.dialog.Confirm(ctx, fmt.Sprintf(
			"Probe %s: %s. The exit will not retract past the dura margin. Continue?", probeID, check.Reason))
		if err != nil {
			return false, fmt.Errorf("failed to confirm dura reset: %w", err)
		}
		if !ok {
			return false, nil
		}
		skipMargin = true
	}

	sess.mu.Lock()
	data := &sess.data
	if skipMargin {
		data.SkipExitMargin = true
	}
	data.Position = pos
	data.DuraDepth = pos.W
	data.BrainSurfaceOffset = s.converter.BrainSurfaceOffset(pos, data.Frame())
	data.DuraCoordinate = s.converter.ManipulatorToInsertion(pos, data.Frame())
	data.InvalidateTargetCache()
	if sess.manager.State() == automation.AtEntryCoordinate {
		if err := sess.manager.SetAtDuraInsert(); err != nil {
			sess.mu.Unlock()
			return false, err
		}
	}
	state := sess.manager.State()
	duraCoordinate := data.DuraCoordinate
	err = s.registry.save(ctx, sess)
	sess.mu.Unlock()
	if err != nil {
		return false, err
	}

	_ = s.events.RecordEvent(ctx, probeID, "calibration", "dura", string(state),
		fmt.Sprintf("dura depth %.4f mm at %s", pos.W, duraCoordinate))
	return true, nil
}

// GetOffsetAdjustedTargetCoordinate returns the coordinate the probe aims for.
func (s *CalibrationServiceImpl) GetOffsetAdjustedTargetCoordinate(ctx context.Context, probeID, targetID string) (models.Vector3, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return models.NaN3(), err
	}
	target, err := resolveTarget(ctx, s.targets, sess, targetID)
	if err != nil {
		return models.NaN3(), err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return offsetAdjustedTarget(s.converter, &sess.data, target.APMLDV), nil
}

// IsAPMLDVWithinManipulatorBounds reports whether the manipulator can reach apmldv.
func (s *CalibrationServiceImpl) IsAPMLDVWithinManipulatorBounds(ctx context.Context, probeID string, apmldv models.Vector3) (bool, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.withinBounds(&sess.data, apmldv), nil
}

// withinBounds is IsAPMLDVWithinManipulatorBounds with the lock held.
func (s *CalibrationServiceImpl) withinBounds(data *models.ManipulatorData, apmldv models.Vector3) bool {
	return calibration.WithinBounds(s.converter.InsertionToManipulator(apmldv, data.Frame()), s.travel)
}

// CheckTargetBounds gates the entry coordinate, then the final target, on
// manipulator reach. An accepted override is remembered for the probe.
func (s *CalibrationServiceImpl) CheckTargetBounds(ctx context.Context, probeID, targetID string) (bool, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return false, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, targetID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	if sess.data.AcknowledgedOutOfBounds {
		sess.mu.Unlock()
		return true, nil
	}
	entry := s.converter.EntryCoordinate(target)
	gates := []struct {
		name   string
		apmldv models.Vector3
		inside bool
	}{
		{"entry coordinate", entry, s.withinBounds(&sess.data, entry)},
		{"target", target.APMLDV, s.withinBounds(&sess.data, target.APMLDV)},
	}
	sess.mu.Unlock()

	for _, gate := range gates {
		if gate.inside {
			continue
		}
		ok, err := s.dialog.Confirm(ctx, fmt.Sprintf(
			"Probe %s: the %s %s is outside the manipulator's reach. Continue anyway?", probeID, gate.name, gate.apmldv))
		if err != nil {
			return false, fmt.Errorf("failed to confirm bounds override: %w", err)
		}
		if !ok {
			return false, nil
		}

		sess.mu.Lock()
		sess.data.AcknowledgedOutOfBounds = true
		err = s.registry.save(ctx, sess)
		sess.mu.Unlock()
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// DriveToTargetEntryCoordinate moves a calibrated probe to the target's
// entry coordinate in three legs.
func (s *CalibrationServiceImpl) DriveToTargetEntryCoordinate(ctx context.Context, probeID, targetID string) (bool, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return false, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, targetID)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	calibrated := sess.manager.IsCalibrated()
	pitch := sess.data.Angles.Pitch
	sess.mu.Unlock()
	if !calibrated {
		return false, fmt.Errorf("probe %s: %w", probeID, ErrNotCalibrated)
	}
	if !calibration.IsPitchValid(pitch) {
		return false, fmt.Errorf("probe %s pitch %.2f: %w", probeID, pitch, ErrPitchTooShallow)
	}

	ok, err := s.CheckTargetBounds(ctx, probeID, targetID)
	if err != nil || !ok {
		return false, err
	}

	sess.mu.Lock()
	seqCtx, err := s.registry.beginSequence(ctx, sess)
	if err != nil {
		sess.mu.Unlock()
		return false, err
	}
	if err := sess.manager.SetDrivingToTargetEntryCoordinate(); err != nil {
		s.registry.endSequence(sess)
		sess.mu.Unlock()
		return false, err
	}
	manipulatorID := sess.data.ManipulatorID
	sess.data.EntryCoordinate = s.converter.EntryCoordinate(target)
	sess.data.Moving = true
	if err := s.registry.save(ctx, sess); err != nil {
		s.registry.endSequence(sess)
		sess.mu.Unlock()
		return false, err
	}
	sess.mu.Unlock()
	s.metrics.SetMoving(probeID, true)

	bg := context.WithoutCancel(ctx)
	pos, err := s.link.GetPosition(seqCtx, manipulatorID)
	if err != nil {
		return false, s.failEntry(bg, seqCtx, sess, &TransportError{Operation: "get_position", ManipulatorID: manipulatorID, Err: err})
	}

	sess.mu.Lock()
	sess.data.Position = pos
	frame := sess.data.Frame()
	waypoints := calibration.EntryTrajectory(probeTip(s.converter, &sess.data), sess.data.EntryCoordinate)
	sess.mu.Unlock()

	for _, wp := range waypoints {
		eff := effects.SetPositionEffect{
			ManipulatorID: manipulatorID,
			Position:      s.converter.InsertionToManipulator(wp, frame),
			Speed:         s.automaticSpeed,
		}
		pos, err := s.executor.Execute(seqCtx, eff)
		if err != nil {
			return false, s.failEntry(bg, seqCtx, sess, err)
		}
		sess.mu.Lock()
		sess.data.Position = sess.data.Position.Merge(pos)
		sess.mu.Unlock()
		if seqCtx.Err() != nil {
			return false, s.failEntry(bg, seqCtx, sess, seqCtx.Err())
		}
	}

	sess.mu.Lock()
	if err := sess.manager.SetAtEntryCoordinate(); err != nil {
		stopped := seqCtx.Err() != nil
		sess.data.Moving = false
		s.registry.endSequence(sess)
		saveErr := s.registry.save(bg, sess)
		sess.mu.Unlock()

		s.metrics.SetMoving(probeID, false)
		if stopped {
			return false, saveErr
		}
		return false, err
	}
	sess.data.Moving = false
	s.registry.endSequence(sess)
	err = s.registry.save(bg, sess)
	sess.mu.Unlock()

	s.metrics.SetMoving(probeID, false)
	_ = s.events.RecordEvent(bg, probeID, "step", "entry", string(automation.AtEntryCoordinate),
		fmt.Sprintf("reached entry coordinate %s", waypoints[len(waypoints)-1]))
	if err != nil {
		return false, err
	}
	return true, nil
}

// failEntry releases the probe after a failed entry leg. A leg interrupted
// by StopDriveToTargetEntryCoordinate is not an error.
func (s *CalibrationServiceImpl) failEntry(ctx, seqCtx context.Context, sess *probeSession, err error) error {
	sess.mu.Lock()
	stopped := seqCtx.Err() != nil
	s.registry.endSequence(sess)
	saveErr := s.registry.save(ctx, sess)
	sess.mu.Unlock()

	if stopped {
		return saveErr
	}
	var te *TransportError
	if errors.As(err, &te) {
		s.errSink.ReportError(ctx, sess.id, te.Operation, te)
		s.metrics.IncTransportError(te.Operation)
	}
	return err
}

// StopDriveToTargetEntryCoordinate halts the entry drive and returns the
// probe to IsCalibrated.
func (s *CalibrationServiceImpl) StopDriveToTargetEntryCoordinate(ctx context.Context, probeID string) error {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return err
	}
	s.registry.cancelSequence(sess)

	sess.mu.Lock()
	manipulatorID := sess.data.ManipulatorID
	sess.mu.Unlock()

	if err := s.link.Stop(ctx, manipulatorID); err != nil {
		te := &TransportError{Operation: "stop", ManipulatorID: manipulatorID, Err: err}
		s.errSink.ReportError(ctx, probeID, te.Operation, te)
		s.metrics.IncTransportError(te.Operation)
		return te
	}

	sess.mu.Lock()
	if sess.manager.State() == automation.DrivingToTargetEntryCoordinate {
		sess.manager.SetCalibrated()
	}
	sess.data.Moving = false
	state := sess.manager.State()
	err = s.registry.save(ctx, sess)
	sess.mu.Unlock()

	s.metrics.SetMoving(probeID, false)
	_ = s.events.RecordEvent(ctx, probeID, "stop", "entry", string(state), "entry drive stopped")
	return err
}

// SetReferenceCoordinateOffset sets the manipulator zero coordinate.
func (s *CalibrationServiceImpl) SetReferenceCoordinateOffset(ctx context.Context, probeID string, offset models.Vector4) error {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.data.ReferenceOffset = sess.data.ReferenceOffset.Merge(offset)
	sess.data.InvalidateTargetCache()
	return s.registry.save(ctx, sess)
}

var _ primary.CalibrationService = (*CalibrationServiceImpl)(nil)

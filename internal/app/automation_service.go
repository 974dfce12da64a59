package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/core/effects"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// AutomationServiceImpl implements the AutomationService interface.
type AutomationServiceImpl struct {
	registry       *ProbeRegistry
	targets        secondary.TargetRepository
	link           secondary.ManipulatorLink
	converter      secondary.CoordinateConverter
	executor       EffectExecutor
	events         secondary.EventWriter
	errSink        secondary.ErrorSink
	metrics        secondary.MetricsRecorder
	automaticSpeed float64
}

// NewAutomationService creates a new AutomationService with injected dependencies.
func NewAutomationService(deps Deps) *AutomationServiceImpl {
	speed := deps.AutomaticSpeed
	if speed <= 0 {
		speed = automation.DefaultAutomaticMovementSpeed
	}
	return &AutomationServiceImpl{
		registry:       deps.Registry,
		targets:        deps.Targets,
		link:           deps.Link,
		converter:      deps.Converter,
		executor:       deps.Executor,
		events:         deps.Events,
		errSink:        deps.Errors,
		metrics:        deps.Metrics,
		automaticSpeed: speed,
	}
}

// sequence describes one phase of the insertion cycle for runSequence.
type sequence struct {
	phase string

	// enter moves the state machine into the phase's next motion state.
	enter func(m *automation.StateManager) error

	// plan returns the command for the current motion state. Called with
	// the session lock held.
	plan func(sess *probeSession) (effects.Effect, error)

	// done reports whether the state ends the phase.
	done func(s automation.State) bool

	// finish runs once when done first reports true. Called with the
	// session lock held.
	finish func(sess *probeSession)

	observer primary.StepObserver
}

// Drive runs the insertion sequence until the probe reaches the target.
func (s *AutomationServiceImpl) Drive(ctx context.Context, req primary.DriveRequest) (*primary.SequenceResult, error) {
	sess, err := s.registry.get(ctx, req.ProbeID)
	if err != nil {
		return nil, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, req.TargetID)
	if err != nil {
		return nil, err
	}

	seq := sequence{
		phase: "drive",
		enter: (*automation.StateManager).SetToInsertionDrivingState,
		plan: func(sess *probeSession) (effects.Effect, error) {
			depth, distance := targetDepth(s.converter, &sess.data, target.APMLDV)
			return automation.PlanDriveStep(automation.DriveStepInput{
				State:             sess.manager.State(),
				ManipulatorID:     sess.data.ManipulatorID,
				TargetDepth:       depth,
				DistanceToTarget:  distance,
				BaseSpeed:         req.BaseSpeed,
				DrivePastDistance: req.DrivePastDistance,
			})
		},
		done:     automation.IsDriveComplete,
		finish:   func(*probeSession) {},
		observer: req.Observer,
	}
	return s.start(ctx, sess, seq, (*automation.StateManager).IsInsertable, automation.CanSetInsertionDriving)
}

// Exit runs the exit sequence until the probe is back at its entry coordinate.
func (s *AutomationServiceImpl) Exit(ctx context.Context, req primary.ExitRequest) (*primary.SequenceResult, error) {
	sess, err := s.registry.get(ctx, req.ProbeID)
	if err != nil {
		return nil, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, req.TargetID)
	if err != nil {
		return nil, err
	}

	seq := sequence{
		phase: "exit",
		enter: (*automation.StateManager).SetToExitingDrivingState,
		plan: func(sess *probeSession) (effects.Effect, error) {
			depth, distance := targetDepth(s.converter, &sess.data, target.APMLDV)
			if sess.data.EntryCoordinate.IsNaN() {
				sess.data.EntryCoordinate = s.converter.EntryCoordinate(target)
			}
			return automation.PlanExitStep(automation.ExitStepInput{
				State:            sess.manager.State(),
				ManipulatorID:    sess.data.ManipulatorID,
				TargetDepth:      depth,
				DuraDepth:        sess.data.DuraDepth,
				DistanceToTarget: distance,
				BaseSpeed:        req.BaseSpeed,
				SkipExitMargin:   sess.data.SkipExitMargin,
				EntryPosition:    s.converter.InsertionToManipulator(sess.data.EntryCoordinate, sess.data.Frame()),
				AutomaticSpeed:   s.automaticSpeed,
			})
		},
		done: automation.IsExitComplete,
		finish: func(sess *probeSession) {
			sess.data.BrainSurfaceOffset = 0
		},
		observer: req.Observer,
	}
	return s.start(ctx, sess, seq, (*automation.StateManager).IsExitable, automation.CanSetExitingDriving)
}

// start checks the phase precondition, claims the probe and runs seq.
func (s *AutomationServiceImpl) start(
	ctx context.Context,
	sess *probeSession,
	seq sequence,
	ready func(*automation.StateManager) bool,
	guard func(automation.State) automation.GuardResult,
) (*primary.SequenceResult, error) {
	sess.mu.Lock()
	if !ready(sess.manager) {
		state := sess.manager.State()
		sess.mu.Unlock()
		return nil, &automation.InvalidOperationError{Action: seq.phase, State: state, Reason: guard(state).Reason}
	}
	seqCtx, err := s.registry.beginSequence(ctx, sess)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.data.Moving = true
	if err := s.registry.save(ctx, sess); err != nil {
		sess.data.Moving = false
		s.registry.endSequence(sess)
		sess.mu.Unlock()
		return nil, err
	}
	sess.mu.Unlock()

	s.metrics.SetMoving(sess.id, true)
	return s.runSequence(ctx, seqCtx, sess, seq)
}

// runSequence issues one command per step until the phase completes, a
// step fails, or the sequence is stopped.
func (s *AutomationServiceImpl) runSequence(ctx, seqCtx context.Context, sess *probeSession, seq sequence) (*primary.SequenceResult, error) {
	// Bookkeeping must land even when the caller's context is cancelled.
	bg := context.WithoutCancel(ctx)
	result := &primary.SequenceResult{ProbeID: sess.id}

	for {
		sess.mu.Lock()
		manipulatorID := sess.data.ManipulatorID
		sess.mu.Unlock()

		pos, err := s.link.GetPosition(seqCtx, manipulatorID)
		if err != nil {
			return s.failStep(bg, seqCtx, sess, result, &TransportError{Operation: "get_position", ManipulatorID: manipulatorID, Err: err})
		}

		sess.mu.Lock()
		sess.data.Position = pos
		if err := seq.enter(sess.manager); err != nil {
			return s.abortSequence(bg, sess, result, err)
		}
		eff, err := seq.plan(sess)
		if err != nil {
			return s.abortSequence(bg, sess, result, err)
		}
		motion := sess.manager.State()
		if err := s.registry.save(bg, sess); err != nil {
			return s.abortSequence(bg, sess, result, err)
		}
		sess.mu.Unlock()

		started := time.Now()
		pos, err = s.executor.Execute(seqCtx, eff)
		if err != nil {
			return s.failStep(bg, seqCtx, sess, result, err)
		}

		sess.mu.Lock()
		sess.data.Position = sess.data.Position.Merge(pos)
		if err := sess.manager.IncrementInsertionCycleState(); err != nil {
			return s.abortSequence(bg, sess, result, err)
		}
		landed := sess.manager.State()
		completed := seq.done(landed)
		stopped := seqCtx.Err() != nil
		if completed {
			seq.finish(sess)
		}
		if completed || stopped {
			sess.data.Moving = false
			s.registry.endSequence(sess)
		}
		saveErr := s.registry.save(bg, sess)
		result.Steps++
		result.FinalState = string(landed)
		result.Moving = sess.data.Moving
		result.Completed = completed
		sess.mu.Unlock()

		s.metrics.ObserveStep(seq.phase, string(landed), time.Since(started))
		_ = s.events.RecordEvent(bg, sess.id, "step", seq.phase, string(landed),
			fmt.Sprintf("%s -> %s (%s)", motion, landed, describeEffect(eff)))
		if seq.observer != nil {
			seq.observer(primary.StepReport{
				ProbeID:   sess.id,
				Phase:     seq.phase,
				FromState: string(motion),
				ToState:   string(landed),
				Command:   eff.EffectType(),
			})
		}

		if saveErr != nil {
			return result, saveErr
		}
		if completed || stopped {
			s.metrics.SetMoving(sess.id, false)
			return result, nil
		}
	}
}

// failStep ends the sequence after a failed link call. The state and the
// moving flag stay where they were so the caller can resume or stop. A
// failure caused by Stop is not reported.
func (s *AutomationServiceImpl) failStep(ctx, seqCtx context.Context, sess *probeSession, result *primary.SequenceResult, err error) (*primary.SequenceResult, error) {
	sess.mu.Lock()
	stopped := seqCtx.Err() != nil
	if stopped {
		sess.data.Moving = false
	}
	s.registry.endSequence(sess)
	saveErr := s.registry.save(ctx, sess)
	result.FinalState = string(sess.manager.State())
	result.Moving = sess.data.Moving
	sess.mu.Unlock()

	if stopped {
		s.metrics.SetMoving(sess.id, false)
		return result, saveErr
	}

	var te *TransportError
	if !errors.As(err, &te) {
		return result, err
	}
	s.errSink.ReportError(ctx, sess.id, te.Operation, te)
	s.metrics.IncTransportError(te.Operation)
	return result, te
}

// abortSequence ends the sequence after a contract violation. Callers hold
// the session lock; it is released here.
func (s *AutomationServiceImpl) abortSequence(ctx context.Context, sess *probeSession, result *primary.SequenceResult, err error) (*primary.SequenceResult, error) {
	sess.data.Moving = false
	s.registry.endSequence(sess)
	_ = s.registry.save(ctx, sess)
	result.FinalState = string(sess.manager.State())
	result.Moving = false
	sess.mu.Unlock()

	s.metrics.SetMoving(sess.id, false)
	return result, err
}

// Stop halts the manipulator and cancels the running sequence.
func (s *AutomationServiceImpl) Stop(ctx context.Context, probeID string) error {
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
	sess.data.Moving = false
	state := sess.manager.State()
	err = s.registry.save(ctx, sess)
	sess.mu.Unlock()

	s.metrics.SetMoving(probeID, false)
	_ = s.events.RecordEvent(ctx, probeID, "stop", "automation", string(state), "manipulator stopped")
	return err
}

// SetCalibrated anchors the probe at IsCalibrated.
func (s *AutomationServiceImpl) SetCalibrated(ctx context.Context, probeID string) error {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.inFlight {
		sess.mu.Unlock()
		return ErrSequenceInProgress
	}
	sess.manager.SetCalibrated()
	err = s.registry.save(ctx, sess)
	sess.mu.Unlock()
	if err != nil {
		return err
	}

	_ = s.events.RecordEvent(ctx, probeID, "calibration", "calibration", string(automation.IsCalibrated), "probe calibrated")
	return nil
}

// ETA estimates the remaining insertion time from the current position.
func (s *AutomationServiceImpl) ETA(ctx context.Context, req primary.ETARequest) (time.Duration, error) {
	sess, err := s.registry.get(ctx, req.ProbeID)
	if err != nil {
		return 0, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, req.TargetID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	manipulatorID := sess.data.ManipulatorID
	sess.mu.Unlock()

	pos, err := s.link.GetPosition(ctx, manipulatorID)
	if err != nil {
		return 0, &TransportError{Operation: "get_position", ManipulatorID: manipulatorID, Err: err}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.data.Position = pos
	depth, _ := targetDepth(s.converter, &sess.data, target.APMLDV)
	return automation.EstimateDriveDuration(automation.ETAInput{
		State:             sess.manager.State(),
		CurrentDepth:      pos.W,
		TargetDepth:       depth,
		BaseSpeed:         req.BaseSpeed,
		DrivePastDistance: req.DrivePastDistance,
	}), nil
}

func describeEffect(eff effects.Effect) string {
	switch typed := eff.(type) {
	case effects.SetDepthEffect:
		return fmt.Sprintf("depth %.4f mm @ %.4f mm/s", typed.Depth, typed.Speed)
	case effects.SetPositionEffect:
		return fmt.Sprintf("position %s @ %.4f mm/s", typed.Position, typed.Speed)
	case effects.SkipEffect:
		return "skipped: " + typed.Reason
	default:
		return eff.EffectType()
	}
}

var _ primary.AutomationService = (*AutomationServiceImpl)(nil)

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/pinpoint/internal/core/drivepanel"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// DrivePanelServiceImpl implements the DrivePanelService interface.
type DrivePanelServiceImpl struct {
	registry  *ProbeRegistry
	panels    secondary.DrivePanelRepository
	targets   secondary.TargetRepository
	link      secondary.ManipulatorLink
	converter secondary.CoordinateConverter
	executor  EffectExecutor
	events    secondary.EventWriter
	errSink   secondary.ErrorSink
	metrics   secondary.MetricsRecorder
}

// NewDrivePanelService creates a new DrivePanelService with injected dependencies.
func NewDrivePanelService(deps Deps, panels secondary.DrivePanelRepository) *DrivePanelServiceImpl {
	return &DrivePanelServiceImpl{
		registry:  deps.Registry,
		panels:    panels,
		targets:   deps.Targets,
		link:      deps.Link,
		converter: deps.Converter,
		executor:  deps.Executor,
		events:    deps.Events,
		errSink:   deps.Errors,
		metrics:   deps.Metrics,
	}
}

// panel is a loaded drive panel with its settings.
type panel struct {
	manager           *drivepanel.Manager
	baseSpeed         float64
	drivePastDistance float64
	steps             int
}

func (s *DrivePanelServiceImpl) load(ctx context.Context, probeID string) (*panel, error) {
	report := func(err error) {
		s.errSink.ReportError(ctx, probeID, "panel", err)
	}

	rec, err := s.panels.Get(ctx, probeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &panel{
			manager:           drivepanel.NewManager(report),
			baseSpeed:         drivepanel.DefaultBaseSpeed,
			drivePastDistance: drivepanel.DefaultDrivePastDistance,
		}, nil
	}

	state, err := drivepanel.ParseDriveState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("failed to restore drive panel of probe %s: %w", probeID, err)
	}
	return &panel{
		manager:           drivepanel.RestoreManager(state, report),
		baseSpeed:         rec.BaseSpeed,
		drivePastDistance: rec.DrivePastDistance,
	}, nil
}

func (s *DrivePanelServiceImpl) save(ctx context.Context, probeID string, p *panel) error {
	return s.panels.Save(ctx, &secondary.DrivePanelRecord{
		ProbeID:           probeID,
		State:             string(p.manager.State()),
		BaseSpeed:         p.baseSpeed,
		DrivePastDistance: p.drivePastDistance,
	})
}

func (p *panel) status(probeID string) *primary.PanelStatus {
	state := p.manager.State()
	return &primary.PanelStatus{
		ProbeID:           probeID,
		State:             string(state),
		BaseSpeed:         p.baseSpeed,
		DrivePastDistance: p.drivePastDistance,
		CanDrive:          drivepanel.CanDrive(state),
		Steps:             p.steps,
	}
}

func (p *panel) apply(req primary.PanelRequest) {
	if req.BaseSpeed > 0 {
		p.baseSpeed = req.BaseSpeed
	}
	if req.DrivePastDistance > 0 {
		p.drivePastDistance = req.DrivePastDistance
	}
}

// panelMotion describes one direction of panel travel for run.
type panelMotion struct {
	phase     string
	increment func(m *drivepanel.Manager)
	done      func(s drivepanel.DriveState) bool
}

// Drive steps the panel deeper until the target is reached.
func (s *DrivePanelServiceImpl) Drive(ctx context.Context, req primary.PanelRequest) (*primary.PanelStatus, error) {
	return s.run(ctx, req, panelMotion{
		phase:     "drive",
		increment: (*drivepanel.Manager).DriveIncrement,
		done:      drivepanel.IsDriveDone,
	})
}

// Exit steps the panel shallower until the probe is outside the brain.
func (s *DrivePanelServiceImpl) Exit(ctx context.Context, req primary.PanelRequest) (*primary.PanelStatus, error) {
	return s.run(ctx, req, panelMotion{
		phase:     "exit",
		increment: (*drivepanel.Manager).ExitIncrement,
		done:      drivepanel.IsExitDone,
	})
}

func (s *DrivePanelServiceImpl) run(ctx context.Context, req primary.PanelRequest, motion panelMotion) (*primary.PanelStatus, error) {
	sess, err := s.registry.get(ctx, req.ProbeID)
	if err != nil {
		return nil, err
	}
	target, err := resolveTarget(ctx, s.targets, sess, req.TargetID)
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, req.ProbeID)
	if err != nil {
		return nil, err
	}
	p.apply(req)

	sess.mu.Lock()
	if sess.data.DuraCoordinate.IsNaN() {
		sess.mu.Unlock()
		return nil, fmt.Errorf("probe %s: %w", req.ProbeID, ErrNotCalibrated)
	}
	seqCtx, err := s.registry.beginSequence(ctx, sess)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	manipulatorID := sess.data.ManipulatorID
	geometry := drivepanel.Geometry{
		DuraDepth:           sess.data.DuraDepth,
		TargetDriveDistance: target.APMLDV.Distance(sess.data.DuraCoordinate),
		DrivePastDistance:   p.drivePastDistance,
	}
	outside := outsidePosition(s.converter, sess.data)
	sess.data.Moving = true
	sess.mu.Unlock()

	s.metrics.SetMoving(req.ProbeID, true)
	bg := context.WithoutCancel(ctx)
	speeds := drivepanel.ComputeSpeeds(p.baseSpeed, geometry.TargetDriveDistance)

	finish := func(runErr error) (*primary.PanelStatus, error) {
		sess.mu.Lock()
		stopped := seqCtx.Err() != nil
		if runErr == nil || stopped {
			sess.data.Moving = false
		}
		moving := sess.data.Moving
		s.registry.endSequence(sess)
		saveErr := s.registry.save(bg, sess)
		sess.mu.Unlock()

		if !moving {
			s.metrics.SetMoving(req.ProbeID, false)
		}
		if err := s.save(bg, req.ProbeID, p); err != nil {
			return p.status(req.ProbeID), err
		}
		if stopped {
			return p.status(req.ProbeID), saveErr
		}
		var te *TransportError
		if errors.As(runErr, &te) {
			s.errSink.ReportError(bg, req.ProbeID, te.Operation, te)
			s.metrics.IncTransportError(te.Operation)
		}
		if runErr != nil {
			return p.status(req.ProbeID), runErr
		}
		return p.status(req.ProbeID), saveErr
	}

	for !motion.done(p.manager.State()) {
		pos, err := s.link.GetPosition(seqCtx, manipulatorID)
		if err != nil {
			return finish(&TransportError{Operation: "get_position", ManipulatorID: manipulatorID, Err: err})
		}

		before := p.manager.State()
		motion.increment(p.manager)
		state := p.manager.State()
		if !drivepanel.IsMoving(state) {
			// The increment was refused and already reported.
			return finish(nil)
		}

		eff, ok := drivepanel.PlanStep(drivepanel.StepInput{
			State:           state,
			ManipulatorID:   manipulatorID,
			Position:        pos,
			OutsidePosition: outside,
			Geometry:        geometry,
			Speeds:          speeds,
		})
		if !ok {
			s.errSink.ReportError(bg, req.ProbeID, "panel", fmt.Errorf("invalid drive state %s", state))
			return finish(nil)
		}
		if state == drivepanel.ExitingToOutside {
			sess.mu.Lock()
			sess.data.BrainSurfaceOffset = 0
			sess.mu.Unlock()
		}

		started := time.Now()
		landed, err := s.executor.Execute(seqCtx, eff)
		if err != nil {
			return finish(err)
		}
		p.manager.CompleteMovement()
		p.steps++

		sess.mu.Lock()
		sess.data.Position = pos.Merge(landed)
		sess.mu.Unlock()
		if err := s.save(bg, req.ProbeID, p); err != nil {
			return finish(err)
		}

		s.metrics.ObserveStep("panel_"+motion.phase, string(p.manager.State()), time.Since(started))
		_ = s.events.RecordEvent(bg, req.ProbeID, "step", "panel", string(p.manager.State()),
			fmt.Sprintf("%s: %s -> %s (%s)", motion.phase, before, p.manager.State(), describeEffect(eff)))

		if seqCtx.Err() != nil {
			return finish(nil)
		}
	}
	return finish(nil)
}

// Stop halts the manipulator. The panel state is left where the last
// completed movement put it.
func (s *DrivePanelServiceImpl) Stop(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, probeID)
	if err != nil {
		return nil, err
	}
	s.registry.cancelSequence(sess)

	sess.mu.Lock()
	manipulatorID := sess.data.ManipulatorID
	sess.mu.Unlock()

	if err := s.link.Stop(ctx, manipulatorID); err != nil {
		te := &TransportError{Operation: "stop", ManipulatorID: manipulatorID, Err: err}
		s.errSink.ReportError(ctx, probeID, te.Operation, te)
		s.metrics.IncTransportError(te.Operation)
		return p.status(probeID), te
	}

	sess.mu.Lock()
	sess.data.Moving = false
	err = s.registry.save(ctx, sess)
	sess.mu.Unlock()

	s.metrics.SetMoving(probeID, false)
	_ = s.events.RecordEvent(ctx, probeID, "stop", "panel", string(p.manager.State()), "manipulator stopped")
	return p.status(probeID), err
}

// ResetToDura anchors the panel at the Dura.
func (s *DrivePanelServiceImpl) ResetToDura(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	if _, err := s.registry.get(ctx, probeID); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, probeID)
	if err != nil {
		return nil, err
	}
	p.manager.ResetToDura()
	if err := s.save(ctx, probeID, p); err != nil {
		return nil, err
	}
	_ = s.events.RecordEvent(ctx, probeID, "calibration", "panel", string(p.manager.State()), "panel reset to dura")
	return p.status(probeID), nil
}

// Status returns the panel of a probe.
func (s *DrivePanelServiceImpl) Status(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	if _, err := s.registry.get(ctx, probeID); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, probeID)
	if err != nil {
		return nil, err
	}
	return p.status(probeID), nil
}

// outsidePosition is the manipulator position OutsideDistance above the Dura.
func outsidePosition(conv secondary.CoordinateConverter, data models.ManipulatorData) models.Vector4 {
	above := data.DuraCoordinate
	above.Z -= drivepanel.OutsideDistance
	return conv.InsertionToManipulator(above, data.Frame())
}

var _ primary.DrivePanelService = (*DrivePanelServiceImpl)(nil)

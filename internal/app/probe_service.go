package app

import (
	"context"
	"fmt"

	"github.com/example/pinpoint/internal/core/calibration"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// ProbeServiceImpl implements the ProbeService interface.
type ProbeServiceImpl struct {
	registry *ProbeRegistry
	probes   secondary.ProbeRepository
	targets  secondary.TargetRepository
	events   secondary.EventWriter
}

// NewProbeService creates a new ProbeService with injected dependencies.
func NewProbeService(registry *ProbeRegistry, probes secondary.ProbeRepository, targets secondary.TargetRepository, events secondary.EventWriter) *ProbeServiceImpl {
	return &ProbeServiceImpl{
		registry: registry,
		probes:   probes,
		targets:  targets,
		events:   events,
	}
}

// RegisterProbe attaches a probe to a manipulator.
func (s *ProbeServiceImpl) RegisterProbe(ctx context.Context, req primary.RegisterProbeRequest) (*primary.RegisterProbeResponse, error) {
	if req.ManipulatorID == "" {
		return nil, fmt.Errorf("manipulator ID is required")
	}
	name := req.Name
	if name == "" {
		name = "probe on manipulator " + req.ManipulatorID
	}

	data := models.NewManipulatorData(req.ManipulatorID)
	data.Angles = req.Angles
	data.RightHanded = req.RightHanded

	sess, err := s.registry.register(ctx, name, data)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	probe := sessionToProbe(sess)
	sess.mu.Unlock()

	_ = s.events.RecordEvent(ctx, probe.ID, "calibration", "registry", probe.State,
		fmt.Sprintf("attached to manipulator %s", req.ManipulatorID))
	return &primary.RegisterProbeResponse{ProbeID: probe.ID, Probe: probe}, nil
}

// UnregisterProbe detaches a probe.
func (s *ProbeServiceImpl) UnregisterProbe(ctx context.Context, probeID string) error {
	return s.registry.unregister(ctx, probeID)
}

// GetProbe retrieves a probe by ID.
func (s *ProbeServiceImpl) GetProbe(ctx context.Context, probeID string) (*primary.Probe, error) {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sessionToProbe(sess), nil
}

// ListProbes lists registered probes.
func (s *ProbeServiceImpl) ListProbes(ctx context.Context) ([]*primary.Probe, error) {
	sessions, err := s.registry.list(ctx)
	if err != nil {
		return nil, err
	}
	probes := make([]*primary.Probe, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		probes = append(probes, sessionToProbe(sess))
		sess.mu.Unlock()
	}
	return probes, nil
}

// SetProbeAngles records the angles of the probe.
func (s *ProbeServiceImpl) SetProbeAngles(ctx context.Context, probeID string, angles models.Angles) error {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return ErrSequenceInProgress
	}
	sess.data.Angles = angles
	sess.data.InvalidateTargetCache()
	return s.registry.save(ctx, sess)
}

// CreateTarget plans a target insertion.
func (s *ProbeServiceImpl) CreateTarget(ctx context.Context, req primary.CreateTargetRequest) (*primary.Target, error) {
	if req.Insertion.APMLDV.IsNaN() {
		return nil, fmt.Errorf("target coordinate must be set")
	}

	id, err := s.targets.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate target ID: %w", err)
	}

	rec := &secondary.TargetRecord{
		ID:    id,
		Name:  req.Name,
		AP:    req.Insertion.APMLDV.X,
		ML:    req.Insertion.APMLDV.Y,
		DV:    req.Insertion.APMLDV.Z,
		Yaw:   req.Insertion.Angles.Yaw,
		Pitch: req.Insertion.Angles.Pitch,
		Roll:  req.Insertion.Angles.Roll,
	}
	if err := s.targets.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}
	return s.GetTarget(ctx, id)
}

// GetTarget retrieves a target by ID.
func (s *ProbeServiceImpl) GetTarget(ctx context.Context, targetID string) (*primary.Target, error) {
	rec, err := s.targets.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return recordToTarget(rec), nil
}

// ListTargets lists planned targets.
func (s *ProbeServiceImpl) ListTargets(ctx context.Context) ([]*primary.Target, error) {
	recs, err := s.targets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	targets := make([]*primary.Target, len(recs))
	for i, rec := range recs {
		targets[i] = recordToTarget(rec)
	}
	return targets, nil
}

// DeleteTarget removes a target and clears it from every probe aiming at it.
func (s *ProbeServiceImpl) DeleteTarget(ctx context.Context, targetID string) error {
	if _, err := s.targets.GetByID(ctx, targetID); err != nil {
		return err
	}

	sessions, err := s.registry.list(ctx)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.targetID == targetID {
			if sess.inFlight {
				sess.mu.Unlock()
				return fmt.Errorf("target %s is in use by probe %s: %w", targetID, sess.id, ErrSequenceInProgress)
			}
			sess.targetID = ""
			sess.data.InvalidateTargetCache()
			sess.data.EntryCoordinate = models.NaN3()
			if err := s.registry.save(ctx, sess); err != nil {
				sess.mu.Unlock()
				return err
			}
		}
		sess.mu.Unlock()
	}

	if err := s.targets.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}
	return nil
}

// SelectTarget aims a probe at a target with coterminal angles.
func (s *ProbeServiceImpl) SelectTarget(ctx context.Context, probeID, targetID string) error {
	sess, err := s.registry.get(ctx, probeID)
	if err != nil {
		return err
	}
	rec, err := s.targets.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	target := insertionFromRecord(rec)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return ErrSequenceInProgress
	}
	if !calibration.AnglesCoterminal(sess.data.Angles, target.Angles) {
		return fmt.Errorf("probe %s angles (%.2f, %.2f, %.2f) do not match target %s angles (%.2f, %.2f, %.2f)",
			probeID, sess.data.Angles.Yaw, sess.data.Angles.Pitch, sess.data.Angles.Roll,
			targetID, target.Angles.Yaw, target.Angles.Pitch, target.Angles.Roll)
	}
	if sess.targetID != targetID {
		sess.data.InvalidateTargetCache()
		sess.data.EntryCoordinate = models.NaN3()
		sess.data.AcknowledgedOutOfBounds = false
	}
	sess.targetID = targetID
	return s.registry.save(ctx, sess)
}

// Helper functions

// sessionToProbe converts a session to a port DTO. Callers hold sess.mu.
func sessionToProbe(sess *probeSession) *primary.Probe {
	return &primary.Probe{
		ID:                 sess.id,
		Name:               sess.name,
		ManipulatorID:      sess.data.ManipulatorID,
		State:              string(sess.manager.State()),
		TargetID:           sess.targetID,
		Moving:             sess.data.Moving,
		Calibrated:         sess.manager.IsCalibrated(),
		Insertable:         sess.manager.IsInsertable(),
		Exitable:           sess.manager.IsExitable(),
		Angles:             sess.data.Angles,
		Position:           sess.data.Position,
		DuraDepth:          sess.data.DuraDepth,
		DuraCoordinate:     sess.data.DuraCoordinate,
		EntryCoordinate:    sess.data.EntryCoordinate,
		BrainSurfaceOffset: sess.data.BrainSurfaceOffset,
		CreatedAt:          sess.createdAt,
		UpdatedAt:          sess.updatedAt,
	}
}

func recordToTarget(rec *secondary.TargetRecord) *primary.Target {
	return &primary.Target{
		ID:        rec.ID,
		Name:      rec.Name,
		Insertion: insertionFromRecord(rec),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

var _ primary.ProbeService = (*ProbeServiceImpl)(nil)

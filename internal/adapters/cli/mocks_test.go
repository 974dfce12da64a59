package cli

import (
	"context"
	"errors"
	"time"

	"github.com/fatih/color"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

var errNotImplemented = errors.New("not implemented in adapter")

// mockProbeService implements primary.ProbeService for testing
type mockProbeService struct {
	probes  []*primary.Probe
	targets []*primary.Target
	err     error

	lastRegister primary.RegisterProbeRequest
	lastAngles   models.Angles
	lastSelect   [2]string
}

func (m *mockProbeService) RegisterProbe(ctx context.Context, req primary.RegisterProbeRequest) (*primary.RegisterProbeResponse, error) {
	m.lastRegister = req
	if m.err != nil {
		return nil, m.err
	}
	return &primary.RegisterProbeResponse{
		ProbeID: "PROBE-001",
		Probe:   &primary.Probe{ID: "PROBE-001", ManipulatorID: req.ManipulatorID},
	}, nil
}

func (m *mockProbeService) UnregisterProbe(ctx context.Context, probeID string) error {
	return m.err
}

func (m *mockProbeService) GetProbe(ctx context.Context, probeID string) (*primary.Probe, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.probes {
		if p.ID == probeID {
			return p, nil
		}
	}
	return nil, errors.New("probe " + probeID + " not found")
}

func (m *mockProbeService) ListProbes(ctx context.Context) ([]*primary.Probe, error) {
	return m.probes, m.err
}

func (m *mockProbeService) SetProbeAngles(ctx context.Context, probeID string, angles models.Angles) error {
	m.lastAngles = angles
	return m.err
}

func (m *mockProbeService) CreateTarget(ctx context.Context, req primary.CreateTargetRequest) (*primary.Target, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &primary.Target{ID: "TGT-001", Name: req.Name, Insertion: req.Insertion}, nil
}

func (m *mockProbeService) GetTarget(ctx context.Context, targetID string) (*primary.Target, error) {
	for _, t := range m.targets {
		if t.ID == targetID {
			return t, nil
		}
	}
	return nil, errors.New("target " + targetID + " not found")
}

func (m *mockProbeService) ListTargets(ctx context.Context) ([]*primary.Target, error) {
	return m.targets, m.err
}

func (m *mockProbeService) DeleteTarget(ctx context.Context, targetID string) error {
	return m.err
}

func (m *mockProbeService) SelectTarget(ctx context.Context, probeID, targetID string) error {
	m.lastSelect = [2]string{probeID, targetID}
	return m.err
}

// mockAutomationService implements primary.AutomationService for testing
type mockAutomationService struct {
	steps  []primary.StepReport
	result *primary.SequenceResult
	eta    time.Duration
	err    error
}

func (m *mockAutomationService) run(observer primary.StepObserver) (*primary.SequenceResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.steps {
		if observer != nil {
			observer(s)
		}
	}
	return m.result, nil
}

func (m *mockAutomationService) Drive(ctx context.Context, req primary.DriveRequest) (*primary.SequenceResult, error) {
	return m.run(req.Observer)
}

func (m *mockAutomationService) Exit(ctx context.Context, req primary.ExitRequest) (*primary.SequenceResult, error) {
	return m.run(req.Observer)
}

func (m *mockAutomationService) Stop(ctx context.Context, probeID string) error { return m.err }

func (m *mockAutomationService) SetCalibrated(ctx context.Context, probeID string) error {
	return m.err
}

func (m *mockAutomationService) ETA(ctx context.Context, req primary.ETARequest) (time.Duration, error) {
	return m.eta, m.err
}

// mockCalibrationService implements primary.CalibrationService for testing
type mockCalibrationService struct {
	confirmed  bool
	inBounds   bool
	adjusted   models.Vector3
	err        error
	lastOffset models.Vector4
}

func (m *mockCalibrationService) ResetDuraOffset(ctx context.Context, probeID string) (bool, error) {
	return m.confirmed, m.err
}

func (m *mockCalibrationService) GetOffsetAdjustedTargetCoordinate(ctx context.Context, probeID, targetID string) (models.Vector3, error) {
	return m.adjusted, m.err
}

func (m *mockCalibrationService) IsAPMLDVWithinManipulatorBounds(ctx context.Context, probeID string, apmldv models.Vector3) (bool, error) {
	return m.inBounds, m.err
}

func (m *mockCalibrationService) CheckTargetBounds(ctx context.Context, probeID, targetID string) (bool, error) {
	return m.inBounds, m.err
}

func (m *mockCalibrationService) DriveToTargetEntryCoordinate(ctx context.Context, probeID, targetID string) (bool, error) {
	return m.confirmed, m.err
}

func (m *mockCalibrationService) StopDriveToTargetEntryCoordinate(ctx context.Context, probeID string) error {
	return m.err
}

func (m *mockCalibrationService) SetReferenceCoordinateOffset(ctx context.Context, probeID string, offset models.Vector4) error {
	m.lastOffset = offset
	return m.err
}

// mockDrivePanelService implements primary.DrivePanelService for testing
type mockDrivePanelService struct {
	status *primary.PanelStatus
	err    error
}

func (m *mockDrivePanelService) Drive(ctx context.Context, req primary.PanelRequest) (*primary.PanelStatus, error) {
	return m.status, m.err
}

func (m *mockDrivePanelService) Exit(ctx context.Context, req primary.PanelRequest) (*primary.PanelStatus, error) {
	return m.status, m.err
}

func (m *mockDrivePanelService) Stop(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	return m.status, m.err
}

func (m *mockDrivePanelService) ResetToDura(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	return m.status, m.err
}

func (m *mockDrivePanelService) Status(ctx context.Context, probeID string) (*primary.PanelStatus, error) {
	return m.status, m.err
}

// mockEventService implements primary.EventService for testing
type mockEventService struct {
	events     []*primary.Event
	pruned     int
	err        error
	lastFilter primary.EventFilters
}

func (m *mockEventService) ListEvents(ctx context.Context, filters primary.EventFilters) ([]*primary.Event, error) {
	m.lastFilter = filters
	return m.events, m.err
}

func (m *mockEventService) GetEvent(ctx context.Context, id string) (*primary.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errNotImplemented
}

func (m *mockEventService) PruneEvents(ctx context.Context, olderThanDays int) (int, error) {
	return m.pruned, m.err
}

var (
	_ primary.ProbeService       = (*mockProbeService)(nil)
	_ primary.AutomationService  = (*mockAutomationService)(nil)
	_ primary.CalibrationService = (*mockCalibrationService)(nil)
	_ primary.DrivePanelService  = (*mockDrivePanelService)(nil)
	_ primary.EventService       = (*mockEventService)(nil)
)

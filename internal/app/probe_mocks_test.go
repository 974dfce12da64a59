package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// ============================================================================
// Repositories
// ============================================================================

var _ secondary.ProbeRepository = (*mockProbeRepository)(nil)

// mockProbeRepository implements secondary.ProbeRepository for testing.
type mockProbeRepository struct {
	probes    map[string]*secondary.ProbeRecord
	nextID    int
	updateErr error
}

func newMockProbeRepository() *mockProbeRepository {
	return &mockProbeRepository{probes: make(map[string]*secondary.ProbeRecord), nextID: 1}
}

func (m *mockProbeRepository) Create(ctx context.Context, probe *secondary.ProbeRecord) error {
	probe.CreatedAt = "2026-01-01T00:00:00Z"
	probe.UpdatedAt = probe.CreatedAt
	cp := *probe
	m.probes[probe.ID] = &cp
	return nil
}

func (m *mockProbeRepository) GetByID(ctx context.Context, id string) (*secondary.ProbeRecord, error) {
	if p, ok := m.probes[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("probe %s not found", id)
}

func (m *mockProbeRepository) GetByManipulator(ctx context.Context, manipulatorID string) (*secondary.ProbeRecord, error) {
	for _, p := range m.probes {
		if p.ManipulatorID == manipulatorID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockProbeRepository) List(ctx context.Context) ([]*secondary.ProbeRecord, error) {
	ids := make([]string, 0, len(m.probes))
	for id := range m.probes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*secondary.ProbeRecord, len(ids))
	for i, id := range ids {
		cp := *m.probes[id]
		out[i] = &cp
	}
	return out, nil
}

func (m *mockProbeRepository) Update(ctx context.Context, probe *secondary.ProbeRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.probes[probe.ID]; !ok {
		return fmt.Errorf("probe %s not found", probe.ID)
	}
	cp := *probe
	m.probes[probe.ID] = &cp
	return nil
}

func (m *mockProbeRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.probes[id]; !ok {
		return fmt.Errorf("probe %s not found", id)
	}
	delete(m.probes, id)
	return nil
}

func (m *mockProbeRepository) GetNextID(ctx context.Context) (string, error) {
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("PROBE-%03d", id), nil
}

var _ secondary.TargetRepository = (*mockTargetRepository)(nil)

// mockTargetRepository implements secondary.TargetRepository for testing.
type mockTargetRepository struct {
	targets map[string]*secondary.TargetRecord
	nextID  int
}

func newMockTargetRepository() *mockTargetRepository {
	return &mockTargetRepository{targets: make(map[string]*secondary.TargetRecord), nextID: 1}
}

func (m *mockTargetRepository) Create(ctx context.Context, target *secondary.TargetRecord) error {
	cp := *target
	m.targets[target.ID] = &cp
	return nil
}

func (m *mockTargetRepository) GetByID(ctx context.Context, id string) (*secondary.TargetRecord, error) {
	if t, ok := m.targets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("target %s not found", id)
}

func (m *mockTargetRepository) List(ctx context.Context) ([]*secondary.TargetRecord, error) {
	out := make([]*secondary.TargetRecord, 0, len(m.targets))
	for _, t := range m.targets {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTargetRepository) Update(ctx context.Context, target *secondary.TargetRecord) error {
	cp := *target
	m.targets[target.ID] = &cp
	return nil
}

func (m *mockTargetRepository) Delete(ctx context.Context, id string) error {
	delete(m.targets, id)
	return nil
}

func (m *mockTargetRepository) GetNextID(ctx context.Context) (string, error) {
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("TGT-%03d", id), nil
}

var _ secondary.DrivePanelRepository = (*mockDrivePanelRepository)(nil)

// mockDrivePanelRepository implements secondary.DrivePanelRepository for testing.
type mockDrivePanelRepository struct {
	panels map[string]*secondary.DrivePanelRecord
}

func newMockDrivePanelRepository() *mockDrivePanelRepository {
	return &mockDrivePanelRepository{panels: make(map[string]*secondary.DrivePanelRecord)}
}

func (m *mockDrivePanelRepository) Get(ctx context.Context, probeID string) (*secondary.DrivePanelRecord, error) {
	if p, ok := m.panels[probeID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockDrivePanelRepository) Save(ctx context.Context, panel *secondary.DrivePanelRecord) error {
	cp := *panel
	m.panels[panel.ProbeID] = &cp
	return nil
}

// ============================================================================
// Manipulator link
// ============================================================================

type linkCall struct {
	Op       string
	Depth    float64
	Position models.Vector4
	Speed    float64
}

var _ secondary.ManipulatorLink = (*mockLink)(nil)

// mockLink is an in-memory manipulator whose moves complete immediately.
type mockLink struct {
	mu       sync.Mutex
	position models.Vector4
	calls    []linkCall

	// setDepthErrs are consumed one per SetDepth call; nil entries succeed.
	setDepthErrs   []error
	setPositionErr error
	getPositionErr error
	stopErr        error

	// afterMove runs after every successful move, without the lock held.
	afterMove func()
}

func newMockLink(position models.Vector4) *mockLink {
	return &mockLink{position: position}
}

func (m *mockLink) GetPosition(ctx context.Context, manipulatorID string) (models.Vector4, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, linkCall{Op: "get_position"})
	if m.getPositionErr != nil {
		return models.Vector4{}, m.getPositionErr
	}
	return m.position, nil
}

func (m *mockLink) SetDepth(ctx context.Context, manipulatorID string, depth, speed float64) (float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, linkCall{Op: "set_depth", Depth: depth, Speed: speed})
	if len(m.setDepthErrs) > 0 {
		err := m.setDepthErrs[0]
		m.setDepthErrs = m.setDepthErrs[1:]
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}
	}
	m.position.W = depth
	hook := m.afterMove
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return depth, nil
}

func (m *mockLink) SetPosition(ctx context.Context, manipulatorID string, position models.Vector4, speed float64) (models.Vector4, error) {
	m.mu.Lock()
	m.calls = append(m.calls, linkCall{Op: "set_position", Position: position, Speed: speed})
	if m.setPositionErr != nil {
		m.mu.Unlock()
		return models.Vector4{}, m.setPositionErr
	}
	m.position = position
	hook := m.afterMove
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return position, nil
}

func (m *mockLink) Stop(ctx context.Context, manipulatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, linkCall{Op: "stop"})
	return m.stopErr
}

func (m *mockLink) setPosition(p models.Vector4) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = p
}

// moves returns the motion commands issued so far.
func (m *mockLink) moves() []linkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []linkCall
	for _, c := range m.calls {
		if c.Op == "set_depth" || c.Op == "set_position" {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockLink) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (m *mockLink) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// ============================================================================
// Coordinate converter
// ============================================================================

var _ secondary.CoordinateConverter = (*fakeConverter)(nil)

// fakeConverter maps a manipulator position straight onto AP/ML/DV with the
// depth axis adding to DV. Probes point straight down.
type fakeConverter struct {
	surfaceDV          float64
	brainSurfaceOffset float64
}

func (c *fakeConverter) ManipulatorToInsertion(position models.Vector4, frame models.ManipulatorFrame) models.Vector3 {
	return models.Vector3{X: position.X, Y: position.Y, Z: position.Z + position.W}
}

func (c *fakeConverter) InsertionToManipulator(apmldv models.Vector3, frame models.ManipulatorFrame) models.Vector4 {
	return models.Vector4{X: apmldv.X, Y: apmldv.Y, Z: apmldv.Z, W: 0}
}

func (c *fakeConverter) Reproject(apmldv models.Vector3) models.Vector3 { return apmldv }

func (c *fakeConverter) ProbeForward(angles models.Angles) models.Vector3 {
	return models.Vector3{X: 0, Y: 0, Z: 1}
}

func (c *fakeConverter) BrainSurfaceOffset(position models.Vector4, frame models.ManipulatorFrame) float64 {
	return c.brainSurfaceOffset
}

func (c *fakeConverter) EntryCoordinate(target models.Insertion) models.Vector3 {
	return models.Vector3{X: target.APMLDV.X, Y: target.APMLDV.Y, Z: c.surfaceDV}
}

// ============================================================================
// Dialog, events, errors, metrics
// ============================================================================

var _ secondary.Dialog = (*mockDialog)(nil)

// mockDialog answers questions from a script; an exhausted script answers no.
type mockDialog struct {
	answers   []bool
	err       error
	questions []string
}

func (m *mockDialog) Confirm(ctx context.Context, question string) (bool, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return false, m.err
	}
	if len(m.answers) == 0 {
		return false, nil
	}
	answer := m.answers[0]
	m.answers = m.answers[1:]
	return answer, nil
}

type recordedEvent struct {
	ProbeID, Kind, Phase, State, Message string
}

var _ secondary.EventWriter = (*mockEventWriter)(nil)

type mockEventWriter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *mockEventWriter) RecordEvent(ctx context.Context, probeID, kind, phase, state, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{probeID, kind, phase, state, message})
	return nil
}

func (m *mockEventWriter) kinds(kind string) []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedEvent
	for _, e := range m.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type reportedError struct {
	ProbeID   string
	Operation string
	Err       error
}

var _ secondary.ErrorSink = (*mockErrorSink)(nil)

type mockErrorSink struct {
	mu     sync.Mutex
	errors []reportedError
}

func (m *mockErrorSink) ReportError(ctx context.Context, probeID, operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, reportedError{probeID, operation, err})
}

func (m *mockErrorSink) reported() []reportedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reportedError(nil), m.errors...)
}

var _ secondary.MetricsRecorder = (*mockMetrics)(nil)

type mockMetrics struct {
	mu              sync.Mutex
	steps           int
	transportErrors map[string]int
	moving          map[string]bool
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{transportErrors: make(map[string]int), moving: make(map[string]bool)}
}

func (m *mockMetrics) ObserveStep(phase, state string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps++
}

func (m *mockMetrics) IncTransportError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transportErrors[operation]++
}

func (m *mockMetrics) SetMoving(probeID string, moving bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moving[probeID] = moving
}

// ============================================================================
// Harness
// ============================================================================

const (
	testProbeID  = "PROBE-001"
	testTargetID = "TGT-001"
)

// probeHarness wires the probe services to in-memory collaborators. The
// default fixture is a straight-down probe whose tip touched the Dura at
// depth 10 (DV 10), aiming at a target 5 mm deeper.
type probeHarness struct {
	probes  *mockProbeRepository
	targets *mockTargetRepository
	panels  *mockDrivePanelRepository
	link    *mockLink
	conv    *fakeConverter
	dialog  *mockDialog
	events  *mockEventWriter
	sink    *mockErrorSink
	metrics *mockMetrics
	deps    Deps
}

func newProbeHarness() *probeHarness {
	h := &probeHarness{
		probes:  newMockProbeRepository(),
		targets: newMockTargetRepository(),
		panels:  newMockDrivePanelRepository(),
		link:    newMockLink(models.Vector4{X: 0, Y: 0, Z: 0, W: 10}),
		conv:    &fakeConverter{surfaceDV: 10, brainSurfaceOffset: 0.25},
		dialog:  &mockDialog{},
		events:  &mockEventWriter{},
		sink:    &mockErrorSink{},
		metrics: newMockMetrics(),
	}
	h.deps = Deps{
		Registry:       NewProbeRegistry(h.probes),
		Targets:        h.targets,
		Link:           h.link,
		Converter:      h.conv,
		Executor:       NewEffectExecutor(h.link),
		Dialog:         h.dialog,
		Events:         h.events,
		Errors:         h.sink,
		Metrics:        h.metrics,
		AutomaticSpeed: 2,
		Travel:         models.Vector4{X: 20, Y: 20, Z: 20, W: 20},
	}
	return h
}

func straightDown() models.Angles { return models.Angles{Yaw: 0, Pitch: 90, Roll: 0} }

// seedTarget stores a straight-down target at apmldv.
func (h *probeHarness) seedTarget(id string, apmldv models.Vector3) {
	a := straightDown()
	h.targets.targets[id] = &secondary.TargetRecord{
		ID: id, Name: "target " + id,
		AP: apmldv.X, ML: apmldv.Y, DV: apmldv.Z,
		Yaw: a.Yaw, Pitch: a.Pitch, Roll: a.Roll,
	}
}

// seedProbe stores a calibrated probe in state aiming at testTargetID, with
// mutate applied to the default data.
func (h *probeHarness) seedProbe(t *testing.T, state automation.State, mutate func(d *models.ManipulatorData)) {
	t.Helper()
	h.seedTarget(testTargetID, models.Vector3{X: 0, Y: 0, Z: 15})

	data := models.NewManipulatorData("1")
	data.Angles = straightDown()
	data.Position = models.Vector4{X: 0, Y: 0, Z: 0, W: 10}
	data.DuraDepth = 10
	data.DuraCoordinate = models.Vector3{X: 0, Y: 0, Z: 10}
	if mutate != nil {
		mutate(&data)
	}
	h.probes.probes[testProbeID] = &secondary.ProbeRecord{
		ID:              testProbeID,
		Name:            "test probe",
		ManipulatorID:   data.ManipulatorID,
		AutomationState: string(state),
		TargetID:        testTargetID,
		Data:            data,
	}
	h.probes.nextID = 2
}

// stored returns the persisted record of the test probe.
func (h *probeHarness) stored(t *testing.T) *secondary.ProbeRecord {
	t.Helper()
	rec, ok := h.probes.probes[testProbeID]
	if !ok {
		t.Fatalf("probe %s not persisted", testProbeID)
	}
	return rec
}

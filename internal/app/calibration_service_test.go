package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
)

// ============================================================================
// ResetDuraOffset
// ============================================================================

func TestCalibrationService_ResetDuraOffset(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.AtEntryCoordinate, func(d *models.ManipulatorData) {
		d.DuraDepth = 0
		d.DuraCoordinate = models.NaN3()
		d.CachedTargetCoordinate = models.Vector3{Z: 15}
		d.CachedOffsetAdjustedCoordinate = models.Vector3{Z: 15}
	})
	h.link.setPosition(models.Vector4{X: 1, Y: 2, Z: 0, W: 10})
	svc := NewCalibrationService(h.deps)

	ok, err := svc.ResetDuraOffset(context.Background(), testProbeID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, h.dialog.questions, "enough clearance needs no prompt")

	rec := h.stored(t)
	assert.Equal(t, string(automation.AtDuraInsert), rec.AutomationState)
	assert.Equal(t, 10.0, rec.Data.DuraDepth)
	assert.Equal(t, models.Vector3{X: 1, Y: 2, Z: 10}, rec.Data.DuraCoordinate)
	assert.Equal(t, models.Vector4{X: 1, Y: 2, Z: 0, W: 10}, rec.Data.Position)
	assert.Equal(t, 0.25, rec.Data.BrainSurfaceOffset)
	assert.False(t, rec.Data.SkipExitMargin)
	assert.True(t, rec.Data.CachedOffsetAdjustedCoordinate.IsNaN(), "target cache is invalidated")
	assert.Len(t, h.events.kinds("calibration"), 1)
}

func TestCalibrationService_ResetDuraOffset_KeepsStateOutsideEntry(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	svc := NewCalibrationService(h.deps)

	ok, err := svc.ResetDuraOffset(context.Background(), testProbeID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(automation.IsCalibrated), h.stored(t).AutomationState)
}

func TestCalibrationService_ResetDuraOffset_LowClearance(t *testing.T) {
	tests := []struct {
		name       string
		answers    []bool
		dialogErr  error
		wantOK     bool
		wantErr    bool
		wantSkip   bool
		wantState  automation.State
		wantDepth  float64
	}{
		{
			name:      "operator declines",
			answers:   []bool{false},
			wantOK:    false,
			wantState: automation.AtEntryCoordinate,
			wantDepth: 7,
		},
		{
			name:      "operator overrides",
			answers:   []bool{true},
			wantOK:    true,
			wantSkip:  true,
			wantState: automation.AtDuraInsert,
			wantDepth: 0.1,
		},
		{
			name:      "dialog unavailable",
			dialogErr: errors.New("stdin is not a terminal"),
			wantErr:   true,
			wantState: automation.AtEntryCoordinate,
			wantDepth: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newProbeHarness()
			h.seedProbe(t, automation.AtEntryCoordinate, func(d *models.ManipulatorData) { d.DuraDepth = 7 })
			h.link.setPosition(models.Vector4{W: 0.1})
			h.dialog.answers = tt.answers
			h.dialog.err = tt.dialogErr
			svc := NewCalibrationService(h.deps)

			ok, err := svc.ResetDuraOffset(context.Background(), testProbeID)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, h.dialog.questions, 1)

			rec := h.stored(t)
			assert.Equal(t, string(tt.wantState), rec.AutomationState)
			assert.Equal(t, tt.wantSkip, rec.Data.SkipExitMargin)
			assert.Equal(t, tt.wantDepth, rec.Data.DuraDepth)
		})
	}
}

func TestCalibrationService_ResetDuraOffset_OverrideIsKept(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, func(d *models.ManipulatorData) { d.SkipExitMargin = true })
	svc := NewCalibrationService(h.deps)

	ok, err := svc.ResetDuraOffset(context.Background(), testProbeID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, h.dialog.questions)
	assert.True(t, h.stored(t).Data.SkipExitMargin, "a later reset with clearance keeps the override")
}

func TestCalibrationService_ResetDuraOffset_PositionQueryFails(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.AtEntryCoordinate, nil)
	h.link.getPositionErr = errors.New("link down")
	svc := NewCalibrationService(h.deps)

	ok, err := svc.ResetDuraOffset(context.Background(), testProbeID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Len(t, h.sink.reported(), 1)
	assert.Equal(t, string(automation.AtEntryCoordinate), h.stored(t).AutomationState)
}

// ============================================================================
// Target geometry and bounds
// ============================================================================

func TestCalibrationService_GetOffsetAdjustedTargetCoordinate(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.AtDuraInsert, func(d *models.ManipulatorData) {
		d.Position = models.Vector4{X: 1, Y: -0.5, Z: 0, W: 10}
	})
	svc := NewCalibrationService(h.deps)

	got, err := svc.GetOffsetAdjustedTargetCoordinate(context.Background(), testProbeID, "")
	require.NoError(t, err)
	assert.InDelta(t, 1, got.X, 1e-9)
	assert.InDelta(t, -0.5, got.Y, 1e-9)
	assert.InDelta(t, 15, got.Z, 1e-9)
}

func TestCalibrationService_IsAPMLDVWithinManipulatorBounds(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	svc := NewCalibrationService(h.deps)

	tests := []struct {
		name   string
		apmldv models.Vector3
		want   bool
	}{
		{"inside", models.Vector3{X: 1, Y: 1, Z: 1}, true},
		{"on the far corner", models.Vector3{X: 20, Y: 20, Z: 20}, true},
		{"negative AP", models.Vector3{X: -1, Y: 0, Z: 0}, false},
		{"too deep", models.Vector3{X: 0, Y: 0, Z: 21}, false},
		{"unset", models.NaN3(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsAPMLDVWithinManipulatorBounds(context.Background(), testProbeID, tt.apmldv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalibrationService_CheckTargetBounds(t *testing.T) {
	tests := []struct {
		name          string
		target        models.Vector3
		answers       []bool
		want          bool
		wantQuestions int
		wantAck       bool
	}{
		{"reachable", models.Vector3{X: 1, Y: 1, Z: 15}, nil, true, 0, false},
		{"target out of reach, accepted", models.Vector3{X: 1, Y: 1, Z: 25}, []bool{true}, true, 1, true},
		{"target out of reach, declined", models.Vector3{X: 1, Y: 1, Z: 25}, []bool{false}, false, 1, false},
		{"both out of reach, accepted", models.Vector3{X: 30, Y: 1, Z: 25}, []bool{true, true}, true, 2, true},
		{"both out of reach, second declined", models.Vector3{X: 30, Y: 1, Z: 25}, []bool{true, false}, false, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newProbeHarness()
			h.seedProbe(t, automation.IsCalibrated, nil)
			h.seedTarget(testTargetID, tt.target)
			h.dialog.answers = tt.answers
			svc := NewCalibrationService(h.deps)

			ok, err := svc.CheckTargetBounds(context.Background(), testProbeID, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Len(t, h.dialog.questions, tt.wantQuestions)
			assert.Equal(t, tt.wantAck, h.stored(t).Data.AcknowledgedOutOfBounds)
		})
	}
}

func TestCalibrationService_CheckTargetBounds_NotRePrompted(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	h.seedTarget(testTargetID, models.Vector3{Z: 25})
	h.dialog.answers = []bool{true}
	svc := NewCalibrationService(h.deps)
	ctx := context.Background()

	ok, err := svc.CheckTargetBounds(ctx, testProbeID, "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CheckTargetBounds(ctx, testProbeID, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, h.dialog.questions, 1)
}

// ============================================================================
// Entry coordinate
// ============================================================================

func TestCalibrationService_DriveToTargetEntryCoordinate(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	h.link.setPosition(models.Vector4{X: 5, Y: 5, Z: 0, W: 0})
	svc := NewCalibrationService(h.deps)

	ok, err := svc.DriveToTargetEntryCoordinate(context.Background(), testProbeID, "")
	require.NoError(t, err)
	assert.True(t, ok)

	moves := h.link.moves()
	require.Len(t, moves, 3)
	assert.Equal(t, models.Vector4{X: 5, Y: 5, Z: 0}, moves[0].Position, "lift")
	assert.Equal(t, models.Vector4{X: 0, Y: 0, Z: 0}, moves[1].Position, "travel")
	assert.Equal(t, models.Vector4{X: 0, Y: 0, Z: 10}, moves[2].Position, "descend")
	for _, m := range moves {
		assert.Equal(t, "set_position", m.Op)
		assert.Equal(t, 2.0, m.Speed)
	}

	rec := h.stored(t)
	assert.Equal(t, string(automation.AtEntryCoordinate), rec.AutomationState)
	assert.Equal(t, models.Vector3{X: 0, Y: 0, Z: 10}, rec.Data.EntryCoordinate)
	assert.False(t, rec.Data.Moving)
}

func TestCalibrationService_DriveToTargetEntryCoordinate_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		state   automation.State
		pitch   float64
		wantErr error
	}{
		{"uncalibrated", automation.IsUncalibrated, 90, ErrNotCalibrated},
		{"too shallow", automation.IsCalibrated, 30, ErrPitchTooShallow},
		{"already inserted", automation.AtTarget, 90, automation.ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newProbeHarness()
			h.seedProbe(t, tt.state, func(d *models.ManipulatorData) { d.Angles.Pitch = tt.pitch })
			svc := NewCalibrationService(h.deps)

			ok, err := svc.DriveToTargetEntryCoordinate(context.Background(), testProbeID, "")
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.link.moves())
			assert.Equal(t, string(tt.state), h.stored(t).AutomationState)
		})
	}
}

func TestCalibrationService_DriveToTargetEntryCoordinate_DeclinedBounds(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	h.seedTarget(testTargetID, models.Vector3{Z: 25})
	h.dialog.answers = []bool{false}
	svc := NewCalibrationService(h.deps)

	ok, err := svc.DriveToTargetEntryCoordinate(context.Background(), testProbeID, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.link.moves())
	assert.Equal(t, string(automation.IsCalibrated), h.stored(t).AutomationState)
}

func TestCalibrationService_DriveToTargetEntryCoordinate_FailureThenStop(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	h.link.setPositionErr = errors.New("axis fault")
	svc := NewCalibrationService(h.deps)
	ctx := context.Background()

	ok, err := svc.DriveToTargetEntryCoordinate(ctx, testProbeID, "")
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrTransport)
	assert.Len(t, h.sink.reported(), 1)

	rec := h.stored(t)
	assert.Equal(t, string(automation.DrivingToTargetEntryCoordinate), rec.AutomationState)
	assert.True(t, rec.Data.Moving)

	require.NoError(t, svc.StopDriveToTargetEntryCoordinate(ctx, testProbeID))

	rec = h.stored(t)
	assert.Equal(t, string(automation.IsCalibrated), rec.AutomationState)
	assert.False(t, rec.Data.Moving)
	assert.Equal(t, 1, h.link.count("stop"))
}

func TestCalibrationService_DriveToTargetEntryCoordinate_ReanchoredBeforeArrival(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, nil)
	svc := NewCalibrationService(h.deps)
	ctx := context.Background()

	sess, err := h.deps.Registry.get(ctx, testProbeID)
	require.NoError(t, err)

	legs := 0
	h.link.afterMove = func() {
		legs++
		if legs == 3 {
			sess.mu.Lock()
			sess.manager.SetCalibrated()
			sess.mu.Unlock()
		}
	}

	ok, err := svc.DriveToTargetEntryCoordinate(ctx, testProbeID, "")
	assert.False(t, ok)
	require.ErrorIs(t, err, automation.ErrInvalidOperation)

	rec := h.stored(t)
	assert.Equal(t, string(automation.IsCalibrated), rec.AutomationState)
	assert.False(t, rec.Data.Moving)
	assert.False(t, h.metrics.moving[testProbeID])

	sess.mu.Lock()
	assert.False(t, sess.inFlight, "the probe is released")
	sess.mu.Unlock()

	h.link.afterMove = nil
	ok, err = svc.DriveToTargetEntryCoordinate(ctx, testProbeID, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(automation.AtEntryCoordinate), h.stored(t).AutomationState)
}

func TestCalibrationService_StopDriveToTargetEntryCoordinate_OtherStates(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.AtDuraInsert, nil)
	svc := NewCalibrationService(h.deps)

	require.NoError(t, svc.StopDriveToTargetEntryCoordinate(context.Background(), testProbeID))
	assert.Equal(t, string(automation.AtDuraInsert), h.stored(t).AutomationState)
}

func TestCalibrationService_SetReferenceCoordinateOffset(t *testing.T) {
	h := newProbeHarness()
	h.seedProbe(t, automation.IsCalibrated, func(d *models.ManipulatorData) {
		d.ReferenceOffset = models.Vector4{X: 1, Y: 2, Z: 3, W: 4}
		d.CachedTargetCoordinate = models.Vector3{Z: 15}
		d.CachedOffsetAdjustedCoordinate = models.Vector3{Z: 15}
	})
	svc := NewCalibrationService(h.deps)

	nan := math.NaN()
	err := svc.SetReferenceCoordinateOffset(context.Background(), testProbeID, models.Vector4{X: nan, Y: 5, Z: nan, W: nan})
	require.NoError(t, err)

	rec := h.stored(t)
	assert.Equal(t, models.Vector4{X: 1, Y: 5, Z: 3, W: 4}, rec.Data.ReferenceOffset)
	assert.True(t, rec.Data.CachedOffsetAdjustedCoordinate.IsNaN())
}

// ============================================================================
// Full cycle
// ============================================================================

func TestProbeLifecycle_RegisterToExit(t *testing.T) {
	h := newProbeHarness()
	h.link.setPosition(models.Vector4{})
	ctx := context.Background()

	probes := NewProbeService(h.deps.Registry, h.probes, h.targets, h.events)
	automationSvc := NewAutomationService(h.deps)
	calibrationSvc := NewCalibrationService(h.deps)

	resp, err := probes.RegisterProbe(ctx, primary.RegisterProbeRequest{
		Name: "shank A", ManipulatorID: "1", Angles: straightDown(),
	})
	require.NoError(t, err)
	assert.Equal(t, string(automation.IsUncalibrated), resp.Probe.State)

	target, err := probes.CreateTarget(ctx, primary.CreateTargetRequest{
		Name:      "CA1",
		Insertion: models.Insertion{APMLDV: models.Vector3{Z: 15}, Angles: straightDown()},
	})
	require.NoError(t, err)
	require.NoError(t, probes.SelectTarget(ctx, resp.ProbeID, target.ID))

	require.NoError(t, automationSvc.SetCalibrated(ctx, resp.ProbeID))

	ok, err := calibrationSvc.DriveToTargetEntryCoordinate(ctx, resp.ProbeID, "")
	require.NoError(t, err)
	require.True(t, ok)

	// The operator lowers the probe onto the Dura with the depth axis.
	h.link.setPosition(models.Vector4{X: 0, Y: 0, Z: 0, W: 10})
	ok, err = calibrationSvc.ResetDuraOffset(ctx, resp.ProbeID)
	require.NoError(t, err)
	require.True(t, ok)

	probe, err := probes.GetProbe(ctx, resp.ProbeID)
	require.NoError(t, err)
	assert.Equal(t, string(automation.AtDuraInsert), probe.State)
	assert.True(t, probe.Insertable)

	h.link.reset()
	result, err := automationSvc.Drive(ctx, primary.DriveRequest{
		ProbeID: resp.ProbeID, BaseSpeed: testBaseSpeed, DrivePastDistance: testDrivePast,
	})
	require.NoError(t, err)
	assert.Equal(t, string(automation.AtTarget), result.FinalState)

	moves := h.link.moves()
	require.Len(t, moves, 3)
	assert.InDelta(t, 14, moves[0].Depth, 1e-9)
	assert.InDelta(t, 15.05, moves[1].Depth, 1e-9)
	assert.InDelta(t, 15, moves[2].Depth, 1e-9)

	result, err = automationSvc.Exit(ctx, primary.ExitRequest{ProbeID: resp.ProbeID, BaseSpeed: testBaseSpeed})
	require.NoError(t, err)
	assert.Equal(t, string(automation.AtEntryCoordinate), result.FinalState)

	probe, err = probes.GetProbe(ctx, resp.ProbeID)
	require.NoError(t, err)
	assert.Zero(t, probe.BrainSurfaceOffset)
	assert.False(t, probe.Moving)
	assert.Empty(t, h.sink.reported())
}

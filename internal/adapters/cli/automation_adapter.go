package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
)

// AutomationAdapter translates insertion, exit and calibration commands to
// the AutomationService and CalibrationService. Output is serialized so
// sequences may run for several probes at once.
type AutomationAdapter struct {
	automation  primary.AutomationService
	calibration primary.CalibrationService

	mu  sync.Mutex
	out io.Writer
}

// NewAutomationAdapter creates a new AutomationAdapter.
func NewAutomationAdapter(automation primary.AutomationService, calibration primary.CalibrationService, out io.Writer) *AutomationAdapter {
	return &AutomationAdapter{
		automation:  automation,
		calibration: calibration,
		out:         out,
	}
}

func (a *AutomationAdapter) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// observe prints each completed step as it happens.
func (a *AutomationAdapter) observe(step primary.StepReport) {
	a.printf("  %s %-5s %s → %s (%s)\n", step.ProbeID, step.Phase,
		colorState(step.FromState), colorState(step.ToState), dimColor.Sprint(step.Command))
}

func (a *AutomationAdapter) reportSequence(verb string, res *primary.SequenceResult) {
	if res.Completed {
		a.printf("✓ %s %s finished at %s after %d steps\n", res.ProbeID, verb, colorState(res.FinalState), res.Steps)
		return
	}
	a.printf("%s %s %s stopped at %s after %d steps\n", movingColor.Sprint("!"), res.ProbeID, verb, colorState(res.FinalState), res.Steps)
}

// Drive runs the insertion sequence for one probe.
func (a *AutomationAdapter) Drive(ctx context.Context, req primary.DriveRequest) error {
	req.Observer = a.observe
	res, err := a.automation.Drive(ctx, req)
	if err != nil {
		return fmt.Errorf("drive %s: %w", req.ProbeID, err)
	}
	a.reportSequence("drive", res)
	return nil
}

// Exit runs the exit sequence for one probe.
func (a *AutomationAdapter) Exit(ctx context.Context, req primary.ExitRequest) error {
	req.Observer = a.observe
	res, err := a.automation.Exit(ctx, req)
	if err != nil {
		return fmt.Errorf("exit %s: %w", req.ProbeID, err)
	}
	a.reportSequence("exit", res)
	return nil
}

// Stop halts a probe.
func (a *AutomationAdapter) Stop(ctx context.Context, probeID string) error {
	if err := a.automation.Stop(ctx, probeID); err != nil {
		return fmt.Errorf("stop %s: %w", probeID, err)
	}
	a.printf("✓ Probe %s stopped\n", probeID)
	return nil
}

// Calibrate anchors a probe at the start of the automation cycle.
func (a *AutomationAdapter) Calibrate(ctx context.Context, probeID string) error {
	if err := a.automation.SetCalibrated(ctx, probeID); err != nil {
		return fmt.Errorf("failed to calibrate: %w", err)
	}
	a.printf("✓ Probe %s is %s\n", probeID, colorState("is_calibrated"))
	return nil
}

// ETA prints the remaining insertion time.
func (a *AutomationAdapter) ETA(ctx context.Context, req primary.ETARequest) error {
	eta, err := a.automation.ETA(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to estimate: %w", err)
	}
	a.printf("Probe %s: %s remaining\n", req.ProbeID, eta.Round(time.Second))
	return nil
}

// ResetDura records the probe tip as resting on the Dura.
func (a *AutomationAdapter) ResetDura(ctx context.Context, probeID string) error {
	ok, err := a.calibration.ResetDuraOffset(ctx, probeID)
	if err != nil {
		return fmt.Errorf("failed to reset dura offset: %w", err)
	}
	if !ok {
		a.printf("Dura reset for %s cancelled\n", probeID)
		return nil
	}
	a.printf("✓ Probe %s calibrated to the Dura\n", probeID)
	return nil
}

// DriveToEntry moves a calibrated probe to its target's entry coordinate.
func (a *AutomationAdapter) DriveToEntry(ctx context.Context, probeID, targetID string) error {
	ok, err := a.calibration.DriveToTargetEntryCoordinate(ctx, probeID, targetID)
	if err != nil {
		return fmt.Errorf("failed to drive to entry coordinate: %w", err)
	}
	if !ok {
		a.printf("Drive to entry coordinate for %s cancelled\n", probeID)
		return nil
	}
	a.printf("✓ Probe %s is %s\n", probeID, colorState("at_entry_coordinate"))
	return nil
}

// StopEntry halts an entry drive.
func (a *AutomationAdapter) StopEntry(ctx context.Context, probeID string) error {
	if err := a.calibration.StopDriveToTargetEntryCoordinate(ctx, probeID); err != nil {
		return fmt.Errorf("failed to stop entry drive: %w", err)
	}
	a.printf("✓ Entry drive for %s stopped\n", probeID)
	return nil
}

// CheckBounds reports whether the probe can reach a target.
func (a *AutomationAdapter) CheckBounds(ctx context.Context, probeID, targetID string) error {
	target, err := a.calibration.GetOffsetAdjustedTargetCoordinate(ctx, probeID, targetID)
	if err != nil {
		return fmt.Errorf("failed to compute target coordinate: %w", err)
	}
	ok, err := a.calibration.CheckTargetBounds(ctx, probeID, targetID)
	if err != nil {
		return fmt.Errorf("failed to check bounds: %w", err)
	}
	if !ok {
		a.printf("%s %s cannot reach %s %s\n", errorColor.Sprint("✗"), probeID, targetID, formatVector3(target))
		return nil
	}
	a.printf("✓ %s can reach %s %s\n", probeID, targetID, formatVector3(target))
	return nil
}

// SetReferenceOffset sets the manipulator zero coordinate. NaN components
// are kept.
func (a *AutomationAdapter) SetReferenceOffset(ctx context.Context, probeID string, offset models.Vector4) error {
	if err := a.calibration.SetReferenceCoordinateOffset(ctx, probeID, offset); err != nil {
		return fmt.Errorf("failed to set reference offset: %w", err)
	}
	a.printf("✓ Probe %s reference offset updated\n", probeID)
	return nil
}

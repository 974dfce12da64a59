package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/pinpoint/internal/ports/primary"
)

// PanelAdapter translates drive panel commands to DrivePanelService calls.
type PanelAdapter struct {
	service primary.DrivePanelService
	out     io.Writer
}

// NewPanelAdapter creates a new PanelAdapter with the given service.
func NewPanelAdapter(service primary.DrivePanelService, out io.Writer) *PanelAdapter {
	return &PanelAdapter{
		service: service,
		out:     out,
	}
}

func (a *PanelAdapter) print(status *primary.PanelStatus) {
	fmt.Fprintf(a.out, "Panel %s: %s (speed %.3f mm/s, drive past %.3f mm, drive %s, %d steps)\n",
		status.ProbeID, colorState(status.State), status.BaseSpeed, status.DrivePastDistance,
		enabled(status.CanDrive), status.Steps)
}

func enabled(b bool) string {
	if b {
		return targetColor.Sprint("enabled")
	}
	return dimColor.Sprint("disabled")
}

// Drive steps the panel to the target.
func (a *PanelAdapter) Drive(ctx context.Context, req primary.PanelRequest) error {
	status, err := a.service.Drive(ctx, req)
	if err != nil {
		return fmt.Errorf("panel drive: %w", err)
	}
	a.print(status)
	return nil
}

// Exit steps the panel out of the brain.
func (a *PanelAdapter) Exit(ctx context.Context, req primary.PanelRequest) error {
	status, err := a.service.Exit(ctx, req)
	if err != nil {
		return fmt.Errorf("panel exit: %w", err)
	}
	a.print(status)
	return nil
}

// Stop halts the manipulator.
func (a *PanelAdapter) Stop(ctx context.Context, probeID string) error {
	status, err := a.service.Stop(ctx, probeID)
	if err != nil {
		return fmt.Errorf("panel stop: %w", err)
	}
	a.print(status)
	return nil
}

// Reset anchors the panel at the Dura.
func (a *PanelAdapter) Reset(ctx context.Context, probeID string) error {
	status, err := a.service.ResetToDura(ctx, probeID)
	if err != nil {
		return fmt.Errorf("panel reset: %w", err)
	}
	a.print(status)
	return nil
}

// Status prints the panel of a probe.
func (a *PanelAdapter) Status(ctx context.Context, probeID string) error {
	status, err := a.service.Status(ctx, probeID)
	if err != nil {
		return fmt.Errorf("panel status: %w", err)
	}
	a.print(status)
	return nil
}

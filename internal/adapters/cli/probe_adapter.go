package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/primary"
)

// ProbeAdapter translates probe and target commands to ProbeService calls.
type ProbeAdapter struct {
	service primary.ProbeService
	out     io.Writer
}

// NewProbeAdapter creates a new ProbeAdapter with the given service.
func NewProbeAdapter(service primary.ProbeService, out io.Writer) *ProbeAdapter {
	return &ProbeAdapter{
		service: service,
		out:     out,
	}
}

// Register attaches a probe to a manipulator.
func (a *ProbeAdapter) Register(ctx context.Context, req primary.RegisterProbeRequest) (string, error) {
	resp, err := a.service.RegisterProbe(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to register probe: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Registered probe %s on manipulator %s\n", resp.ProbeID, resp.Probe.ManipulatorID)
	return resp.ProbeID, nil
}

// Unregister detaches a probe.
func (a *ProbeAdapter) Unregister(ctx context.Context, probeID string) error {
	if err := a.service.UnregisterProbe(ctx, probeID); err != nil {
		return fmt.Errorf("failed to unregister probe: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Probe %s unregistered\n", probeID)
	return nil
}

// List prints every registered probe.
func (a *ProbeAdapter) List(ctx context.Context) error {
	probes, err := a.service.ListProbes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list probes: %w", err)
	}

	if len(probes) == 0 {
		fmt.Fprintln(a.out, "No probes registered")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-11s %-6s %-10s %-35s %s\n", "ID", "MANIP", "TARGET", "STATE", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, p := range probes {
		marker := " "
		if p.Moving {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%-11s %-6s %-10s %s%s %s\n", p.ID, p.ManipulatorID, orDash(p.TargetID), padState(p.State, 34), marker, p.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show prints the details of a probe.
func (a *ProbeAdapter) Show(ctx context.Context, probeID string) (*primary.Probe, error) {
	p, err := a.service.GetProbe(ctx, probeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get probe: %w", err)
	}

	fmt.Fprintf(a.out, "\nProbe: %s\n", p.ID)
	if p.Name != "" {
		fmt.Fprintf(a.out, "Name:        %s\n", p.Name)
	}
	fmt.Fprintf(a.out, "Manipulator: %s\n", p.ManipulatorID)
	fmt.Fprintf(a.out, "State:       %s\n", colorState(p.State))
	fmt.Fprintf(a.out, "Target:      %s\n", orDash(p.TargetID))
	fmt.Fprintf(a.out, "Moving:      %s\n", yesNo(p.Moving))
	fmt.Fprintf(a.out, "Calibrated:  %s (insertable %s, exitable %s)\n", yesNo(p.Calibrated), yesNo(p.Insertable), yesNo(p.Exitable))
	fmt.Fprintf(a.out, "Angles:      %s\n", formatAngles(p.Angles))
	fmt.Fprintf(a.out, "Position:    %s\n", formatVector4(p.Position))
	fmt.Fprintf(a.out, "Dura depth:  %s\n", formatFloat(p.DuraDepth))
	fmt.Fprintf(a.out, "Dura:        %s\n", formatVector3(p.DuraCoordinate))
	fmt.Fprintf(a.out, "Entry:       %s\n", formatVector3(p.EntryCoordinate))
	fmt.Fprintf(a.out, "Surface off: %s\n", formatFloat(p.BrainSurfaceOffset))
	fmt.Fprintf(a.out, "Created:     %s\n", p.CreatedAt)
	fmt.Fprintln(a.out)

	return p, nil
}

// SetAngles records the probe's mounting angles.
func (a *ProbeAdapter) SetAngles(ctx context.Context, probeID string, angles models.Angles) error {
	if err := a.service.SetProbeAngles(ctx, probeID, angles); err != nil {
		return fmt.Errorf("failed to set angles: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Probe %s angles set to %s\n", probeID, formatAngles(angles))
	return nil
}

// Select aims a probe at a target.
func (a *ProbeAdapter) Select(ctx context.Context, probeID, targetID string) error {
	if err := a.service.SelectTarget(ctx, probeID, targetID); err != nil {
		return fmt.Errorf("failed to select target: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Probe %s aimed at %s\n", probeID, targetID)
	return nil
}

// CreateTarget plans a target insertion.
func (a *ProbeAdapter) CreateTarget(ctx context.Context, name string, insertion models.Insertion) (*primary.Target, error) {
	target, err := a.service.CreateTarget(ctx, primary.CreateTargetRequest{
		Name:      name,
		Insertion: insertion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Created target %s at %s\n", target.ID, formatVector3(target.Insertion.APMLDV))
	return target, nil
}

// ListTargets prints every planned target.
func (a *ProbeAdapter) ListTargets(ctx context.Context) error {
	targets, err := a.service.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(a.out, "No targets found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-28s %-22s %s\n", "ID", "AP/ML/DV", "YAW/PITCH/ROLL", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, t := range targets {
		ang := t.Insertion.Angles
		fmt.Fprintf(a.out, "%-9s %-28s %-22s %s\n", t.ID, formatVector3(t.Insertion.APMLDV),
			fmt.Sprintf("%.1f/%.1f/%.1f", ang.Yaw, ang.Pitch, ang.Roll), t.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// ShowTarget prints the details of a target.
func (a *ProbeAdapter) ShowTarget(ctx context.Context, targetID string) error {
	t, err := a.service.GetTarget(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to get target: %w", err)
	}

	fmt.Fprintf(a.out, "\nTarget: %s\n", t.ID)
	if t.Name != "" {
		fmt.Fprintf(a.out, "Name:     %s\n", t.Name)
	}
	fmt.Fprintf(a.out, "AP/ML/DV: %s\n", formatVector3(t.Insertion.APMLDV))
	fmt.Fprintf(a.out, "Angles:   %s\n", formatAngles(t.Insertion.Angles))
	fmt.Fprintf(a.out, "Created:  %s\n", t.CreatedAt)
	fmt.Fprintln(a.out)

	return nil
}

// DeleteTarget removes a target.
func (a *ProbeAdapter) DeleteTarget(ctx context.Context, targetID string) error {
	if err := a.service.DeleteTarget(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Target %s deleted\n", targetID)
	return nil
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/pinpoint/internal/ports/primary"
)

func TestPanelAdapter_Status(t *testing.T) {
	svc := &mockDrivePanelService{status: &primary.PanelStatus{
		ProbeID:           "PROBE-001",
		State:             "at_dura",
		BaseSpeed:         0.005,
		DrivePastDistance: 0.05,
		CanDrive:          true,
		Steps:             2,
	}}
	var out bytes.Buffer
	adapter := NewPanelAdapter(svc, &out)

	if err := adapter.Status(context.Background(), "PROBE-001"); err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	want := "Panel PROBE-001: at_dura (speed 0.005 mm/s, drive past 0.050 mm, drive enabled, 2 steps)"
	if !strings.Contains(out.String(), want) {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestPanelAdapter_Operations(t *testing.T) {
	svc := &mockDrivePanelService{status: &primary.PanelStatus{ProbeID: "PROBE-001", State: "outside"}}
	var out bytes.Buffer
	adapter := NewPanelAdapter(svc, &out)
	ctx := context.Background()

	ops := map[string]func() error{
		"drive": func() error { return adapter.Drive(ctx, primary.PanelRequest{ProbeID: "PROBE-001"}) },
		"exit":  func() error { return adapter.Exit(ctx, primary.PanelRequest{ProbeID: "PROBE-001"}) },
		"stop":  func() error { return adapter.Stop(ctx, "PROBE-001") },
		"reset": func() error { return adapter.Reset(ctx, "PROBE-001") },
	}
	for name, op := range ops {
		out.Reset()
		if err := op(); err != nil {
			t.Errorf("%s failed: %v", name, err)
		}
		if !strings.Contains(out.String(), "drive disabled") {
			t.Errorf("%s: unexpected output %q", name, out.String())
		}
	}

	svc.err = errors.New("link down")
	if err := adapter.Drive(ctx, primary.PanelRequest{ProbeID: "PROBE-001"}); err == nil || !strings.Contains(err.Error(), "panel drive") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorder_ObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveStep("drive", "at_near_target_insert", 2*time.Second)
	rec.ObserveStep("drive", "at_near_target_insert", time.Second)
	rec.ObserveStep("exit", "at_dura_exit", time.Second)

	if got := gatherValue(t, reg, "pinpoint_automation_steps_total", map[string]string{"phase": "drive"}); got != 2 {
		t.Errorf("expected 2 drive steps, got %v", got)
	}
	if got := gatherValue(t, reg, "pinpoint_automation_step_duration_seconds", map[string]string{"phase": "exit"}); got != 1 {
		t.Errorf("expected 1 exit duration sample, got %v", got)
	}
}

func TestPrometheusRecorder_TransportErrorsAndMoving(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncTransportError("set_depth")
	rec.SetMoving("PROBE-001", true)
	rec.SetMoving("PROBE-002", true)
	rec.SetMoving("PROBE-002", false)

	if got := gatherValue(t, reg, "pinpoint_transport_errors_total", map[string]string{"operation": "set_depth"}); got != 1 {
		t.Errorf("expected 1 transport error, got %v", got)
	}
	if got := gatherValue(t, reg, "pinpoint_probe_moving", map[string]string{"probe_id": "PROBE-001"}); got != 1 {
		t.Errorf("expected PROBE-001 moving, got %v", got)
	}
	if got := gatherValue(t, reg, "pinpoint_probe_moving", map[string]string{"probe_id": "PROBE-002"}); got != 0 {
		t.Errorf("expected PROBE-002 idle, got %v", got)
	}
}

func TestNewPrometheusRecorder_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorder(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected a duplicate registration to panic")
		}
	}()
	NewPrometheusRecorder(reg)
}

func TestNop(t *testing.T) {
	rec := Nop()
	rec.ObserveStep("drive", "at_target", time.Second)
	rec.IncTransportError("stop")
	rec.SetMoving("PROBE-001", true)
}

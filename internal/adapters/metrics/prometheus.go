// Package metrics provides MetricsRecorder implementations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// PrometheusRecorder implements secondary.MetricsRecorder with Prometheus
// collectors registered on a caller-supplied registry.
type PrometheusRecorder struct {
	stepsTotal      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	transportErrors *prometheus.CounterVec
	moving          *prometheus.GaugeVec
}

// NewPrometheusRecorder registers the automation collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpoint_automation_steps_total",
				Help: "Completed automation steps by sequence phase and resulting state",
			},
			[]string{"phase", "state"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pinpoint_automation_step_duration_seconds",
				Help:    "Time from issuing a manipulator command to its completion",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"phase"},
		),
		transportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpoint_transport_errors_total",
				Help: "Failed manipulator link calls by operation",
			},
			[]string{"operation"},
		),
		moving: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pinpoint_probe_moving",
				Help: "1 while a probe's manipulator is being driven",
			},
			[]string{"probe_id"},
		),
	}
}

// ObserveStep records one completed sequence step.
func (p *PrometheusRecorder) ObserveStep(phase, state string, duration time.Duration) {
	p.stepsTotal.WithLabelValues(phase, state).Inc()
	p.stepDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// IncTransportError counts a failed link call.
func (p *PrometheusRecorder) IncTransportError(operation string) {
	p.transportErrors.WithLabelValues(operation).Inc()
}

// SetMoving marks a probe as moving or idle.
func (p *PrometheusRecorder) SetMoving(probeID string, moving bool) {
	value := 0.0
	if moving {
		value = 1
	}
	p.moving.WithLabelValues(probeID).Set(value)
}

// nopRecorder discards every measurement.
type nopRecorder struct{}

func (nopRecorder) ObserveStep(string, string, time.Duration) {}
func (nopRecorder) IncTransportError(string)                  {}
func (nopRecorder) SetMoving(string, bool)                    {}

// Nop returns a recorder that discards all metrics.
func Nop() secondary.MetricsRecorder {
	return nopRecorder{}
}

var _ secondary.MetricsRecorder = (*PrometheusRecorder)(nil)

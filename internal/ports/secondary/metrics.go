package secondary

import "time"

// MetricsRecorder receives automation measurements.
type MetricsRecorder interface {
	// ObserveStep records one completed sequence step.
	ObserveStep(phase, state string, duration time.Duration)

	// IncTransportError counts a failed link call.
	IncTransportError(operation string)

	// SetMoving marks a probe as moving or idle.
	SetMoving(probeID string, moving bool)
}

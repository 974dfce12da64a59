package secondary

import "context"

// EventWriter defines the interface for appending automation events.
// Implementations extract the actor from context.
type EventWriter interface {
	// RecordEvent appends an event for a probe.
	RecordEvent(ctx context.Context, probeID, kind, phase, state, message string) error
}

// ErrorSink receives failures that the automation reports instead of
// retrying. Each failure is reported exactly once.
type ErrorSink interface {
	ReportError(ctx context.Context, probeID, operation string, err error)
}

package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/pinpoint/internal/ctxutil"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// EventWriterAdapter implements secondary.EventWriter and secondary.ErrorSink
// on top of the automation event table.
type EventWriterAdapter struct {
	repo *EventRepository
}

// NewEventWriterAdapter creates a new EventWriterAdapter.
func NewEventWriterAdapter(repo *EventRepository) *EventWriterAdapter {
	return &EventWriterAdapter{repo: repo}
}

// RecordEvent appends an event for a probe.
func (w *EventWriterAdapter) RecordEvent(ctx context.Context, probeID, kind, phase, state, message string) error {
	return w.repo.Create(ctx, &secondary.EventRecord{
		ID:      newEventID(),
		ProbeID: probeID,
		Kind:    kind,
		Phase:   phase,
		State:   state,
		Message: message,
		ActorID: ctxutil.OperatorFromContext(ctx),
	})
}

// ReportError records a failure as an error event. The operation goes in
// the phase column.
func (w *EventWriterAdapter) ReportError(ctx context.Context, probeID, operation string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	// Nowhere left to report a failure to record a failure.
	_ = w.RecordEvent(ctx, probeID, "error", operation, "", message)
}

func newEventID() string {
	return "EVT-" + uuid.NewString()
}

var (
	_ secondary.EventWriter = (*EventWriterAdapter)(nil)
	_ secondary.ErrorSink   = (*EventWriterAdapter)(nil)
)

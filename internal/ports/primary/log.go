package primary

import "context"

// EventService defines the primary port for the automation event log.
type EventService interface {
	// ListEvents retrieves events matching the given filters.
	ListEvents(ctx context.Context, filters EventFilters) ([]*Event, error)

	// GetEvent retrieves a single event by ID.
	GetEvent(ctx context.Context, id string) (*Event, error)

	// PruneEvents deletes events older than the specified number of days.
	PruneEvents(ctx context.Context, olderThanDays int) (int, error)
}

// Event represents an automation event at the port boundary.
type Event struct {
	ID        string
	ProbeID   string
	Kind      string // 'step', 'stop', 'calibration', 'error'
	Phase     string
	State     string
	Message   string
	ActorID   string
	CreatedAt string
}

// EventFilters contains filter options for querying events.
type EventFilters struct {
	ProbeID string
	Kind    string
	Phase   string
	Limit   int
}

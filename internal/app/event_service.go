package app

import (
	"context"
	"fmt"

	"github.com/example/pinpoint/internal/ports/primary"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// EventServiceImpl implements the EventService interface.
type EventServiceImpl struct {
	eventRepo secondary.EventRepository
}

// NewEventService creates a new EventService with injected dependencies.
func NewEventService(eventRepo secondary.EventRepository) *EventServiceImpl {
	return &EventServiceImpl{
		eventRepo: eventRepo,
	}
}

// ListEvents retrieves events matching the given filters.
func (s *EventServiceImpl) ListEvents(ctx context.Context, filters primary.EventFilters) ([]*primary.Event, error) {
	records, err := s.eventRepo.List(ctx, secondary.EventFilters{
		ProbeID: filters.ProbeID,
		Kind:    filters.Kind,
		Phase:   filters.Phase,
		Limit:   filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*primary.Event, len(records))
	for i, r := range records {
		events[i] = recordToEvent(r)
	}
	return events, nil
}

// GetEvent retrieves a single event by ID.
func (s *EventServiceImpl) GetEvent(ctx context.Context, id string) (*primary.Event, error) {
	record, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToEvent(record), nil
}

// PruneEvents deletes events older than the specified number of days.
func (s *EventServiceImpl) PruneEvents(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("days must not be negative, got %d", olderThanDays)
	}
	return s.eventRepo.PruneOlderThan(ctx, olderThanDays)
}

func recordToEvent(r *secondary.EventRecord) *primary.Event {
	return &primary.Event{
		ID:        r.ID,
		ProbeID:   r.ProbeID,
		Kind:      r.Kind,
		Phase:     r.Phase,
		State:     r.State,
		Message:   r.Message,
		ActorID:   r.ActorID,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure EventServiceImpl implements the interface
var _ primary.EventService = (*EventServiceImpl)(nil)

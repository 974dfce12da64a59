package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/pinpoint/internal/ports/primary"
)

// EventAdapter prints the automation event log.
type EventAdapter struct {
	service primary.EventService
	out     io.Writer
}

// NewEventAdapter creates a new EventAdapter with the given service.
func NewEventAdapter(service primary.EventService, out io.Writer) *EventAdapter {
	return &EventAdapter{
		service: service,
		out:     out,
	}
}

func kindLabel(kind string) string {
	label := fmt.Sprintf("%-11s", kind)
	switch kind {
	case "error":
		return errorColor.Sprint(label)
	case "stop":
		return movingColor.Sprint(label)
	case "calibration":
		return targetColor.Sprint(label)
	}
	return label
}

// Tail prints the most recent events, oldest first.
func (a *EventAdapter) Tail(ctx context.Context, filters primary.EventFilters) error {
	events, err := a.service.ListEvents(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events found")
		return nil
	}

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		detail := e.State
		if e.Message != "" {
			detail = e.Message
		}
		fmt.Fprintf(a.out, "%s %-11s %s %-16s %s\n", dimColor.Sprint(e.CreatedAt), e.ProbeID, kindLabel(e.Kind), orDash(e.Phase), detail)
	}

	return nil
}

// Show prints a single event.
func (a *EventAdapter) Show(ctx context.Context, id string) error {
	e, err := a.service.GetEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	fmt.Fprintf(a.out, "\nEvent: %s\n", e.ID)
	fmt.Fprintf(a.out, "Probe:   %s\n", e.ProbeID)
	fmt.Fprintf(a.out, "Kind:    %s\n", e.Kind)
	fmt.Fprintf(a.out, "Phase:   %s\n", orDash(e.Phase))
	fmt.Fprintf(a.out, "State:   %s\n", colorState(e.State))
	if e.Message != "" {
		fmt.Fprintf(a.out, "Message: %s\n", e.Message)
	}
	fmt.Fprintf(a.out, "Actor:   %s\n", orDash(e.ActorID))
	fmt.Fprintf(a.out, "Created: %s\n", e.CreatedAt)
	fmt.Fprintln(a.out)

	return nil
}

// Prune deletes events older than days.
func (a *EventAdapter) Prune(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("--older-than must be a positive number of days")
	}
	n, err := a.service.PruneEvents(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to prune events: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Pruned %d events older than %d days\n", n, days)
	return nil
}

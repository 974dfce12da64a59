package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new SQLite automation event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, probe_id, kind, phase, state, message, actor_id, created_at"

// Create appends an event.
func (r *EventRepository) Create(ctx context.Context, event *secondary.EventRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO automation_events (id, probe_id, kind, phase, state, message, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		event.ID,
		event.ProbeID,
		event.Kind,
		nullString(event.Phase),
		nullString(event.State),
		nullString(event.Message),
		nullString(event.ActorID),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create automation event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*secondary.EventRecord, error) {
	record, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM automation_events WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get automation event: %w", err)
	}
	return record, nil
}

// List retrieves events matching the given filters, newest first.
func (r *EventRepository) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	query := "SELECT " + eventColumns + " FROM automation_events WHERE 1=1"
	args := []any{}

	if filters.ProbeID != "" {
		query += " AND probe_id = ?"
		args = append(args, filters.ProbeID)
	}

	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}

	if filters.Phase != "" {
		query += " AND phase = ?"
		args = append(args, filters.Phase)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation event: %w", err)
		}
		events = append(events, record)
	}

	return events, rows.Err()
}

// PruneOlderThan deletes events older than the given number of days.
func (r *EventRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	result, err := r.db.ExecContext(ctx, "DELETE FROM automation_events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune automation events: %w", err)
	}

	count, _ := result.RowsAffected()
	return int(count), nil
}

func scanEvent(row rowScanner) (*secondary.EventRecord, error) {
	var (
		phase     sql.NullString
		state     sql.NullString
		message   sql.NullString
		actorID   sql.NullString
		createdAt time.Time
	)

	record := &secondary.EventRecord{}
	err := row.Scan(&record.ID, &record.ProbeID, &record.Kind, &phase, &state, &message, &actorID, &createdAt)
	if err != nil {
		return nil, err
	}

	record.Phase = phase.String
	record.State = state.String
	record.Message = message.String
	record.ActorID = actorID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

var _ secondary.EventRepository = (*EventRepository)(nil)

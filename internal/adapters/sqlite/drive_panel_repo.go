package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// DrivePanelRepository implements secondary.DrivePanelRepository with SQLite.
type DrivePanelRepository struct {
	db *sql.DB
}

// NewDrivePanelRepository creates a new SQLite drive panel repository.
func NewDrivePanelRepository(db *sql.DB) *DrivePanelRepository {
	return &DrivePanelRepository{db: db}
}

// Get retrieves the panel of a probe, or nil when none was saved.
func (r *DrivePanelRepository) Get(ctx context.Context, probeID string) (*secondary.DrivePanelRecord, error) {
	var updatedAt time.Time
	record := &secondary.DrivePanelRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT probe_id, state, base_speed, drive_past_distance, updated_at FROM drive_panels WHERE probe_id = ?",
		probeID,
	).Scan(&record.ProbeID, &record.State, &record.BaseSpeed, &record.DrivePastDistance, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drive panel: %w", err)
	}

	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

// Save creates or replaces the panel of a probe.
func (r *DrivePanelRepository) Save(ctx context.Context, panel *secondary.DrivePanelRecord) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drive_panels (probe_id, state, base_speed, drive_past_distance, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(probe_id) DO UPDATE SET state = excluded.state, base_speed = excluded.base_speed,
			drive_past_distance = excluded.drive_past_distance, updated_at = excluded.updated_at`,
		panel.ProbeID, panel.State, panel.BaseSpeed, panel.DrivePastDistance, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save drive panel: %w", err)
	}

	panel.UpdatedAt = now.Format(time.RFC3339)
	return nil
}

var _ secondary.DrivePanelRepository = (*DrivePanelRepository)(nil)

// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// ProbeRepository implements secondary.ProbeRepository with SQLite.
// Manipulator data is stored as a YAML document in the data column.
type ProbeRepository struct {
	db *sql.DB
}

// NewProbeRepository creates a new SQLite probe repository.
func NewProbeRepository(db *sql.DB) *ProbeRepository {
	return &ProbeRepository{db: db}
}

const probeColumns = "id, name, manipulator_id, automation_state, target_id, data, created_at, updated_at"

// Create persists a newly registered probe.
func (r *ProbeRepository) Create(ctx context.Context, probe *secondary.ProbeRecord) error {
	data, err := yaml.Marshal(probe.Data)
	if err != nil {
		return fmt.Errorf("failed to encode probe data: %w", err)
	}

	state := probe.AutomationState
	if state == "" {
		state = "is_uncalibrated"
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO probes (id, name, manipulator_id, automation_state, target_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		probe.ID, probe.Name, probe.ManipulatorID, state, nullString(probe.TargetID), string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create probe: %w", err)
	}

	probe.AutomationState = state
	probe.CreatedAt = now.Format(time.RFC3339)
	probe.UpdatedAt = probe.CreatedAt
	return nil
}

// GetByID retrieves a probe by its ID.
func (r *ProbeRepository) GetByID(ctx context.Context, id string) (*secondary.ProbeRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+probeColumns+" FROM probes WHERE id = ?", id)
	record, err := scanProbe(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("probe %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get probe: %w", err)
	}
	return record, nil
}

// GetByManipulator retrieves the probe attached to a manipulator, or nil
// when the manipulator is free.
func (r *ProbeRepository) GetByManipulator(ctx context.Context, manipulatorID string) (*secondary.ProbeRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+probeColumns+" FROM probes WHERE manipulator_id = ?", manipulatorID)
	record, err := scanProbe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get probe by manipulator: %w", err)
	}
	return record, nil
}

// List retrieves all registered probes in ID order.
func (r *ProbeRepository) List(ctx context.Context) ([]*secondary.ProbeRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+probeColumns+" FROM probes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}
	defer rows.Close()

	var probes []*secondary.ProbeRecord
	for rows.Next() {
		record, err := scanProbe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan probe: %w", err)
		}
		probes = append(probes, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}

	return probes, nil
}

// Update saves the automation state, selected target and manipulator data.
func (r *ProbeRepository) Update(ctx context.Context, probe *secondary.ProbeRecord) error {
	data, err := yaml.Marshal(probe.Data)
	if err != nil {
		return fmt.Errorf("failed to encode probe data: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE probes SET name = ?, automation_state = ?, target_id = ?, data = ?, updated_at = ? WHERE id = ?",
		probe.Name, probe.AutomationState, nullString(probe.TargetID), string(data), now, probe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update probe: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("probe %s not found", probe.ID)
	}

	probe.UpdatedAt = now.Format(time.RFC3339)
	return nil
}

// Delete removes a probe from persistence.
func (r *ProbeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM probes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete probe: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("probe %s not found", id)
	}

	return nil
}

// GetNextID returns the next available probe ID.
func (r *ProbeRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("PROBE-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM probes", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next probe ID: %w", err)
	}

	return fmt.Sprintf("PROBE-%03d", maxID+1), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProbe(row rowScanner) (*secondary.ProbeRecord, error) {
	var (
		targetID  sql.NullString
		data      string
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.ProbeRecord{}
	err := row.Scan(&record.ID, &record.Name, &record.ManipulatorID, &record.AutomationState, &targetID, &data, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	// Fields absent from older documents keep their unset value.
	record.Data = models.NewManipulatorData(record.ManipulatorID)
	if err := yaml.Unmarshal([]byte(data), &record.Data); err != nil {
		return nil, fmt.Errorf("failed to decode data of probe %s: %w", record.ID, err)
	}

	record.TargetID = targetID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ secondary.ProbeRepository = (*ProbeRepository)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// TargetRepository implements secondary.TargetRepository with SQLite.
type TargetRepository struct {
	db *sql.DB
}

// NewTargetRepository creates a new SQLite target repository.
func NewTargetRepository(db *sql.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

const targetColumns = "id, name, ap, ml, dv, yaw, pitch, roll, created_at, updated_at"

// Create persists a new target insertion.
func (r *TargetRepository) Create(ctx context.Context, target *secondary.TargetRecord) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO targets (id, name, ap, ml, dv, yaw, pitch, roll, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		target.ID, target.Name, target.AP, target.ML, target.DV, target.Yaw, target.Pitch, target.Roll, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create target: %w", err)
	}

	target.CreatedAt = now.Format(time.RFC3339)
	target.UpdatedAt = target.CreatedAt
	return nil
}

// GetByID retrieves a target by its ID.
func (r *TargetRepository) GetByID(ctx context.Context, id string) (*secondary.TargetRecord, error) {
	record, err := scanTarget(r.db.QueryRowContext(ctx, "SELECT "+targetColumns+" FROM targets WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("target %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get target: %w", err)
	}
	return record, nil
}

// List retrieves all targets in ID order.
func (r *TargetRepository) List(ctx context.Context) ([]*secondary.TargetRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+targetColumns+" FROM targets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []*secondary.TargetRecord
	for rows.Next() {
		record, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, record)
	}

	return targets, rows.Err()
}

// Update replaces a target's name and insertion.
func (r *TargetRepository) Update(ctx context.Context, target *secondary.TargetRecord) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE targets SET name = ?, ap = ?, ml = ?, dv = ?, yaw = ?, pitch = ?, roll = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		target.Name, target.AP, target.ML, target.DV, target.Yaw, target.Pitch, target.Roll, target.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update target: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("target %s not found", target.ID)
	}

	return nil
}

// Delete removes a target. Probes aiming at it lose their selection.
func (r *TargetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM targets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("target %s not found", id)
	}

	return nil
}

// GetNextID returns the next available target ID.
func (r *TargetRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM targets",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next target ID: %w", err)
	}

	return fmt.Sprintf("TGT-%03d", maxID+1), nil
}

func scanTarget(row rowScanner) (*secondary.TargetRecord, error) {
	var createdAt, updatedAt time.Time
	record := &secondary.TargetRecord{}
	err := row.Scan(&record.ID, &record.Name, &record.AP, &record.ML, &record.DV,
		&record.Yaw, &record.Pitch, &record.Roll, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	return record, nil
}

var _ secondary.TargetRepository = (*TargetRepository)(nil)

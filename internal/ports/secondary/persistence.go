// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/pinpoint/internal/models"
)

// ProbeRepository defines the secondary port for probe persistence.
type ProbeRepository interface {
	// Create persists a newly registered probe.
	Create(ctx context.Context, probe *ProbeRecord) error

	// GetByID retrieves a probe by its ID.
	GetByID(ctx context.Context, id string) (*ProbeRecord, error)

	// GetByManipulator retrieves the probe attached to a manipulator.
	GetByManipulator(ctx context.Context, manipulatorID string) (*ProbeRecord, error)

	// List retrieves all registered probes.
	List(ctx context.Context) ([]*ProbeRecord, error)

	// Update saves the automation state, selected target and manipulator data.
	Update(ctx context.Context, probe *ProbeRecord) error

	// Delete removes a probe from persistence.
	Delete(ctx context.Context, id string) error

	// GetNextID returns the next available probe ID.
	GetNextID(ctx context.Context) (string, error)
}

// ProbeRecord represents a manipulator-driven probe as stored in persistence.
type ProbeRecord struct {
	ID              string
	Name            string
	ManipulatorID   string
	AutomationState string
	TargetID        string // empty when no target is selected
	Data            models.ManipulatorData
	CreatedAt       string
	UpdatedAt       string
}

// TargetRepository defines the secondary port for target insertion persistence.
type TargetRepository interface {
	Create(ctx context.Context, target *TargetRecord) error
	GetByID(ctx context.Context, id string) (*TargetRecord, error)
	List(ctx context.Context) ([]*TargetRecord, error)
	Update(ctx context.Context, target *TargetRecord) error
	Delete(ctx context.Context, id string) error
	GetNextID(ctx context.Context) (string, error)
}

// TargetRecord represents a target insertion as stored in persistence.
type TargetRecord struct {
	ID        string
	Name      string
	AP        float64
	ML        float64
	DV        float64
	Yaw       float64
	Pitch     float64
	Roll      float64
	CreatedAt string
	UpdatedAt string
}

// EventRepository defines the secondary port for reading the automation event log.
type EventRepository interface {
	// List retrieves events matching the given filters, newest first.
	List(ctx context.Context, filters EventFilters) ([]*EventRecord, error)

	// GetByID retrieves a single event.
	GetByID(ctx context.Context, id string) (*EventRecord, error)

	// PruneOlderThan deletes events older than the given number of days.
	PruneOlderThan(ctx context.Context, days int) (int, error)
}

// EventRecord represents one automation event as stored in persistence.
type EventRecord struct {
	ID        string
	ProbeID   string
	Kind      string // 'step', 'stop', 'calibration', 'error'
	Phase     string // 'drive', 'exit', 'entry', 'dura', 'panel'
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

// DrivePanelRepository defines the secondary port for drive panel persistence.
type DrivePanelRepository interface {
	// Get retrieves the panel of a probe. A probe without a saved panel
	// returns (nil, nil).
	Get(ctx context.Context, probeID string) (*DrivePanelRecord, error)

	// Save creates or replaces the panel of a probe.
	Save(ctx context.Context, panel *DrivePanelRecord) error
}

// DrivePanelRecord represents a probe's drive panel as stored in persistence.
type DrivePanelRecord struct {
	ProbeID           string
	State             string
	BaseSpeed         float64
	DrivePastDistance float64
	UpdatedAt         string
}

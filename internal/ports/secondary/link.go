package secondary

import (
	"context"

	"github.com/example/pinpoint/internal/models"
)

// ManipulatorLink is the transport to the manipulator controller. Every call
// blocks until the controller answers or ctx is done.
type ManipulatorLink interface {
	// GetPosition returns the current manipulator position.
	GetPosition(ctx context.Context, manipulatorID string) (models.Vector4, error)

	// SetDepth drives the depth axis and returns the final depth.
	SetDepth(ctx context.Context, manipulatorID string, depth, speed float64) (float64, error)

	// SetPosition drives all axes and returns the final position.
	SetPosition(ctx context.Context, manipulatorID string, position models.Vector4, speed float64) (models.Vector4, error)

	// Stop halts any motion of the manipulator.
	Stop(ctx context.Context, manipulatorID string) error
}

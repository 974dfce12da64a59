package link

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// SimulatedConfig configures a SimulatedLink.
type SimulatedConfig struct {
	// MoveDelay is how long every move takes. Zero completes moves at once.
	MoveDelay time.Duration

	// Travel clamps every axis to [0, Travel]. A zero component disables
	// clamping on that axis.
	Travel models.Vector4
}

type simManipulator struct {
	position models.Vector4
	halt     chan struct{}
	failNext error
}

// SimulatedLink is an in-memory rig of manipulators. It implements
// secondary.ManipulatorLink for dry runs and demos.
type SimulatedLink struct {
	cfg SimulatedConfig

	mu           sync.Mutex
	manipulators map[string]*simManipulator
}

// NewSimulatedLink creates a rig with no manipulators.
func NewSimulatedLink(cfg SimulatedConfig) *SimulatedLink {
	return &SimulatedLink{
		cfg:          cfg,
		manipulators: make(map[string]*simManipulator),
	}
}

// AddManipulator places a manipulator at position.
func (l *SimulatedLink) AddManipulator(id string, position models.Vector4) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manipulators[id] = &simManipulator{
		position: l.clamp(position),
		halt:     make(chan struct{}),
	}
}

// FailNext makes the next call for the manipulator fail with err.
func (l *SimulatedLink) FailNext(id string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.manipulators[id]; ok {
		m.failNext = err
	}
}

// take returns the manipulator and consumes a pending injected failure.
// Callers hold l.mu.
func (l *SimulatedLink) take(id string) (*simManipulator, error) {
	m, ok := l.manipulators[id]
	if !ok {
		return nil, fmt.Errorf("manipulator %s is not connected", id)
	}
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}
	return m, nil
}

func (l *SimulatedLink) clamp(v models.Vector4) models.Vector4 {
	axis := func(value, travel float64) float64 {
		if travel <= 0 || math.IsNaN(value) {
			return value
		}
		return math.Max(0, math.Min(travel, value))
	}
	return models.Vector4{
		X: axis(v.X, l.cfg.Travel.X),
		Y: axis(v.Y, l.cfg.Travel.Y),
		Z: axis(v.Z, l.cfg.Travel.Z),
		W: axis(v.W, l.cfg.Travel.W),
	}
}

// move takes the configured delay to bring the manipulator to goal. A Stop
// during the delay leaves the manipulator where it was.
func (l *SimulatedLink) move(ctx context.Context, id string, goal func(models.Vector4) models.Vector4) (models.Vector4, error) {
	l.mu.Lock()
	m, err := l.take(id)
	if err != nil {
		l.mu.Unlock()
		return models.NaN4(), err
	}
	halt := m.halt
	l.mu.Unlock()

	if l.cfg.MoveDelay > 0 {
		timer := time.NewTimer(l.cfg.MoveDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-halt:
			l.mu.Lock()
			defer l.mu.Unlock()
			return m.position, nil
		case <-ctx.Done():
			return models.NaN4(), ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	m.position = l.clamp(goal(m.position))
	return m.position, nil
}

// GetPosition returns the current manipulator position.
func (l *SimulatedLink) GetPosition(_ context.Context, manipulatorID string) (models.Vector4, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, err := l.take(manipulatorID)
	if err != nil {
		return models.NaN4(), err
	}
	return m.position, nil
}

// SetDepth drives the depth axis and returns the final depth.
func (l *SimulatedLink) SetDepth(ctx context.Context, manipulatorID string, depth, _ float64) (float64, error) {
	pos, err := l.move(ctx, manipulatorID, func(p models.Vector4) models.Vector4 {
		p.W = depth
		return p
	})
	if err != nil {
		return 0, err
	}
	return pos.W, nil
}

// SetPosition drives all axes and returns the final position.
func (l *SimulatedLink) SetPosition(ctx context.Context, manipulatorID string, position models.Vector4, _ float64) (models.Vector4, error) {
	return l.move(ctx, manipulatorID, func(models.Vector4) models.Vector4 { return position })
}

// Stop interrupts any move in progress on the manipulator.
func (l *SimulatedLink) Stop(_ context.Context, manipulatorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, err := l.take(manipulatorID)
	if err != nil {
		return err
	}
	close(m.halt)
	m.halt = make(chan struct{})
	return nil
}

var _ secondary.ManipulatorLink = (*SimulatedLink)(nil)

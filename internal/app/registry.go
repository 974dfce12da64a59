package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/models"
	"github.com/example/pinpoint/internal/ports/secondary"
)

// probeSession is the live automation state of one probe. mu guards every
// field and is never held across a link call.
type probeSession struct {
	mu sync.Mutex

	id        string
	name      string
	targetID  string
	createdAt string
	updatedAt string
	manager   *automation.StateManager
	data      models.ManipulatorData

	// inFlight is set while a sequence owns the probe; cancel stops it.
	inFlight bool
	cancel   context.CancelFunc
}

func (s *probeSession) record() *secondary.ProbeRecord {
	return &secondary.ProbeRecord{
		ID:              s.id,
		Name:            s.name,
		ManipulatorID:   s.data.ManipulatorID,
		AutomationState: string(s.manager.State()),
		TargetID:        s.targetID,
		Data:            s.data,
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.updatedAt,
	}
}

// ProbeRegistry owns one session per registered probe and writes every
// change through to the probe repository.
type ProbeRegistry struct {
	mu       sync.Mutex
	repo     secondary.ProbeRepository
	sessions map[string]*probeSession
}

// NewProbeRegistry creates a registry backed by repo.
func NewProbeRegistry(repo secondary.ProbeRepository) *ProbeRegistry {
	return &ProbeRegistry{
		repo:     repo,
		sessions: make(map[string]*probeSession),
	}
}

// register creates a probe in IsUncalibrated.
func (r *ProbeRegistry) register(ctx context.Context, name string, data models.ManipulatorData) (*probeSession, error) {
	existing, err := r.repo.GetByManipulator(ctx, data.ManipulatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check manipulator: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("manipulator %s is already attached to probe %s", data.ManipulatorID, existing.ID)
	}

	id, err := r.repo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate probe ID: %w", err)
	}

	s := &probeSession{
		id:      id,
		name:    name,
		manager: automation.NewStateManager(),
		data:    data,
	}
	rec := s.record()
	if err := r.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create probe: %w", err)
	}
	s.createdAt = rec.CreatedAt
	s.updatedAt = rec.UpdatedAt

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// unregister releases a probe. A probe with a running sequence cannot be
// unregistered.
func (r *ProbeRegistry) unregister(ctx context.Context, id string) error {
	s, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	busy := s.inFlight
	s.mu.Unlock()
	if busy {
		return ErrSequenceInProgress
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete probe: %w", err)
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// get returns the session for id, rehydrating it from the repository on
// first use.
func (r *ProbeRegistry) get(ctx context.Context, id string) (*probeSession, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	rec, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	manager, err := automation.RestoreStateManager(rec.AutomationState)
	if err != nil {
		return nil, fmt.Errorf("failed to restore probe %s: %w", id, err)
	}

	s = &probeSession{
		id:        rec.ID,
		name:      rec.Name,
		targetID:  rec.TargetID,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
		manager:   manager,
		data:      rec.Data,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.sessions[id]; ok {
		return cached, nil
	}
	r.sessions[id] = s
	return s, nil
}

// list returns every registered probe's session.
func (r *ProbeRegistry) list(ctx context.Context) ([]*probeSession, error) {
	recs, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}
	out := make([]*probeSession, 0, len(recs))
	for _, rec := range recs {
		s, err := r.get(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// save writes the session through to the repository. Callers hold s.mu.
func (r *ProbeRegistry) save(ctx context.Context, s *probeSession) error {
	if err := r.repo.Update(ctx, s.record()); err != nil {
		return fmt.Errorf("failed to save probe %s: %w", s.id, err)
	}
	return nil
}

// beginSequence claims the probe for a sequence and returns the context the
// sequence must issue link calls with. Callers hold s.mu.
func (r *ProbeRegistry) beginSequence(ctx context.Context, s *probeSession) (context.Context, error) {
	if s.inFlight {
		return nil, ErrSequenceInProgress
	}
	seqCtx, cancel := context.WithCancel(ctx)
	s.inFlight = true
	s.cancel = cancel
	return seqCtx, nil
}

// endSequence releases the probe. Callers hold s.mu.
func (r *ProbeRegistry) endSequence(s *probeSession) {
	if s.cancel != nil {
		s.cancel()
	}
	s.inFlight = false
	s.cancel = nil
}

// cancelSequence stops the running sequence of s, if any.
func (r *ProbeRegistry) cancelSequence(s *probeSession) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Package visagefakes provides lightweight in-memory store fakes for tests.
package visagefakes

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/visage-engine/internal/storage"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// DefinitionStore is an in-memory DefinitionStore fake for tests.
type DefinitionStore struct {
	mu          sync.Mutex
	Definitions map[string]domain.VisageDefinition
}

// NewDefinitionStore constructs a DefinitionStore fake with initialized maps.
func NewDefinitionStore() *DefinitionStore {
	return &DefinitionStore{Definitions: make(map[string]domain.VisageDefinition)}
}

func (s *DefinitionStore) PutDefinition(_ context.Context, def domain.VisageDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Definitions[def.ID] = def
	return nil
}

func (s *DefinitionStore) GetDefinition(_ context.Context, id string) (domain.VisageDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.Definitions[id]
	if !ok {
		return domain.VisageDefinition{}, storage.ErrNotFound
	}
	return def, nil
}

func (s *DefinitionStore) ListDefinitions(_ context.Context) ([]domain.VisageDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VisageDefinition, 0, len(s.Definitions))
	for _, def := range s.Definitions {
		out = append(out, def)
	}
	return out, nil
}

func (s *DefinitionStore) DeleteDefinition(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Definitions, id)
	return nil
}

// OverrideStateStore is an in-memory OverrideStateStore fake for tests.
// Set SaveErr to inject persistence failures.
type OverrideStateStore struct {
	mu      sync.Mutex
	States  map[string]domain.OverrideState
	SaveErr error
	Saves   int
}

// NewOverrideStateStore constructs an OverrideStateStore fake.
func NewOverrideStateStore() *OverrideStateStore {
	return &OverrideStateStore{States: make(map[string]domain.OverrideState)}
}

func (s *OverrideStateStore) LoadOverrideState(_ context.Context, entityID string) (domain.OverrideState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.States[entityID]
	if !ok {
		return domain.OverrideState{}, storage.ErrNotFound
	}
	return state, nil
}

func (s *OverrideStateStore) SaveOverrideState(_ context.Context, entityID string, state domain.OverrideState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Saves++
	if state.IsEmpty() && state.Base == nil {
		delete(s.States, entityID)
		return nil
	}
	s.States[entityID] = state
	return nil
}

// LeaseStore is an in-memory LeaseStore fake for tests.
type LeaseStore struct {
	mu    sync.Mutex
	Now   func() time.Time
	lease *storage.Lease
}

// NewLeaseStore constructs a LeaseStore fake using wall-clock time.
func NewLeaseStore() *LeaseStore {
	return &LeaseStore{Now: time.Now}
}

func (s *LeaseStore) AcquireLease(_ context.Context, holder string, ttl time.Duration) (storage.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now().UTC()
	if s.lease != nil && s.lease.Holder != holder && s.lease.ExpiresAt.After(now) {
		return storage.Lease{}, storage.ErrLeaseHeld
	}
	lease := storage.Lease{Holder: holder, ExpiresAt: now.Add(ttl)}
	s.lease = &lease
	return lease, nil
}

func (s *LeaseStore) ReleaseLease(_ context.Context, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease != nil && s.lease.Holder == holder {
		s.lease = nil
	}
	return nil
}

var (
	_ storage.DefinitionStore    = (*DefinitionStore)(nil)
	_ storage.OverrideStateStore = (*OverrideStateStore)(nil)
	_ storage.LeaseStore         = (*LeaseStore)(nil)
)

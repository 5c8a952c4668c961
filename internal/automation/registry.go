// Package automation watches scene notifications and drives visage apply and
// remove reactions through per-entity latches.
//
// The Registry holds the automation-enabled definitions and the latch state;
// the Evaluator subscribes to the notification bus and recomputes rules when
// relevant state changes. Both are owned instances with explicit build and
// teardown, never package globals.
package automation

import (
	"context"
	"sync"

	"github.com/louisbranch/visage-engine/internal/storage"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

type latchKey struct {
	EntityID     string
	DefinitionID string
}

// Registry caches the automation-enabled definitions together with the
// per-(entity, definition) latch state. Latches record whether a rule's
// conditions held at last evaluation; reactions fire only when that bit
// flips.
type Registry struct {
	mu      sync.Mutex
	defs    []domain.VisageDefinition
	latches map[latchKey]bool
}

// NewRegistry constructs an empty registry. Call Build before evaluating.
func NewRegistry() *Registry {
	return &Registry{latches: make(map[latchKey]bool)}
}

// Build loads the current definitions and retains the automation-enabled
// ones. Latches belonging to definitions that survive the rebuild are
// preserved so an unchanged rule does not re-fire; latches of removed
// definitions are dropped.
func (r *Registry) Build(ctx context.Context, store storage.DefinitionStore) error {
	defs, err := store.ListDefinitions(ctx)
	if err != nil {
		return err
	}

	enabled := make([]domain.VisageDefinition, 0, len(defs))
	surviving := make(map[string]bool, len(defs))
	for _, def := range defs {
		if !def.AutomationEnabled() {
			continue
		}
		enabled = append(enabled, def)
		surviving[def.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = enabled
	for key := range r.latches {
		if !surviving[key.DefinitionID] {
			delete(r.latches, key)
		}
	}
	return nil
}

// Definitions returns a snapshot of the automation-enabled definitions.
func (r *Registry) Definitions() []domain.VisageDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VisageDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Latch reports whether the rule for the given pair held at last evaluation.
// Unknown pairs start inactive.
func (r *Registry) Latch(entityID, definitionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latches[latchKey{EntityID: entityID, DefinitionID: definitionID}]
}

// SetLatch records the rule's current state for the given pair.
func (r *Registry) SetLatch(entityID, definitionID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := latchKey{EntityID: entityID, DefinitionID: definitionID}
	if active {
		r.latches[key] = true
		return
	}
	delete(r.latches, key)
}

// DropEntity forgets every latch belonging to an entity that left the scene.
func (r *Registry) DropEntity(entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.latches {
		if key.EntityID == entityID {
			delete(r.latches, key)
		}
	}
}

// Teardown clears the registry. A torn-down registry can be rebuilt.
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = nil
	r.latches = make(map[latchKey]bool)
}

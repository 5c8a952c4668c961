// Package service orchestrates the override stack: it owns stack mutation,
// base-snapshot capture, composition, and the durable write-back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	verrors "github.com/louisbranch/visage-engine/internal/errors"
	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/storage"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// Service exposes the stack mutation operations and the automation action
// surface. All operations on one entity are serialized; operations on
// distinct entities may run concurrently.
type Service struct {
	definitions storage.DefinitionStore
	states      storage.OverrideStateStore
	accessor    scene.Accessor
	tracer      trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Service over the given stores and scene accessor.
func New(definitions storage.DefinitionStore, states storage.OverrideStateStore, accessor scene.Accessor) *Service {
	return &Service{
		definitions: definitions,
		states:      states,
		accessor:    accessor,
		tracer:      otel.Tracer("visage/service"),
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockEntity serializes work per entity id and returns the unlock function.
func (s *Service) lockEntity(entityID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[entityID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[entityID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// PushLayer instantiates the definition onto the entity's stack and
// recomposes. A missing definition or entity is a no-op.
func (s *Service) PushLayer(ctx context.Context, entityID, definitionID string) error {
	ctx, span := s.tracer.Start(ctx, "visage.PushLayer",
		trace.WithAttributes(attribute.String("entity.id", entityID), attribute.String("definition.id", definitionID)))
	defer span.End()

	def, err := s.definitions.GetDefinition(ctx, definitionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("push layer: definition %s missing, skipping on %s", definitionID, entityID)
			return nil
		}
		return verrors.Wrap(verrors.CodePersistenceFailure, "load definition", err)
	}

	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	return s.composeLocked(ctx, entityID, state.Push(def))
}

// RemoveLayer removes the definition's layer from the entity's stack and
// recomposes. Removing an absent layer is a no-op, not an error.
func (s *Service) RemoveLayer(ctx context.Context, entityID, definitionID string) error {
	ctx, span := s.tracer.Start(ctx, "visage.RemoveLayer",
		trace.WithAttributes(attribute.String("entity.id", entityID), attribute.String("definition.id", definitionID)))
	defer span.End()

	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	return s.composeLocked(ctx, entityID, state.Remove(definitionID))
}

// ToggleLayerVisibility flips the layer's disabled flag without removing
// it, preserving stack order for re-enable, then recomposes.
func (s *Service) ToggleLayerVisibility(ctx context.Context, entityID, definitionID string) error {
	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	idx := state.IndexOf(definitionID)
	if idx < 0 {
		return nil
	}
	return s.composeLocked(ctx, entityID, state.SetDisabled(definitionID, !state.Stack[idx].Disabled))
}

// SetLayerVisibility sets the layer's disabled flag to an explicit value.
// Unlike ToggleLayerVisibility it is safe to retry blindly.
func (s *Service) SetLayerVisibility(ctx context.Context, entityID, definitionID string, disabled bool) error {
	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	if state.IndexOf(definitionID) < 0 {
		return nil
	}
	return s.composeLocked(ctx, entityID, state.SetDisabled(definitionID, disabled))
}

// ReorderStack re-sequences the entity's layers by the given id list and
// recomposes. Unknown ids are ignored; unlisted layers keep their relative
// order at the end.
func (s *Service) ReorderStack(ctx context.Context, entityID string, orderedIDs []string) error {
	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	return s.composeLocked(ctx, entityID, state.Reorder(orderedIDs))
}

// Apply is the automation action surface alias for PushLayer.
func (s *Service) Apply(ctx context.Context, entityID, definitionID string) error {
	return s.PushLayer(ctx, entityID, definitionID)
}

// Remove is the automation action surface alias for RemoveLayer.
func (s *Service) Remove(ctx context.Context, entityID, definitionID string) error {
	return s.RemoveLayer(ctx, entityID, definitionID)
}

// Compose re-resolves the entity's current stack and writes the result
// back. Composing an entity with no override state is a no-op.
func (s *Service) Compose(ctx context.Context, entityID string) error {
	unlock := s.lockEntity(entityID)
	defer unlock()

	state, err := s.loadState(ctx, entityID)
	if err != nil {
		return err
	}
	return s.composeLocked(ctx, entityID, state)
}

func (s *Service) loadState(ctx context.Context, entityID string) (domain.OverrideState, error) {
	state, err := s.states.LoadOverrideState(ctx, entityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.OverrideState{}, nil
		}
		return domain.OverrideState{}, verrors.Wrap(verrors.CodePersistenceFailure, "load override state", err)
	}
	return state, nil
}

// composeLocked resolves the state and writes entity fields plus durable
// state. The caller holds the entity lock.
//
// A vanished entity makes the whole call a no-op: nothing is written to the
// scene or the store. Persistence failures propagate without mutating
// stored state; the caller decides whether to retry.
func (s *Service) composeLocked(ctx context.Context, entityID string, state domain.OverrideState) error {
	ctx, span := s.tracer.Start(ctx, "visage.Compose",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.Int("stack.depth", len(state.Stack)),
		))
	defer span.End()

	if state.IsEmpty() {
		return s.revertLocked(ctx, entityID, state)
	}

	if state.Base == nil {
		live, err := s.accessor.ReadLiveFields(ctx, entityID)
		if err != nil {
			if errors.Is(err, scene.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("read live fields: %w", err)
		}
		base := snapshotFromFields(live)
		state.Base = &base
	}

	for _, layer := range state.Stack {
		if _, faults := layer.Changeset.Sanitized(); len(faults) > 0 {
			log.Printf("compose %s: layer %s: %d field(s) rejected", entityID, layer.DefinitionID, len(faults))
		}
	}

	resolved := domain.Resolve(*state.Base, state.Stack)
	if err := s.accessor.WriteFields(ctx, entityID, fieldsFromResolved(resolved)); err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("write resolved fields: %w", err)
	}

	if err := s.states.SaveOverrideState(ctx, entityID, state); err != nil {
		return verrors.Wrap(verrors.CodePersistenceFailure, "save override state", err)
	}
	return nil
}

// revertLocked writes the base snapshot back onto the entity and clears the
// override session. With no snapshot there is nothing to restore, only
// stored state to drop.
func (s *Service) revertLocked(ctx context.Context, entityID string, state domain.OverrideState) error {
	if state.Base != nil {
		err := s.accessor.WriteFields(ctx, entityID, fieldsFromSnapshot(*state.Base))
		if err != nil && !errors.Is(err, scene.ErrNotFound) {
			return fmt.Errorf("restore base fields: %w", err)
		}
	}

	if err := s.states.SaveOverrideState(ctx, entityID, domain.OverrideState{}); err != nil {
		return verrors.Wrap(verrors.CodePersistenceFailure, "clear override state", err)
	}
	return nil
}

func snapshotFromFields(fields scene.Fields) domain.BaseSnapshot {
	return domain.BaseSnapshot{
		DisplayName: fields.DisplayName,
		Disposition: fields.Disposition,
		Texture:     fields.Texture,
		Width:       fields.Width,
		Height:      fields.Height,
		Ring:        fields.Ring,
	}
}

func fieldsFromSnapshot(base domain.BaseSnapshot) scene.Fields {
	return scene.Fields{
		DisplayName: base.DisplayName,
		Disposition: base.Disposition,
		Texture:     base.Texture,
		Width:       base.Width,
		Height:      base.Height,
		Ring:        base.Ring,
	}
}

func fieldsFromResolved(resolved domain.Resolved) scene.Fields {
	return scene.Fields{
		DisplayName: resolved.DisplayName,
		Disposition: resolved.Disposition,
		Texture:     resolved.Texture,
		Width:       resolved.Width,
		Height:      resolved.Height,
		Ring:        resolved.Ring,
	}
}

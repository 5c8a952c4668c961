package scene

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/visage-engine/internal/notify"
)

// maxJournalLen bounds the per-entity event journal kept for rolling-window
// conditions.
const maxJournalLen = 256

type memoryEntity struct {
	fields     Fields
	attributes map[string]Attribute
	statuses   map[string]bool
	journal    []GameEvent
}

// World is an in-memory scene used by the runtime in local mode and by
// tests. Mutations publish notifications on the attached bus so automation
// sees the same change feed a host adapter would produce.
type World struct {
	mu       sync.RWMutex
	bus      notify.Bus
	now      func() time.Time
	entities map[string]*memoryEntity
}

// NewWorld constructs an empty world publishing to bus. A nil bus disables
// notifications.
func NewWorld(bus notify.Bus) *World {
	return &World{
		bus:      bus,
		now:      time.Now,
		entities: make(map[string]*memoryEntity),
	}
}

func (w *World) publish(n notify.Notification) {
	if w.bus == nil {
		return
	}
	n.At = w.now().UTC()
	w.bus.Publish(n)
}

// AddEntity places an entity with the given live fields into the scene.
func (w *World) AddEntity(entityID string, fields Fields) {
	w.mu.Lock()
	w.entities[entityID] = &memoryEntity{
		fields:     fields,
		attributes: make(map[string]Attribute),
		statuses:   make(map[string]bool),
	}
	w.mu.Unlock()

	w.publish(notify.Notification{Kind: notify.KindEntityCreated, EntityID: entityID})
}

// RemoveEntity deletes an entity from the scene.
func (w *World) RemoveEntity(entityID string) {
	w.mu.Lock()
	_, existed := w.entities[entityID]
	delete(w.entities, entityID)
	w.mu.Unlock()

	if existed {
		w.publish(notify.Notification{Kind: notify.KindEntityDeleted, EntityID: entityID})
	}
}

// SetAttribute writes a numeric attribute and notifies subscribers.
func (w *World) SetAttribute(entityID, path string, value, max float64) error {
	w.mu.Lock()
	entity, ok := w.entities[entityID]
	if !ok {
		w.mu.Unlock()
		return ErrNotFound
	}
	entity.attributes[path] = Attribute{Value: value, Max: max}
	w.mu.Unlock()

	w.publish(notify.Notification{
		Kind:      notify.KindAttributeChanged,
		EntityID:  entityID,
		Attribute: path,
		Value:     value,
		Max:       max,
	})
	return nil
}

// AddStatus adds a status identifier to the entity's active set.
func (w *World) AddStatus(entityID, statusID string) error {
	w.mu.Lock()
	entity, ok := w.entities[entityID]
	if !ok {
		w.mu.Unlock()
		return ErrNotFound
	}
	entity.statuses[statusID] = true
	w.mu.Unlock()

	w.publish(notify.Notification{Kind: notify.KindStatusAdded, EntityID: entityID, StatusID: statusID})
	return nil
}

// RemoveStatus removes a status identifier from the entity's active set.
func (w *World) RemoveStatus(entityID, statusID string) error {
	w.mu.Lock()
	entity, ok := w.entities[entityID]
	if !ok {
		w.mu.Unlock()
		return ErrNotFound
	}
	delete(entity.statuses, statusID)
	w.mu.Unlock()

	w.publish(notify.Notification{Kind: notify.KindStatusRemoved, EntityID: entityID, StatusID: statusID})
	return nil
}

// RecordEvent appends a game event to the entity's journal.
func (w *World) RecordEvent(entityID, eventID, outcome string) error {
	w.mu.Lock()
	entity, ok := w.entities[entityID]
	if !ok {
		w.mu.Unlock()
		return ErrNotFound
	}
	event := GameEvent{EventID: eventID, EntityID: entityID, Outcome: outcome, At: w.now().UTC()}
	entity.journal = append(entity.journal, event)
	if len(entity.journal) > maxJournalLen {
		entity.journal = entity.journal[len(entity.journal)-maxJournalLen:]
	}
	w.mu.Unlock()

	w.publish(notify.Notification{Kind: notify.KindGameEvent, EntityID: entityID, EventID: eventID, Outcome: outcome})
	return nil
}

// ReadLiveFields returns the entity's current overridable fields.
func (w *World) ReadLiveFields(_ context.Context, entityID string) (Fields, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	entity, ok := w.entities[entityID]
	if !ok {
		return Fields{}, ErrNotFound
	}
	return entity.fields, nil
}

// WriteFields replaces the entity's overridable fields in one update.
func (w *World) WriteFields(_ context.Context, entityID string, fields Fields) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	entity, ok := w.entities[entityID]
	if !ok {
		return ErrNotFound
	}
	entity.fields = fields
	return nil
}

// ReadAttribute returns a named numeric attribute.
func (w *World) ReadAttribute(_ context.Context, entityID, path string) (Attribute, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	entity, ok := w.entities[entityID]
	if !ok {
		return Attribute{}, ErrNotFound
	}
	attr, ok := entity.attributes[path]
	if !ok {
		return Attribute{}, ErrNotFound
	}
	return attr, nil
}

// HasStatus reports membership in the entity's active-status set.
func (w *World) HasStatus(_ context.Context, entityID, statusID string) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	entity, ok := w.entities[entityID]
	if !ok {
		return false, ErrNotFound
	}
	return entity.statuses[statusID], nil
}

// RecentEvents returns the entity's journal entries at or after since,
// oldest first.
func (w *World) RecentEvents(_ context.Context, entityID string, since time.Time) ([]GameEvent, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	entity, ok := w.entities[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []GameEvent
	for _, event := range entity.journal {
		if !event.At.Before(since) {
			out = append(out, event)
		}
	}
	return out, nil
}

// ListEntityIDs returns the ids of every entity in the scene, sorted.
func (w *World) ListEntityIDs(_ context.Context) ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var (
	_ Accessor    = (*World)(nil)
	_ StateReader = (*World)(nil)
)

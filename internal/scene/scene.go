// Package scene defines the contracts the engine consumes from the host
// scene: live entity fields, attribute and status reads for automation, and
// the recent game-event log.
package scene

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// ErrNotFound indicates a requested entity is missing from the scene.
var ErrNotFound = errors.New("entity not found")

// Fields is the overridable slice of an entity's live state.
type Fields struct {
	DisplayName string
	Disposition domain.Disposition
	Texture     domain.Texture
	Width       float64
	Height      float64
	Ring        domain.Ring
}

// Accessor reads and writes an entity's overridable fields.
type Accessor interface {
	ReadLiveFields(ctx context.Context, entityID string) (Fields, error)
	WriteFields(ctx context.Context, entityID string, fields Fields) error
}

// Attribute is a named numeric value with an optional declared maximum.
// Max is zero when the attribute has no declared maximum.
type Attribute struct {
	Value float64
	Max   float64
}

// GameEvent is one entry from the host's event journal, used by event and
// action conditions.
type GameEvent struct {
	EventID  string
	EntityID string
	Outcome  string
	At       time.Time
}

// StateReader exposes the external state automation conditions evaluate
// against.
type StateReader interface {
	ReadAttribute(ctx context.Context, entityID, path string) (Attribute, error)
	HasStatus(ctx context.Context, entityID, statusID string) (bool, error)
	RecentEvents(ctx context.Context, entityID string, since time.Time) ([]GameEvent, error)
	ListEntityIDs(ctx context.Context) ([]string, error)
}

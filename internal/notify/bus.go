// Package notify carries state-change notifications from the host scene to
// interested consumers.
//
// Subscriptions are explicit and owned: Subscribe returns a handle the
// subscriber cancels on teardown, rather than registering ambient global
// hooks.
package notify

import (
	"sync"
	"time"
)

// Kind discriminates notification payloads.
type Kind int

const (
	// KindUnspecified represents an invalid notification kind.
	KindUnspecified Kind = iota
	// KindAttributeChanged reports a numeric attribute write on an entity.
	KindAttributeChanged
	// KindStatusAdded reports a status identifier added to an entity.
	KindStatusAdded
	// KindStatusRemoved reports a status identifier removed from an entity.
	KindStatusRemoved
	// KindEntityCreated reports a new entity entering the scene.
	KindEntityCreated
	// KindEntityDeleted reports an entity leaving the scene.
	KindEntityDeleted
	// KindGameEvent reports a game event or action resolution.
	KindGameEvent
)

// Notification describes one state change on one entity.
type Notification struct {
	Kind     Kind
	EntityID string
	At       time.Time

	// Attribute payload, set for KindAttributeChanged.
	Attribute string
	Value     float64
	Max       float64

	// Status payload, set for KindStatusAdded/KindStatusRemoved.
	StatusID string

	// Event payload, set for KindGameEvent.
	EventID string
	Outcome string
}

// Handler consumes notifications. Handlers run synchronously on the
// publisher's goroutine; slow work belongs on the handler's side.
type Handler func(Notification)

// Subscription is the cancellation handle returned by Subscribe.
type Subscription interface {
	Cancel()
}

// Bus delivers notifications to subscribers.
type Bus interface {
	Subscribe(handler Handler) Subscription
	Publish(n Notification)
}

// InProcessBus is the in-memory Bus used by the engine runtime and tests.
type InProcessBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

// NewInProcessBus constructs an empty in-process bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns its cancellation handle.
func (b *InProcessBus) Subscribe(handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = handler
	return &subscription{bus: b, id: id}
}

// Publish delivers the notification to every current subscriber in turn.
func (b *InProcessBus) Publish(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(n)
	}
}

type subscription struct {
	bus  *InProcessBus
	once sync.Once
	id   int
}

// Cancel removes the subscription; further notifications are not delivered.
func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs, s.id)
	})
}

var _ Bus = (*InProcessBus)(nil)

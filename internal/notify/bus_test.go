package notify

import (
	"testing"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInProcessBus()

	var got []Notification
	sub := bus.Subscribe(func(n Notification) {
		got = append(got, n)
	})
	defer sub.Cancel()

	bus.Publish(Notification{Kind: KindAttributeChanged, EntityID: "e1", Attribute: "hp", Value: 3})
	bus.Publish(Notification{Kind: KindStatusAdded, EntityID: "e1", StatusID: "prone"})

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
	if got[0].Attribute != "hp" || got[0].Value != 3 {
		t.Fatalf("first notification = %+v, want hp attribute change", got[0])
	}
	if got[1].StatusID != "prone" {
		t.Fatalf("second notification = %+v, want prone status", got[1])
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewInProcessBus()

	count := 0
	sub := bus.Subscribe(func(Notification) { count++ })

	bus.Publish(Notification{Kind: KindEntityCreated, EntityID: "e1"})
	sub.Cancel()
	sub.Cancel() // repeated cancel is safe
	bus.Publish(Notification{Kind: KindEntityDeleted, EntityID: "e1"})

	if count != 1 {
		t.Fatalf("deliveries = %d, want 1 after cancel", count)
	}
}

func TestPublishStampsTime(t *testing.T) {
	bus := NewInProcessBus()

	var got Notification
	sub := bus.Subscribe(func(n Notification) { got = n })
	defer sub.Cancel()

	bus.Publish(Notification{Kind: KindGameEvent, EntityID: "e1", EventID: "combat.start"})
	if got.At.IsZero() {
		t.Fatal("expected publish to stamp notification time")
	}
}

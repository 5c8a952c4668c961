package authority

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/visage-engine/internal/testkit/visagefakes"
)

func TestAcquireReportsHeld(t *testing.T) {
	store := visagefakes.NewLeaseStore()
	manager := NewManager(store, "host-a")

	if manager.Held() {
		t.Fatal("held = true before acquire")
	}
	if err := manager.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !manager.Held() {
		t.Fatal("held = false after acquire")
	}
}

func TestAcquireYieldsToLiveHolder(t *testing.T) {
	store := visagefakes.NewLeaseStore()
	other := NewManager(store, "host-a")
	if err := other.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	manager := NewManager(store, "host-b")
	if err := manager.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire against live holder: %v", err)
	}
	if manager.Held() {
		t.Fatal("held = true while another holder owns the lease")
	}
}

func TestAcquireTakesOverExpiredLease(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := visagefakes.NewLeaseStore()
	store.Now = func() time.Time { return current }

	other := NewManager(store, "host-a")
	if err := other.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	manager := NewManager(store, "host-b")
	if err := manager.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if manager.Held() {
		t.Fatal("held = true before the other lease expired")
	}

	current = current.Add(time.Minute)
	if err := manager.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if !manager.Held() {
		t.Fatal("held = false after the other lease expired")
	}
}

func TestRunReleasesOnCancel(t *testing.T) {
	store := visagefakes.NewLeaseStore()
	manager := NewManager(store, "host-a")
	manager.renewEvery = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for !manager.Held() {
		select {
		case <-deadline:
			t.Fatal("lease never acquired")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
	if manager.Held() {
		t.Fatal("held = true after release")
	}

	// The lease is free again for the next claimant.
	next := NewManager(store, "host-b")
	if err := next.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if !next.Held() {
		t.Fatal("released lease was not claimable")
	}
}

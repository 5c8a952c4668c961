// Package authority manages the single-owner lease that gates automation.
//
// The engine assumes exactly one authoritative writer per scene. The lease
// makes that assumption explicit: a process evaluates automation only while
// it holds the lease, and a failed-over host takes over once the previous
// holder's lease expires.
package authority

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/visage-engine/internal/platform/timeouts"
	"github.com/louisbranch/visage-engine/internal/storage"
)

// Manager acquires and renews the authority lease in the background.
type Manager struct {
	store      storage.LeaseStore
	holder     string
	ttl        time.Duration
	renewEvery time.Duration

	mu   sync.Mutex
	held bool
}

// NewManager constructs a lease manager for the given holder identity.
func NewManager(store storage.LeaseStore, holder string) *Manager {
	return &Manager{
		store:      store,
		holder:     holder,
		ttl:        timeouts.LeaseTTL,
		renewEvery: timeouts.LeaseRenew,
	}
}

// Held reports whether this process currently holds the lease.
func (m *Manager) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

func (m *Manager) setHeld(held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = held
}

// Acquire makes one claim attempt and records the outcome. A lease held by
// another live holder is not an error; Held reports false until it expires.
func (m *Manager) Acquire(ctx context.Context) error {
	_, err := m.store.AcquireLease(ctx, m.holder, m.ttl)
	if errors.Is(err, storage.ErrLeaseHeld) {
		m.setHeld(false)
		return nil
	}
	if err != nil {
		m.setHeld(false)
		return err
	}
	m.setHeld(true)
	return nil
}

// Run claims the lease and renews it until ctx is canceled, then releases
// it. Claim attempts continue while another holder owns the lease so this
// process takes over on expiry.
func (m *Manager) Run(ctx context.Context) {
	if err := m.Acquire(ctx); err != nil {
		log.Printf("authority: acquire lease: %v", err)
	}

	ticker := time.NewTicker(m.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.release()
			return
		case <-ticker.C:
			wasHeld := m.Held()
			if err := m.Acquire(ctx); err != nil {
				log.Printf("authority: renew lease: %v", err)
				continue
			}
			if held := m.Held(); held != wasHeld {
				if held {
					log.Printf("authority: lease acquired by %s", m.holder)
				} else {
					log.Printf("authority: lease lost by %s", m.holder)
				}
			}
		}
	}
}

// release frees the lease with a fresh deadline since the run context is
// already canceled.
func (m *Manager) release() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := m.store.ReleaseLease(ctx, m.holder); err != nil {
		log.Printf("authority: release lease: %v", err)
	}
	m.setHeld(false)
}

// Package storage defines the persistence interfaces for the visage engine.
//
// It abstracts where definitions, per-entity override state, and the
// authority lease live. Implementations (e.g. SQLite) are in subpackages.
//
// # Error Types
//
// The package defines common error types used across implementations:
//   - ErrNotFound: Indicates a requested record is missing.
//   - ErrLeaseHeld: Indicates another holder owns the authority lease.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrLeaseHeld indicates the authority lease belongs to another holder.
	ErrLeaseHeld = errors.New("authority lease held by another holder")
)

// DefinitionStore persists visage definitions.
type DefinitionStore interface {
	PutDefinition(ctx context.Context, def domain.VisageDefinition) error
	GetDefinition(ctx context.Context, id string) (domain.VisageDefinition, error)
	ListDefinitions(ctx context.Context) ([]domain.VisageDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

// OverrideStateStore persists per-entity override state as an atomic
// read/replace. Saving an empty state deletes the record.
type OverrideStateStore interface {
	LoadOverrideState(ctx context.Context, entityID string) (domain.OverrideState, error)
	SaveOverrideState(ctx context.Context, entityID string, state domain.OverrideState) error
}

// Lease is the stored authority lease record.
type Lease struct {
	Holder    string
	ExpiresAt time.Time
}

// LeaseStore persists the single-owner authority lease with
// compare-and-swap acquire semantics.
type LeaseStore interface {
	// AcquireLease claims the lease for holder if it is free or expired,
	// or renews it if holder already owns it. Returns ErrLeaseHeld when a
	// live lease belongs to someone else.
	AcquireLease(ctx context.Context, holder string, ttl time.Duration) (Lease, error)
	// ReleaseLease frees the lease if holder owns it; releasing a lease
	// held elsewhere is a no-op.
	ReleaseLease(ctx context.Context, holder string) error
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/visage-engine/internal/storage"
)

// leaseName keys the single authority lease row.
const leaseName = "authority"

// AcquireLease claims or renews the authority lease for holder. A live
// lease owned by someone else returns ErrLeaseHeld.
func (s *Store) AcquireLease(ctx context.Context, holder string, ttl time.Duration) (storage.Lease, error) {
	if err := ctx.Err(); err != nil {
		return storage.Lease{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Lease{}, fmt.Errorf("storage is not configured")
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return storage.Lease{}, fmt.Errorf("lease holder is required")
	}
	if ttl <= 0 {
		return storage.Lease{}, fmt.Errorf("lease ttl must be positive")
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Lease{}, fmt.Errorf("begin lease acquire: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
SELECT holder, expires_at FROM authority_leases WHERE name = ?
`, leaseName)
	var currentHolder string
	var currentExpiry int64
	err = row.Scan(&currentHolder, &currentExpiry)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
INSERT INTO authority_leases (name, holder, expires_at) VALUES (?, ?, ?)
`, leaseName, holder, toMillis(expiresAt)); err != nil {
			return storage.Lease{}, fmt.Errorf("insert lease: %w", err)
		}
	case err != nil:
		return storage.Lease{}, fmt.Errorf("read lease: %w", err)
	default:
		if currentHolder != holder && fromMillis(currentExpiry).After(now) {
			return storage.Lease{}, storage.ErrLeaseHeld
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE authority_leases SET holder = ?, expires_at = ? WHERE name = ?
`, holder, toMillis(expiresAt), leaseName); err != nil {
			return storage.Lease{}, fmt.Errorf("update lease: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Lease{}, fmt.Errorf("commit lease acquire: %w", err)
	}
	return storage.Lease{Holder: holder, ExpiresAt: expiresAt}, nil
}

// ReleaseLease frees the lease when holder owns it. Releasing a lease held
// elsewhere is a no-op.
func (s *Store) ReleaseLease(ctx context.Context, holder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return fmt.Errorf("lease holder is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM authority_leases WHERE name = ? AND holder = ?
`, leaseName, holder); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

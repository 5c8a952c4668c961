package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// LoadOverrideState loads one entity's override state. A missing row is an
// empty state, not an error.
func (s *Store) LoadOverrideState(ctx context.Context, entityID string) (domain.OverrideState, error) {
	if err := ctx.Err(); err != nil {
		return domain.OverrideState{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.OverrideState{}, fmt.Errorf("storage is not configured")
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return domain.OverrideState{}, fmt.Errorf("entity id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT state_json FROM override_states WHERE entity_id = ?
`, entityID)
	var stateJSON string
	if err := row.Scan(&stateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OverrideState{}, nil
		}
		return domain.OverrideState{}, fmt.Errorf("load override state: %w", err)
	}

	var state domain.OverrideState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return domain.OverrideState{}, fmt.Errorf("unmarshal override state: %w", err)
	}
	return state, nil
}

// SaveOverrideState atomically replaces one entity's override state. Saving
// an empty state deletes the row.
func (s *Store) SaveOverrideState(ctx context.Context, entityID string, state domain.OverrideState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return fmt.Errorf("entity id is required")
	}

	if state.IsEmpty() && state.Base == nil {
		if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM override_states WHERE entity_id = ?
`, entityID); err != nil {
			return fmt.Errorf("delete override state: %w", err)
		}
		return nil
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal override state: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO override_states (entity_id, state_json, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(entity_id) DO UPDATE SET
	state_json = excluded.state_json,
	updated_at = excluded.updated_at
`, entityID, string(stateJSON), toMillis(s.now())); err != nil {
		return fmt.Errorf("save override state: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/visage-engine/internal/storage"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// PutDefinition upserts one visage definition row.
func (s *Store) PutDefinition(ctx context.Context, def domain.VisageDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return fmt.Errorf("definition id is required")
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = s.now()
	}
	if def.UpdatedAt.IsZero() {
		def.UpdatedAt = def.CreatedAt
	}

	changesetJSON, err := json.Marshal(def.Changeset)
	if err != nil {
		return fmt.Errorf("marshal changeset: %w", err)
	}
	var ruleJSON sql.NullString
	if def.Rule != nil {
		encoded, err := json.Marshal(def.Rule)
		if err != nil {
			return fmt.Errorf("marshal rule: %w", err)
		}
		ruleJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO visage_definitions (
	id, name, mode, changeset_json, rule_json, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	mode = excluded.mode,
	changeset_json = excluded.changeset_json,
	rule_json = excluded.rule_json,
	updated_at = excluded.updated_at
`,
		def.ID,
		def.Name,
		def.Mode.String(),
		string(changesetJSON),
		ruleJSON,
		toMillis(def.CreatedAt),
		toMillis(def.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put definition: %w", err)
	}
	return nil
}

// GetDefinition loads one visage definition by id.
func (s *Store) GetDefinition(ctx context.Context, id string) (domain.VisageDefinition, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisageDefinition{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.VisageDefinition{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.VisageDefinition{}, fmt.Errorf("definition id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, mode, changeset_json, rule_json, created_at, updated_at
FROM visage_definitions
WHERE id = ?
`, id)
	def, err := scanDefinition(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VisageDefinition{}, storage.ErrNotFound
		}
		return domain.VisageDefinition{}, fmt.Errorf("get definition: %w", err)
	}
	return def, nil
}

// ListDefinitions lists every visage definition ordered by name.
func (s *Store) ListDefinitions(ctx context.Context) ([]domain.VisageDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, mode, changeset_json, rule_json, created_at, updated_at
FROM visage_definitions
ORDER BY name ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.VisageDefinition
	for rows.Next() {
		def, scanErr := scanDefinition(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan definition row: %w", scanErr)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definition rows: %w", err)
	}
	return defs, nil
}

// DeleteDefinition removes one visage definition by id.
func (s *Store) DeleteDefinition(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("definition id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM visage_definitions WHERE id = ?
`, id)
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete definition rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner func(dest ...any) error

func scanDefinition(scan scanner) (domain.VisageDefinition, error) {
	var def domain.VisageDefinition
	var mode string
	var changesetJSON string
	var ruleJSON sql.NullString
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&def.ID,
		&def.Name,
		&mode,
		&changesetJSON,
		&ruleJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.VisageDefinition{}, err
	}

	parsedMode, err := domain.ParseMode(mode)
	if err != nil {
		return domain.VisageDefinition{}, fmt.Errorf("parse mode %q: %w", mode, err)
	}
	def.Mode = parsedMode

	if err := json.Unmarshal([]byte(changesetJSON), &def.Changeset); err != nil {
		return domain.VisageDefinition{}, fmt.Errorf("unmarshal changeset: %w", err)
	}
	if ruleJSON.Valid {
		var rule domain.AutomationRule
		if err := json.Unmarshal([]byte(ruleJSON.String), &rule); err != nil {
			return domain.VisageDefinition{}, fmt.Errorf("unmarshal rule: %w", err)
		}
		def.Rule = &rule
	}

	def.CreatedAt = fromMillis(createdAt)
	def.UpdatedAt = fromMillis(updatedAt)
	return def, nil
}

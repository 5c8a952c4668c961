package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyDefinitionName indicates a missing definition name.
	ErrEmptyDefinitionName = errors.New("definition name is required")
)

// VisageDefinition is a stored, reusable named override template.
type VisageDefinition struct {
	ID        string
	Name      string
	Changeset Changeset
	Mode      Mode
	Rule      *AutomationRule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AutomationEnabled reports whether the definition carries an enabled rule.
func (d VisageDefinition) AutomationEnabled() bool {
	return d.Rule != nil && d.Rule.Enabled
}

// CreateDefinitionInput describes the data needed to create a definition.
type CreateDefinitionInput struct {
	Name      string
	Changeset Changeset
	Mode      Mode
	Rule      *AutomationRule
}

// CreateDefinition creates a new definition with a generated ID and
// timestamps. The changeset is sanitized; per-field faults are returned
// alongside the definition so the caller can report them without losing the
// valid remainder.
func CreateDefinition(input CreateDefinitionInput, now func() time.Time, idGenerator func() (string, error)) (VisageDefinition, []error, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		return VisageDefinition{}, nil, fmt.Errorf("id generator is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return VisageDefinition{}, nil, ErrEmptyDefinitionName
	}
	if !input.Mode.Valid() {
		return VisageDefinition{}, nil, ErrInvalidMode
	}
	if input.Rule != nil {
		if err := input.Rule.Validate(); err != nil {
			return VisageDefinition{}, nil, fmt.Errorf("automation rule: %w", err)
		}
	}

	changeset, faults := input.Changeset.Sanitized()

	id, err := idGenerator()
	if err != nil {
		return VisageDefinition{}, nil, fmt.Errorf("generate definition id: %w", err)
	}

	timestamp := now().UTC()
	return VisageDefinition{
		ID:        id,
		Name:      name,
		Changeset: changeset,
		Mode:      input.Mode,
		Rule:      input.Rule,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}, faults, nil
}

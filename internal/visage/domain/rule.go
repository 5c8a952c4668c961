package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Logic combines the boolean results of a rule's conditions.
type Logic int

const (
	// LogicUnspecified represents an invalid logic value.
	LogicUnspecified Logic = iota
	// LogicAnd requires every condition to hold.
	LogicAnd
	// LogicOr requires any condition to hold.
	LogicOr
)

// String returns the canonical name for the logic value.
func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "and"
	case LogicOr:
		return "or"
	default:
		return "unspecified"
	}
}

// ParseLogic maps a stored name back to a Logic value.
func ParseLogic(value string) (Logic, error) {
	switch value {
	case "and":
		return LogicAnd, nil
	case "or":
		return LogicOr, nil
	default:
		return LogicUnspecified, ErrInvalidLogic
	}
}

// ReactionAction names the stack mutation fired on a latch transition.
type ReactionAction int

const (
	// ReactionUnspecified represents an invalid reaction value.
	ReactionUnspecified ReactionAction = iota
	// ReactionApply pushes the definition's layer onto the entity.
	ReactionApply
	// ReactionRemove removes the definition's layer from the entity.
	ReactionRemove
)

// String returns the canonical name for the reaction action.
func (a ReactionAction) String() string {
	switch a {
	case ReactionApply:
		return "apply"
	case ReactionRemove:
		return "remove"
	default:
		return "unspecified"
	}
}

// ParseReactionAction maps a stored name back to a ReactionAction.
func ParseReactionAction(value string) (ReactionAction, error) {
	switch value {
	case "apply":
		return ReactionApply, nil
	case "remove":
		return ReactionRemove, nil
	default:
		return ReactionUnspecified, ErrInvalidReaction
	}
}

// Reaction describes the side effect of one latch edge.
type Reaction struct {
	Action ReactionAction
}

// CompareOp is the comparison operator for attribute conditions.
type CompareOp int

const (
	// CompareUnspecified represents an invalid operator value.
	CompareUnspecified CompareOp = iota
	// CompareLTE holds when the attribute is at most the target value.
	CompareLTE
	// CompareGTE holds when the attribute is at least the target value.
	CompareGTE
	// CompareEQ holds when the attribute equals the target value.
	CompareEQ
	// CompareNEQ holds when the attribute differs from the target value.
	CompareNEQ
)

// String returns the canonical name for the comparison operator.
func (o CompareOp) String() string {
	switch o {
	case CompareLTE:
		return "lte"
	case CompareGTE:
		return "gte"
	case CompareEQ:
		return "eq"
	case CompareNEQ:
		return "neq"
	default:
		return "unspecified"
	}
}

// PresenceOp is the operator for status and event conditions.
type PresenceOp int

const (
	// PresenceUnspecified represents an invalid presence operator.
	PresenceUnspecified PresenceOp = iota
	// PresenceActive requires the subject to be present.
	PresenceActive
	// PresenceInactive requires the subject to be absent.
	PresenceInactive
)

// ConditionKind discriminates the condition variants.
type ConditionKind int

const (
	// ConditionUnspecified represents an invalid condition kind.
	ConditionUnspecified ConditionKind = iota
	// ConditionAttribute compares a numeric attribute read by path.
	ConditionAttribute
	// ConditionStatus tests membership in the entity's active-status set.
	ConditionStatus
	// ConditionEvent tests recency of a game event.
	ConditionEvent
	// ConditionAction tests the outcome of a recent game action.
	ConditionAction
	// ConditionScript evaluates a Lua expression against entity state.
	ConditionScript
)

var (
	// ErrInvalidLogic indicates a rule logic outside AND/OR.
	ErrInvalidLogic = errors.New("rule logic must be and or or")
	// ErrInvalidReaction indicates a reaction outside apply/remove.
	ErrInvalidReaction = errors.New("reaction must be apply or remove")
	// ErrRuleNoConditions indicates an enabled rule without conditions.
	ErrRuleNoConditions = errors.New("enabled rule requires at least one condition")
	// ErrInvalidConditionKind indicates a condition whose kind and payload disagree.
	ErrInvalidConditionKind = errors.New("condition payload does not match its kind")
	// ErrInvalidCompareOp indicates an unknown comparison operator.
	ErrInvalidCompareOp = errors.New("comparison operator is not a known value")
	// ErrInvalidPresenceOp indicates an unknown presence operator.
	ErrInvalidPresenceOp = errors.New("presence operator must be active or inactive")
)

// AttributeCondition compares a named numeric value against a target.
// When Percent is set the value is interpreted as a percentage of the
// attribute's declared maximum.
type AttributeCondition struct {
	Path    string
	Op      CompareOp
	Value   float64
	Percent bool
}

// StatusCondition tests a status identifier against the entity's active set.
type StatusCondition struct {
	StatusID string
	Op       PresenceOp
}

// EventCondition tests for a matching game event within an optional rolling
// window. A zero window means only the most recent event is considered.
type EventCondition struct {
	EventID string
	Op      PresenceOp
	Window  time.Duration
}

// ActionCondition matches the outcome of the most recent relevant action
// within an optional rolling window.
type ActionCondition struct {
	ActionType string
	Outcome    string
	Window     time.Duration
}

// ScriptCondition evaluates a Lua expression returning a boolean.
type ScriptCondition struct {
	Source string
}

// Condition is a tagged variant over the supported condition payloads.
// Exactly the payload named by Kind must be set.
type Condition struct {
	Kind      ConditionKind
	Attribute *AttributeCondition
	Status    *StatusCondition
	Event     *EventCondition
	Action    *ActionCondition
	Script    *ScriptCondition
}

// Validate checks that the condition's payload matches its kind and that
// operators are within their known sets.
func (c Condition) Validate() error {
	switch c.Kind {
	case ConditionAttribute:
		if c.Attribute == nil {
			return ErrInvalidConditionKind
		}
		if strings.TrimSpace(c.Attribute.Path) == "" {
			return fmt.Errorf("attribute condition path is required")
		}
		switch c.Attribute.Op {
		case CompareLTE, CompareGTE, CompareEQ, CompareNEQ:
		default:
			return ErrInvalidCompareOp
		}
	case ConditionStatus:
		if c.Status == nil {
			return ErrInvalidConditionKind
		}
		if strings.TrimSpace(c.Status.StatusID) == "" {
			return fmt.Errorf("status condition id is required")
		}
		if c.Status.Op != PresenceActive && c.Status.Op != PresenceInactive {
			return ErrInvalidPresenceOp
		}
	case ConditionEvent:
		if c.Event == nil {
			return ErrInvalidConditionKind
		}
		if strings.TrimSpace(c.Event.EventID) == "" {
			return fmt.Errorf("event condition id is required")
		}
		if c.Event.Op != PresenceActive && c.Event.Op != PresenceInactive {
			return ErrInvalidPresenceOp
		}
	case ConditionAction:
		if c.Action == nil {
			return ErrInvalidConditionKind
		}
		if strings.TrimSpace(c.Action.ActionType) == "" {
			return fmt.Errorf("action condition type is required")
		}
	case ConditionScript:
		if c.Script == nil || strings.TrimSpace(c.Script.Source) == "" {
			return ErrInvalidConditionKind
		}
	default:
		return ErrInvalidConditionKind
	}
	return nil
}

// AutomationRule watches external state changes and drives a definition's
// apply/remove transitions through a per-entity latch.
type AutomationRule struct {
	Enabled    bool
	Logic      Logic
	Conditions []Condition
	OnEnter    Reaction
	OnExit     Reaction
}

// Validate checks the rule's logic, reactions, and every condition.
// Disabled rules are accepted as-is so drafts can be stored.
func (r AutomationRule) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Logic != LogicAnd && r.Logic != LogicOr {
		return ErrInvalidLogic
	}
	if len(r.Conditions) == 0 {
		return ErrRuleNoConditions
	}
	if r.OnEnter.Action != ReactionApply && r.OnEnter.Action != ReactionRemove {
		return fmt.Errorf("on-enter: %w", ErrInvalidReaction)
	}
	if r.OnExit.Action != ReactionApply && r.OnExit.Action != ReactionRemove {
		return fmt.Errorf("on-exit: %w", ErrInvalidReaction)
	}
	for i, cond := range r.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}

package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// ScriptRunner evaluates a script condition's source against the entity's
// current state. Implementations live outside this package so the evaluator
// does not depend on a scripting runtime directly.
type ScriptRunner interface {
	RunScript(ctx context.Context, entityID, source string, reader scene.StateReader) (bool, error)
}

// evaluateRule reads external state through the reader and folds every
// condition under the rule's logic. Any condition error fails the whole
// evaluation; the caller decides what to do with the latch.
func evaluateRule(ctx context.Context, reader scene.StateReader, scripts ScriptRunner, entityID string, rule domain.AutomationRule, now time.Time) (bool, error) {
	if len(rule.Conditions) == 0 {
		return false, domain.ErrRuleNoConditions
	}

	for i, cond := range rule.Conditions {
		held, err := evaluateCondition(ctx, reader, scripts, entityID, cond, now)
		if err != nil {
			return false, fmt.Errorf("condition %d: %w", i, err)
		}
		switch rule.Logic {
		case domain.LogicAnd:
			if !held {
				return false, nil
			}
		case domain.LogicOr:
			if held {
				return true, nil
			}
		default:
			return false, domain.ErrInvalidLogic
		}
	}

	return rule.Logic == domain.LogicAnd, nil
}

func evaluateCondition(ctx context.Context, reader scene.StateReader, scripts ScriptRunner, entityID string, cond domain.Condition, now time.Time) (bool, error) {
	switch cond.Kind {
	case domain.ConditionAttribute:
		return evaluateAttribute(ctx, reader, entityID, cond.Attribute)
	case domain.ConditionStatus:
		return evaluateStatus(ctx, reader, entityID, cond.Status)
	case domain.ConditionEvent:
		return evaluateEvent(ctx, reader, entityID, cond.Event, now)
	case domain.ConditionAction:
		return evaluateAction(ctx, reader, entityID, cond.Action, now)
	case domain.ConditionScript:
		if scripts == nil {
			return false, fmt.Errorf("script conditions are not enabled")
		}
		return scripts.RunScript(ctx, entityID, cond.Script.Source, reader)
	default:
		return false, domain.ErrInvalidConditionKind
	}
}

func evaluateAttribute(ctx context.Context, reader scene.StateReader, entityID string, cond *domain.AttributeCondition) (bool, error) {
	attr, err := reader.ReadAttribute(ctx, entityID, cond.Path)
	if errors.Is(err, scene.ErrNotFound) {
		// An unset attribute never satisfies a comparison.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	value := attr.Value
	if cond.Percent {
		if attr.Max <= 0 {
			return false, fmt.Errorf("attribute %q has no maximum for a percent comparison", cond.Path)
		}
		value = attr.Value / attr.Max * 100
	}

	switch cond.Op {
	case domain.CompareLTE:
		return value <= cond.Value, nil
	case domain.CompareGTE:
		return value >= cond.Value, nil
	case domain.CompareEQ:
		return value == cond.Value, nil
	case domain.CompareNEQ:
		return value != cond.Value, nil
	default:
		return false, domain.ErrInvalidCompareOp
	}
}

func evaluateStatus(ctx context.Context, reader scene.StateReader, entityID string, cond *domain.StatusCondition) (bool, error) {
	active, err := reader.HasStatus(ctx, entityID, cond.StatusID)
	if err != nil {
		return false, err
	}
	if cond.Op == domain.PresenceInactive {
		return !active, nil
	}
	return active, nil
}

// evaluateEvent tests whether a matching event occurred within the rolling
// window. A zero window inspects only the most recent journal entry.
func evaluateEvent(ctx context.Context, reader scene.StateReader, entityID string, cond *domain.EventCondition, now time.Time) (bool, error) {
	var since time.Time
	if cond.Window > 0 {
		since = now.Add(-cond.Window)
	}
	events, err := reader.RecentEvents(ctx, entityID, since)
	if err != nil {
		return false, err
	}

	var matched bool
	if cond.Window > 0 {
		for _, ev := range events {
			if ev.EventID == cond.EventID {
				matched = true
				break
			}
		}
	} else if len(events) > 0 {
		matched = events[len(events)-1].EventID == cond.EventID
	}

	if cond.Op == domain.PresenceInactive {
		return !matched, nil
	}
	return matched, nil
}

// evaluateAction matches the outcome of the most recent event of the given
// action type, scoped to the rolling window when one is set.
func evaluateAction(ctx context.Context, reader scene.StateReader, entityID string, cond *domain.ActionCondition, now time.Time) (bool, error) {
	var since time.Time
	if cond.Window > 0 {
		since = now.Add(-cond.Window)
	}
	events, err := reader.RecentEvents(ctx, entityID, since)
	if err != nil {
		return false, err
	}

	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EventID != cond.ActionType {
			continue
		}
		return events[i].Outcome == cond.Outcome, nil
	}
	return false, nil
}

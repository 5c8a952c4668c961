package automation

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

func attrCond(path string, op domain.CompareOp, value float64, percent bool) domain.Condition {
	return domain.Condition{
		Kind:      domain.ConditionAttribute,
		Attribute: &domain.AttributeCondition{Path: path, Op: op, Value: value, Percent: percent},
	}
}

func statusCond(id string, op domain.PresenceOp) domain.Condition {
	return domain.Condition{
		Kind:   domain.ConditionStatus,
		Status: &domain.StatusCondition{StatusID: id, Op: op},
	}
}

func TestEvaluateAttributeCondition(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.SetAttribute("e1", "hp", 30, 100); err != nil {
		t.Fatalf("set attribute: %v", err)
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"lte holds", attrCond("hp", domain.CompareLTE, 30, false), true},
		{"lte fails", attrCond("hp", domain.CompareLTE, 29, false), false},
		{"gte holds", attrCond("hp", domain.CompareGTE, 30, false), true},
		{"eq holds", attrCond("hp", domain.CompareEQ, 30, false), true},
		{"neq holds", attrCond("hp", domain.CompareNEQ, 31, false), true},
		{"percent of max", attrCond("hp", domain.CompareLTE, 30, true), true},
		{"percent boundary", attrCond("hp", domain.CompareLTE, 29, true), false},
		{"unset attribute is false", attrCond("mana", domain.CompareGTE, 0, false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluateCondition(context.Background(), world, nil, "e1", tt.cond, time.Now())
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("held = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluatePercentWithoutMaxFails(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.SetAttribute("e1", "rage", 5, 0); err != nil {
		t.Fatalf("set attribute: %v", err)
	}

	cond := attrCond("rage", domain.CompareGTE, 50, true)
	if _, err := evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now()); err == nil {
		t.Fatal("expected error for percent comparison without a maximum")
	}
}

func TestEvaluateStatusCondition(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.AddStatus("e1", "poisoned"); err != nil {
		t.Fatalf("add status: %v", err)
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"active holds", statusCond("poisoned", domain.PresenceActive), true},
		{"active fails", statusCond("blessed", domain.PresenceActive), false},
		{"inactive holds", statusCond("blessed", domain.PresenceInactive), true},
		{"inactive fails", statusCond("poisoned", domain.PresenceInactive), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluateCondition(context.Background(), world, nil, "e1", tt.cond, time.Now())
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("held = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateEventConditionZeroWindow(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.RecordEvent("e1", "attacked", ""); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := world.RecordEvent("e1", "healed", ""); err != nil {
		t.Fatalf("record event: %v", err)
	}

	// A zero window inspects only the most recent entry.
	cond := domain.Condition{
		Kind:  domain.ConditionEvent,
		Event: &domain.EventCondition{EventID: "attacked", Op: domain.PresenceActive},
	}
	got, err := evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got {
		t.Fatal("held = true, want false when a later event displaced the match")
	}

	cond.Event.EventID = "healed"
	got, err = evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !got {
		t.Fatal("held = false, want true for the most recent event")
	}
}

func TestEvaluateEventConditionRollingWindow(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.RecordEvent("e1", "attacked", ""); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := world.RecordEvent("e1", "healed", ""); err != nil {
		t.Fatalf("record event: %v", err)
	}

	cond := domain.Condition{
		Kind:  domain.ConditionEvent,
		Event: &domain.EventCondition{EventID: "attacked", Op: domain.PresenceActive, Window: time.Minute},
	}
	got, err := evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !got {
		t.Fatal("held = false, want true inside the rolling window")
	}

	// Outside the window nothing matches.
	future := time.Now().Add(time.Hour)
	got, err = evaluateCondition(context.Background(), world, nil, "e1", cond, future)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got {
		t.Fatal("held = true, want false once the window has passed")
	}
}

func TestEvaluateActionCondition(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.RecordEvent("e1", "attack", "failure"); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := world.RecordEvent("e1", "attack", "success"); err != nil {
		t.Fatalf("record event: %v", err)
	}

	cond := domain.Condition{
		Kind:   domain.ConditionAction,
		Action: &domain.ActionCondition{ActionType: "attack", Outcome: "success"},
	}
	got, err := evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !got {
		t.Fatal("held = false, want true for the most recent attack outcome")
	}

	cond.Action.Outcome = "failure"
	got, err = evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got {
		t.Fatal("held = true, want false when only an older action matches")
	}
}

func TestEvaluateRuleLogic(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})
	if err := world.SetAttribute("e1", "hp", 10, 100); err != nil {
		t.Fatalf("set attribute: %v", err)
	}
	if err := world.AddStatus("e1", "poisoned"); err != nil {
		t.Fatalf("add status: %v", err)
	}

	lowHP := attrCond("hp", domain.CompareLTE, 25, false)
	blessed := statusCond("blessed", domain.PresenceActive)

	tests := []struct {
		name  string
		logic domain.Logic
		conds []domain.Condition
		want  bool
	}{
		{"and all hold", domain.LogicAnd, []domain.Condition{lowHP, statusCond("poisoned", domain.PresenceActive)}, true},
		{"and one fails", domain.LogicAnd, []domain.Condition{lowHP, blessed}, false},
		{"or one holds", domain.LogicOr, []domain.Condition{blessed, lowHP}, true},
		{"or none hold", domain.LogicOr, []domain.Condition{blessed, attrCond("hp", domain.CompareGTE, 90, false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := domain.AutomationRule{
				Enabled:    true,
				Logic:      tt.logic,
				Conditions: tt.conds,
				OnEnter:    domain.Reaction{Action: domain.ReactionApply},
				OnExit:     domain.Reaction{Action: domain.ReactionRemove},
			}
			got, err := evaluateRule(context.Background(), world, nil, "e1", rule, time.Now())
			if err != nil {
				t.Fatalf("evaluate rule: %v", err)
			}
			if got != tt.want {
				t.Fatalf("held = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScriptConditionWithoutRunnerFails(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddEntity("e1", scene.Fields{})

	cond := domain.Condition{
		Kind:   domain.ConditionScript,
		Script: &domain.ScriptCondition{Source: "true"},
	}
	if _, err := evaluateCondition(context.Background(), world, nil, "e1", cond, time.Now()); err == nil {
		t.Fatal("expected error when no script runner is configured")
	}
}

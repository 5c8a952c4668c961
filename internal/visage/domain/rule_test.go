package domain

import (
	"errors"
	"testing"
)

func validRule() AutomationRule {
	return AutomationRule{
		Enabled: true,
		Logic:   LogicAnd,
		Conditions: []Condition{
			{Kind: ConditionAttribute, Attribute: &AttributeCondition{Path: "hp", Op: CompareLTE, Value: 0}},
		},
		OnEnter: Reaction{Action: ReactionApply},
		OnExit:  Reaction{Action: ReactionRemove},
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AutomationRule)
		wantErr error
	}{
		{"valid", func(*AutomationRule) {}, nil},
		{"disabled rules skip validation", func(r *AutomationRule) {
			r.Enabled = false
			r.Conditions = nil
			r.Logic = LogicUnspecified
		}, nil},
		{"missing logic", func(r *AutomationRule) { r.Logic = LogicUnspecified }, ErrInvalidLogic},
		{"no conditions", func(r *AutomationRule) { r.Conditions = nil }, ErrRuleNoConditions},
		{"bad on-enter", func(r *AutomationRule) { r.OnEnter.Action = ReactionUnspecified }, ErrInvalidReaction},
		{"bad on-exit", func(r *AutomationRule) { r.OnExit.Action = ReactionUnspecified }, ErrInvalidReaction},
		{"condition kind mismatch", func(r *AutomationRule) {
			r.Conditions = []Condition{{Kind: ConditionStatus, Attribute: &AttributeCondition{}}}
		}, ErrInvalidConditionKind},
		{"bad compare op", func(r *AutomationRule) {
			r.Conditions = []Condition{{Kind: ConditionAttribute, Attribute: &AttributeCondition{Path: "hp"}}}
		}, ErrInvalidCompareOp},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(&rule)
			err := rule.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("validate = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestConditionValidateVariants(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"attribute ok", Condition{Kind: ConditionAttribute, Attribute: &AttributeCondition{Path: "hp", Op: CompareGTE, Value: 5}}, false},
		{"attribute percent ok", Condition{Kind: ConditionAttribute, Attribute: &AttributeCondition{Path: "hp", Op: CompareLTE, Value: 50, Percent: true}}, false},
		{"attribute empty path", Condition{Kind: ConditionAttribute, Attribute: &AttributeCondition{Op: CompareLTE}}, true},
		{"status ok", Condition{Kind: ConditionStatus, Status: &StatusCondition{StatusID: "prone", Op: PresenceActive}}, false},
		{"status bad op", Condition{Kind: ConditionStatus, Status: &StatusCondition{StatusID: "prone"}}, true},
		{"event ok", Condition{Kind: ConditionEvent, Event: &EventCondition{EventID: "combat.start", Op: PresenceActive}}, false},
		{"action ok", Condition{Kind: ConditionAction, Action: &ActionCondition{ActionType: "attack", Outcome: "critical"}}, false},
		{"action empty type", Condition{Kind: ConditionAction, Action: &ActionCondition{}}, true},
		{"script ok", Condition{Kind: ConditionScript, Script: &ScriptCondition{Source: "return hp <= 0"}}, false},
		{"script empty", Condition{Kind: ConditionScript, Script: &ScriptCondition{}}, true},
		{"unknown kind", Condition{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cond.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, logic := range []Logic{LogicAnd, LogicOr} {
		parsed, err := ParseLogic(logic.String())
		if err != nil {
			t.Fatalf("parse logic %q: %v", logic, err)
		}
		if parsed != logic {
			t.Fatalf("parse logic = %v, want %v", parsed, logic)
		}
	}
	for _, action := range []ReactionAction{ReactionApply, ReactionRemove} {
		parsed, err := ParseReactionAction(action.String())
		if err != nil {
			t.Fatalf("parse reaction %q: %v", action, err)
		}
		if parsed != action {
			t.Fatalf("parse reaction = %v, want %v", parsed, action)
		}
	}
	if _, err := ParseLogic("nand"); !errors.Is(err, ErrInvalidLogic) {
		t.Fatalf("expected ErrInvalidLogic, got %v", err)
	}
}

package domain

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func staticID() (string, error) {
	return "def-1", nil
}

func TestCreateDefinition(t *testing.T) {
	def, faults, err := CreateDefinition(CreateDefinitionInput{
		Name: "  Wolf Form  ",
		Mode: ModeIdentity,
		Changeset: Changeset{
			ImageRef:       strPtr("wolf.webp"),
			ScaleMagnitude: floatPtr(1.5),
		},
	}, fixedNow, staticID)
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if len(faults) != 0 {
		t.Fatalf("faults = %v, want none", faults)
	}
	if def.ID != "def-1" {
		t.Fatalf("id = %q, want generated id", def.ID)
	}
	if def.Name != "Wolf Form" {
		t.Fatalf("name = %q, want trimmed", def.Name)
	}
	if !def.CreatedAt.Equal(fixedNow()) || !def.UpdatedAt.Equal(fixedNow()) {
		t.Fatalf("timestamps = %v/%v, want %v", def.CreatedAt, def.UpdatedAt, fixedNow())
	}
}

func TestCreateDefinitionRejectsEmptyName(t *testing.T) {
	_, _, err := CreateDefinition(CreateDefinitionInput{Name: "   ", Mode: ModeOverlay}, fixedNow, staticID)
	if !errors.Is(err, ErrEmptyDefinitionName) {
		t.Fatalf("err = %v, want ErrEmptyDefinitionName", err)
	}
}

func TestCreateDefinitionRejectsInvalidMode(t *testing.T) {
	_, _, err := CreateDefinition(CreateDefinitionInput{Name: "Wolf"}, fixedNow, staticID)
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
}

func TestCreateDefinitionRejectsInvalidRule(t *testing.T) {
	rule := AutomationRule{Enabled: true, Logic: LogicAnd}
	_, _, err := CreateDefinition(CreateDefinitionInput{Name: "Wolf", Mode: ModeOverlay, Rule: &rule}, fixedNow, staticID)
	if !errors.Is(err, ErrRuleNoConditions) {
		t.Fatalf("err = %v, want ErrRuleNoConditions", err)
	}
}

func TestCreateDefinitionSanitizesChangeset(t *testing.T) {
	def, faults, err := CreateDefinition(CreateDefinitionInput{
		Name: "Wolf",
		Mode: ModeOverlay,
		Changeset: Changeset{
			ScaleMagnitude: floatPtr(-1),
			DisplayName:    strPtr("Wolf"),
		},
	}, fixedNow, staticID)
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if len(faults) != 1 {
		t.Fatalf("faults = %v, want one rejected field", faults)
	}
	if def.Changeset.ScaleMagnitude != nil {
		t.Fatal("expected invalid scale dropped from stored changeset")
	}
	if def.Changeset.DisplayName == nil {
		t.Fatal("expected valid field kept")
	}
}

func TestAutomationEnabled(t *testing.T) {
	def := VisageDefinition{}
	if def.AutomationEnabled() {
		t.Fatal("definition without rule should not report automation")
	}
	def.Rule = &AutomationRule{Enabled: false}
	if def.AutomationEnabled() {
		t.Fatal("disabled rule should not report automation")
	}
	def.Rule.Enabled = true
	if !def.AutomationEnabled() {
		t.Fatal("enabled rule should report automation")
	}
}

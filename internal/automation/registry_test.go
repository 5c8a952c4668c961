package automation

import (
	"context"
	"testing"

	"github.com/louisbranch/visage-engine/internal/testkit/visagefakes"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

func TestBuildKeepsOnlyAutomationEnabled(t *testing.T) {
	store := visagefakes.NewDefinitionStore()
	defs := []domain.VisageDefinition{
		woundedDefinition(),
		{ID: "manual", Name: "Manual", Mode: domain.ModeOverlay},
		{ID: "draft", Name: "Draft", Mode: domain.ModeOverlay, Rule: &domain.AutomationRule{Enabled: false}},
	}
	for _, def := range defs {
		if err := store.PutDefinition(context.Background(), def); err != nil {
			t.Fatalf("put definition: %v", err)
		}
	}

	registry := NewRegistry()
	if err := registry.Build(context.Background(), store); err != nil {
		t.Fatalf("build: %v", err)
	}

	got := registry.Definitions()
	if len(got) != 1 || got[0].ID != "wounded" {
		t.Fatalf("definitions = %v, want only the automation-enabled one", got)
	}
}

func TestRebuildPreservesSurvivingLatches(t *testing.T) {
	store := visagefakes.NewDefinitionStore()
	if err := store.PutDefinition(context.Background(), woundedDefinition()); err != nil {
		t.Fatalf("put definition: %v", err)
	}
	gone := woundedDefinition()
	gone.ID = "gone"
	if err := store.PutDefinition(context.Background(), gone); err != nil {
		t.Fatalf("put definition: %v", err)
	}

	registry := NewRegistry()
	if err := registry.Build(context.Background(), store); err != nil {
		t.Fatalf("build: %v", err)
	}
	registry.SetLatch("e1", "wounded", true)
	registry.SetLatch("e1", "gone", true)

	if err := store.DeleteDefinition(context.Background(), "gone"); err != nil {
		t.Fatalf("delete definition: %v", err)
	}
	if err := registry.Build(context.Background(), store); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if !registry.Latch("e1", "wounded") {
		t.Fatal("surviving definition lost its latch on rebuild")
	}
	if registry.Latch("e1", "gone") {
		t.Fatal("removed definition kept its latch on rebuild")
	}
}

func TestDropEntityForgetsAllItsLatches(t *testing.T) {
	registry := NewRegistry()
	registry.SetLatch("e1", "a", true)
	registry.SetLatch("e1", "b", true)
	registry.SetLatch("e2", "a", true)

	registry.DropEntity("e1")

	if registry.Latch("e1", "a") || registry.Latch("e1", "b") {
		t.Fatal("dropped entity still has latches")
	}
	if !registry.Latch("e2", "a") {
		t.Fatal("unrelated entity lost its latch")
	}
}

func TestTeardownClearsAndAllowsRebuild(t *testing.T) {
	store := visagefakes.NewDefinitionStore()
	if err := store.PutDefinition(context.Background(), woundedDefinition()); err != nil {
		t.Fatalf("put definition: %v", err)
	}

	registry := NewRegistry()
	if err := registry.Build(context.Background(), store); err != nil {
		t.Fatalf("build: %v", err)
	}
	registry.SetLatch("e1", "wounded", true)

	registry.Teardown()
	if len(registry.Definitions()) != 0 {
		t.Fatal("teardown left definitions behind")
	}
	if registry.Latch("e1", "wounded") {
		t.Fatal("teardown left latches behind")
	}

	if err := registry.Build(context.Background(), store); err != nil {
		t.Fatalf("rebuild after teardown: %v", err)
	}
	if len(registry.Definitions()) != 1 {
		t.Fatal("rebuild after teardown did not reload definitions")
	}
}

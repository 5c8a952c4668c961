package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenarioFile(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.lua")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeScenarioFile(t, `
local s = Scenario.new("wounded bandit")
s:entity("e1", {name = "Bandit", image = "bandit.webp"})
s:definition("wounded", {
	mode = "overlay",
	display_name = "Wounded Bandit",
	rule = {
		conditions = {
			{attribute = "hp", op = "lte", value = 0},
		},
	},
})
s:apply("e1", "wounded")
s:expect("e1", {name = "Wounded Bandit"})
return s
`)

	scenario, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if scenario.Name != "wounded bandit" {
		t.Fatalf("Name = %q, want %q", scenario.Name, "wounded bandit")
	}
	kinds := make([]string, 0, len(scenario.Steps))
	for _, step := range scenario.Steps {
		kinds = append(kinds, step.Kind)
	}
	want := []string{"entity", "definition", "apply", "expect"}
	if len(kinds) != len(want) {
		t.Fatalf("Steps kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("Steps[%d].Kind = %q, want %q", i, kinds[i], want[i])
		}
	}

	entity := scenario.Steps[0]
	if entity.Args["id"] != "e1" {
		t.Fatalf("entity id = %v, want %q", entity.Args["id"], "e1")
	}
	if entity.Args["image"] != "bandit.webp" {
		t.Fatalf("entity image = %v, want %q", entity.Args["image"], "bandit.webp")
	}

	definition := scenario.Steps[1]
	rule, ok := definition.Args["rule"].(map[string]any)
	if !ok {
		t.Fatalf("definition rule missing: %v", definition.Args)
	}
	conditions, ok := rule["conditions"].(map[string]any)
	if !ok {
		t.Fatalf("rule conditions missing: %v", rule)
	}
	first, ok := conditions["1"].(map[string]any)
	if !ok {
		t.Fatalf("first condition missing: %v", conditions)
	}
	if first["attribute"] != "hp" {
		t.Fatalf("condition attribute = %v, want %q", first["attribute"], "hp")
	}
	if first["value"] != float64(0) {
		t.Fatalf("condition value = %v, want 0", first["value"])
	}
}

func TestLoadFileNameDefaultsFromFilename(t *testing.T) {
	path := writeScenarioFile(t, `return Scenario.new()`)

	scenario, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if scenario.Name != "scenario" {
		t.Fatalf("Name = %q, want %q", scenario.Name, "scenario")
	}
}

func TestLoadFileRejectsNonScenarioReturn(t *testing.T) {
	path := writeScenarioFile(t, `return 42`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile() error = nil, want error")
	}
}

func TestLoadFileRejectsSyntaxError(t *testing.T) {
	path := writeScenarioFile(t, `local s = Scenario.new(`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile() error = nil, want error")
	}
}

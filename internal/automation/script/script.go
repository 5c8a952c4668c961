// Package script evaluates Lua script conditions against entity state.
//
// Scripts are boolean expressions with read-only access to the entity's
// attributes and statuses through registered helper functions:
//
//	attribute("hp")          -- current value, 0 when unset
//	attribute_max("hp")      -- declared maximum, 0 when none
//	has_status("poisoned")   -- membership in the active-status set
//
// Each evaluation runs in a fresh interpreter state so a failing script
// cannot poison later evaluations.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/visage-engine/internal/automation"
	"github.com/louisbranch/visage-engine/internal/scene"
)

var _ automation.ScriptRunner = (*Runner)(nil)

// Runner evaluates script condition sources.
type Runner struct{}

// NewRunner constructs a script runner.
func NewRunner() *Runner {
	return &Runner{}
}

// RunScript evaluates the source as a boolean expression against the given
// entity. A bare expression is wrapped in a return; sources containing their
// own return run as-is.
func (r *Runner) RunScript(ctx context.Context, entityID, source string, reader scene.StateReader) (bool, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerStateHelpers(state, ctx, entityID, reader)

	chunk := source
	if !strings.Contains(source, "return") {
		chunk = "return (" + source + ")"
	}

	if err := lua.DoString(state, chunk); err != nil {
		return false, fmt.Errorf("run script: %w", err)
	}
	if state.Top() < 1 {
		return false, fmt.Errorf("script returned no value")
	}
	result := state.ToBoolean(-1)
	state.Pop(1)
	return result, nil
}

func registerStateHelpers(state *lua.State, ctx context.Context, entityID string, reader scene.StateReader) {
	helpers := []lua.RegistryFunction{
		{Name: "attribute", Function: func(state *lua.State) int {
			path := lua.CheckString(state, 1)
			attr, err := reader.ReadAttribute(ctx, entityID, path)
			if err != nil && !errors.Is(err, scene.ErrNotFound) {
				lua.Errorf(state, "attribute %s: %s", path, err.Error())
				return 0
			}
			state.PushNumber(attr.Value)
			return 1
		}},
		{Name: "attribute_max", Function: func(state *lua.State) int {
			path := lua.CheckString(state, 1)
			attr, err := reader.ReadAttribute(ctx, entityID, path)
			if err != nil && !errors.Is(err, scene.ErrNotFound) {
				lua.Errorf(state, "attribute %s: %s", path, err.Error())
				return 0
			}
			state.PushNumber(attr.Max)
			return 1
		}},
		{Name: "has_status", Function: func(state *lua.State) int {
			statusID := lua.CheckString(state, 1)
			active, err := reader.HasStatus(ctx, entityID, statusID)
			if err != nil {
				lua.Errorf(state, "status %s: %s", statusID, err.Error())
				return 0
			}
			state.PushBoolean(active)
			return 1
		}},
	}

	for _, helper := range helpers {
		state.Register(helper.Name, helper.Function)
	}
}

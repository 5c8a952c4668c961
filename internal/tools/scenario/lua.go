package scenario

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is an ordered list of steps loaded from a Lua file.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action against the engine.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadFile loads a scenario definition from a Lua file. The script must
// return a Scenario built with the registered constructor.
func LoadFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerScenarioType(state)
	registerScenarioConstructor(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "entity", Function: scenarioEntity},
	{Name: "remove_entity", Function: scenarioRemoveEntity},
	{Name: "definition", Function: scenarioDefinition},
	{Name: "apply", Function: scenarioApply},
	{Name: "remove", Function: scenarioRemove},
	{Name: "toggle", Function: scenarioToggle},
	{Name: "reorder", Function: scenarioReorder},
	{Name: "set_attribute", Function: scenarioSetAttribute},
	{Name: "add_status", Function: scenarioAddStatus},
	{Name: "remove_status", Function: scenarioRemoveStatus},
	{Name: "event", Function: scenarioEvent},
	{Name: "expect", Function: scenarioExpect},
}

func scenarioEntity(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	data := optionalTable(state, 3)
	data["id"] = id
	appendStep(scenario, "entity", data)
	return 0
}

func scenarioRemoveEntity(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	appendStep(scenario, "remove_entity", map[string]any{"id": id})
	return 0
}

func scenarioDefinition(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	data := tableToMap(state, 3)
	data["id"] = id
	appendStep(scenario, "definition", data)
	return 0
}

func scenarioApply(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	definition := lua.CheckString(state, 3)
	appendStep(scenario, "apply", map[string]any{"entity": entity, "definition": definition})
	return 0
}

func scenarioRemove(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	definition := lua.CheckString(state, 3)
	appendStep(scenario, "remove", map[string]any{"entity": entity, "definition": definition})
	return 0
}

func scenarioToggle(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	definition := lua.CheckString(state, 3)
	appendStep(scenario, "toggle", map[string]any{"entity": entity, "definition": definition})
	return 0
}

func scenarioReorder(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	data := tableToMap(state, 3)
	data["entity"] = entity
	appendStep(scenario, "reorder", data)
	return 0
}

func scenarioSetAttribute(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	path := lua.CheckString(state, 3)
	value := lua.CheckNumber(state, 4)
	max := lua.OptNumber(state, 5, 0)
	appendStep(scenario, "set_attribute", map[string]any{
		"entity": entity, "path": path, "value": value, "max": max,
	})
	return 0
}

func scenarioAddStatus(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	status := lua.CheckString(state, 3)
	appendStep(scenario, "add_status", map[string]any{"entity": entity, "status": status})
	return 0
}

func scenarioRemoveStatus(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	status := lua.CheckString(state, 3)
	appendStep(scenario, "remove_status", map[string]any{"entity": entity, "status": status})
	return 0
}

func scenarioEvent(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	event := lua.CheckString(state, 3)
	outcome := lua.OptString(state, 4, "")
	appendStep(scenario, "event", map[string]any{"entity": entity, "event": event, "outcome": outcome})
	return 0
}

func scenarioExpect(state *lua.State) int {
	scenario := checkScenario(state)
	entity := lua.CheckString(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	data := tableToMap(state, 3)
	data["entity"] = entity
	appendStep(scenario, "expect", data)
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		switch state.TypeOf(-2) {
		case lua.TypeString:
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		case lua.TypeNumber:
			if idx, ok := state.ToInteger(-2); ok {
				output[fmt.Sprintf("%d", idx)] = luaToGo(state, -1)
			}
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return value
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(state, index)
	default:
		return nil
	}
}

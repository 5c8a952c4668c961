// Package scenario executes Lua scenario scripts against an in-memory
// visage engine. Scenarios drive the scene and the override stack, then
// assert on the resolved entity fields.
package scenario

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/visage-engine/internal/automation"
	"github.com/louisbranch/visage-engine/internal/automation/script"
	"github.com/louisbranch/visage-engine/internal/notify"
	"github.com/louisbranch/visage-engine/internal/platform/id"
	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/storage/sqlite"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
	"github.com/louisbranch/visage-engine/internal/visage/service"
)

// AssertionMode controls whether failed expectations abort the run.
type AssertionMode int

const (
	// AssertionStrict aborts the run on the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and continues.
	AssertionLogOnly
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// RunFile loads and executes one scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadFile(path)
	if err != nil {
		return err
	}
	return Run(ctx, cfg, scenario)
}

// Run executes a loaded scenario against a fresh engine.
func Run(ctx context.Context, cfg Config, sc *Scenario) error {
	if sc == nil {
		return fmt.Errorf("scenario is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	dir, err := os.MkdirTemp("", "visage-scenario-")
	if err != nil {
		return fmt.Errorf("create scenario workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	store, err := sqlite.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return fmt.Errorf("open scenario store: %w", err)
	}
	defer store.Close()

	bus := notify.NewInProcessBus()
	world := scene.NewWorld(bus)
	engine := service.New(store, store, world)

	registry := automation.NewRegistry()
	if err := registry.Build(ctx, store); err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	defer registry.Teardown()

	evaluator := automation.NewEvaluator(registry, world, engine, script.NewRunner())
	evaluator.Start(bus)
	defer evaluator.Teardown()

	run := &runner{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		world:    world,
		engine:   engine,
		registry: registry,
	}
	for i, step := range sc.Steps {
		if cfg.Verbose {
			logger.Printf("step %d: %s", i+1, step.Kind)
		}
		if err := run.execute(ctx, step); err != nil {
			return fmt.Errorf("scenario %q step %d (%s): %w", sc.Name, i+1, step.Kind, err)
		}
	}
	return nil
}

type runner struct {
	cfg      Config
	logger   *log.Logger
	store    *sqlite.Store
	world    *scene.World
	engine   *service.Service
	registry *automation.Registry
}

func (r *runner) execute(ctx context.Context, step Step) error {
	switch step.Kind {
	case "entity":
		fields := scene.Fields{
			DisplayName: getString(step.Args, "name"),
			Texture: domain.Texture{
				Src:    getString(step.Args, "image"),
				ScaleX: getNumberDefault(step.Args, "scale_x", 1),
				ScaleY: getNumberDefault(step.Args, "scale_y", 1),
			},
			Width:  getNumberDefault(step.Args, "width", 1),
			Height: getNumberDefault(step.Args, "height", 1),
		}
		if raw := getString(step.Args, "disposition"); raw != "" {
			disposition, err := domain.ParseDisposition(raw)
			if err != nil {
				return err
			}
			fields.Disposition = disposition
		}
		r.world.AddEntity(getString(step.Args, "id"), fields)
		return nil
	case "remove_entity":
		r.world.RemoveEntity(getString(step.Args, "id"))
		return nil
	case "definition":
		def, err := parseDefinition(step.Args)
		if err != nil {
			return err
		}
		if err := r.store.PutDefinition(ctx, def); err != nil {
			return err
		}
		return r.registry.Build(ctx, r.store)
	case "apply":
		return r.engine.Apply(ctx, getString(step.Args, "entity"), getString(step.Args, "definition"))
	case "remove":
		return r.engine.Remove(ctx, getString(step.Args, "entity"), getString(step.Args, "definition"))
	case "toggle":
		return r.engine.ToggleLayerVisibility(ctx, getString(step.Args, "entity"), getString(step.Args, "definition"))
	case "reorder":
		var ids []string
		for _, value := range numberedValues(step.Args) {
			if id, ok := value.(string); ok {
				ids = append(ids, id)
			}
		}
		return r.engine.ReorderStack(ctx, getString(step.Args, "entity"), ids)
	case "set_attribute":
		return r.world.SetAttribute(getString(step.Args, "entity"), getString(step.Args, "path"),
			getNumber(step.Args, "value"), getNumber(step.Args, "max"))
	case "add_status":
		return r.world.AddStatus(getString(step.Args, "entity"), getString(step.Args, "status"))
	case "remove_status":
		return r.world.RemoveStatus(getString(step.Args, "entity"), getString(step.Args, "status"))
	case "event":
		return r.world.RecordEvent(getString(step.Args, "entity"), getString(step.Args, "event"),
			getString(step.Args, "outcome"))
	case "expect":
		return r.expect(ctx, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *runner) expect(ctx context.Context, args map[string]any) error {
	entityID := getString(args, "entity")
	fields, err := r.world.ReadLiveFields(ctx, entityID)
	if err != nil {
		return err
	}

	var failures []string
	if want, ok := args["name"].(string); ok {
		if fields.DisplayName != want {
			failures = append(failures, fmt.Sprintf("name = %q, want %q", fields.DisplayName, want))
		}
	}
	if want, ok := args["image"].(string); ok {
		if fields.Texture.Src != want {
			failures = append(failures, fmt.Sprintf("image = %q, want %q", fields.Texture.Src, want))
		}
	}
	if want, ok := args["disposition"].(string); ok {
		if fields.Disposition.String() != want {
			failures = append(failures, fmt.Sprintf("disposition = %q, want %q", fields.Disposition, want))
		}
	}
	if want, ok := args["scale_x"].(float64); ok {
		if fields.Texture.ScaleX != want {
			failures = append(failures, fmt.Sprintf("scale_x = %v, want %v", fields.Texture.ScaleX, want))
		}
	}
	if want, ok := args["scale_y"].(float64); ok {
		if fields.Texture.ScaleY != want {
			failures = append(failures, fmt.Sprintf("scale_y = %v, want %v", fields.Texture.ScaleY, want))
		}
	}

	if len(failures) == 0 {
		return nil
	}
	message := fmt.Sprintf("expectation failed for %s: %s", entityID, strings.Join(failures, "; "))
	if r.cfg.Assertions == AssertionLogOnly {
		r.logger.Print(message)
		return nil
	}
	return fmt.Errorf("%s", message)
}

func parseDefinition(args map[string]any) (domain.VisageDefinition, error) {
	mode, err := domain.ParseMode(getStringDefault(args, "mode", "overlay"))
	if err != nil {
		return domain.VisageDefinition{}, err
	}

	input := domain.CreateDefinitionInput{
		Name: getStringDefault(args, "name", getString(args, "id")),
		Mode: mode,
	}
	if value, ok := args["image"].(string); ok {
		input.Changeset.ImageRef = &value
	}
	if value, ok := args["scale"].(float64); ok {
		input.Changeset.ScaleMagnitude = &value
	}
	if value, ok := args["flip_x"].(bool); ok {
		input.Changeset.FlipX = &value
	}
	if value, ok := args["flip_y"].(bool); ok {
		input.Changeset.FlipY = &value
	}
	if value, ok := args["width"].(float64); ok {
		input.Changeset.Width = &value
	}
	if value, ok := args["height"].(float64); ok {
		input.Changeset.Height = &value
	}
	if value, ok := args["display_name"].(string); ok {
		input.Changeset.DisplayName = &value
	}
	if value, ok := args["disposition"].(string); ok {
		disposition, err := domain.ParseDisposition(value)
		if err != nil {
			return domain.VisageDefinition{}, err
		}
		input.Changeset.Disposition = &disposition
	}
	if raw, ok := args["rule"].(map[string]any); ok {
		rule, err := parseRule(raw)
		if err != nil {
			return domain.VisageDefinition{}, err
		}
		input.Rule = &rule
	}

	def, faults, err := domain.CreateDefinition(input, nil, definitionID(args))
	if err != nil {
		return domain.VisageDefinition{}, err
	}
	// A scenario file with a rejected field is a broken script, not a
	// soft-failed expectation.
	if len(faults) > 0 {
		return domain.VisageDefinition{}, fmt.Errorf("definition %q rejected fields: %v", input.Name, faults)
	}
	return def, nil
}

// definitionID keeps the id chosen in the scenario script so later steps can
// reference it, generating one only when the script leaves it out.
func definitionID(args map[string]any) func() (string, error) {
	scriptID := strings.TrimSpace(getString(args, "id"))
	if scriptID == "" {
		return id.NewID
	}
	return func() (string, error) { return scriptID, nil }
}

func parseRule(args map[string]any) (domain.AutomationRule, error) {
	logic, err := domain.ParseLogic(getStringDefault(args, "logic", "and"))
	if err != nil {
		return domain.AutomationRule{}, err
	}
	onEnter, err := domain.ParseReactionAction(getStringDefault(args, "on_enter", "apply"))
	if err != nil {
		return domain.AutomationRule{}, err
	}
	onExit, err := domain.ParseReactionAction(getStringDefault(args, "on_exit", "remove"))
	if err != nil {
		return domain.AutomationRule{}, err
	}

	rule := domain.AutomationRule{
		Enabled: true,
		Logic:   logic,
		OnEnter: domain.Reaction{Action: onEnter},
		OnExit:  domain.Reaction{Action: onExit},
	}
	conditions, ok := args["conditions"].(map[string]any)
	if !ok {
		return domain.AutomationRule{}, fmt.Errorf("rule requires conditions")
	}
	for _, raw := range numberedValues(conditions) {
		table, ok := raw.(map[string]any)
		if !ok {
			return domain.AutomationRule{}, fmt.Errorf("condition must be a table")
		}
		cond, err := parseCondition(table)
		if err != nil {
			return domain.AutomationRule{}, err
		}
		rule.Conditions = append(rule.Conditions, cond)
	}
	if err := rule.Validate(); err != nil {
		return domain.AutomationRule{}, err
	}
	return rule, nil
}

func parseCondition(args map[string]any) (domain.Condition, error) {
	if path, ok := args["attribute"].(string); ok {
		op := domain.CompareLTE
		switch getStringDefault(args, "op", "lte") {
		case "lte":
			op = domain.CompareLTE
		case "gte":
			op = domain.CompareGTE
		case "eq":
			op = domain.CompareEQ
		case "neq":
			op = domain.CompareNEQ
		default:
			return domain.Condition{}, domain.ErrInvalidCompareOp
		}
		percent, _ := args["percent"].(bool)
		return domain.Condition{
			Kind: domain.ConditionAttribute,
			Attribute: &domain.AttributeCondition{
				Path:    path,
				Op:      op,
				Value:   getNumber(args, "value"),
				Percent: percent,
			},
		}, nil
	}
	if statusID, ok := args["status"].(string); ok {
		op := domain.PresenceActive
		if active, found := args["active"].(bool); found && !active {
			op = domain.PresenceInactive
		}
		return domain.Condition{
			Kind:   domain.ConditionStatus,
			Status: &domain.StatusCondition{StatusID: statusID, Op: op},
		}, nil
	}
	if eventID, ok := args["event"].(string); ok {
		op := domain.PresenceActive
		if active, found := args["active"].(bool); found && !active {
			op = domain.PresenceInactive
		}
		cond := domain.Condition{
			Kind:  domain.ConditionEvent,
			Event: &domain.EventCondition{EventID: eventID, Op: op},
		}
		if window, found := args["window"].(string); found {
			parsed, err := time.ParseDuration(window)
			if err != nil {
				return domain.Condition{}, fmt.Errorf("event window: %w", err)
			}
			cond.Event.Window = parsed
		}
		return cond, nil
	}
	if actionType, ok := args["action"].(string); ok {
		cond := domain.Condition{
			Kind:   domain.ConditionAction,
			Action: &domain.ActionCondition{ActionType: actionType, Outcome: getString(args, "outcome")},
		}
		if window, found := args["window"].(string); found {
			parsed, err := time.ParseDuration(window)
			if err != nil {
				return domain.Condition{}, fmt.Errorf("action window: %w", err)
			}
			cond.Action.Window = parsed
		}
		return cond, nil
	}
	if source, ok := args["script"].(string); ok {
		return domain.Condition{
			Kind:   domain.ConditionScript,
			Script: &domain.ScriptCondition{Source: source},
		}, nil
	}
	return domain.Condition{}, fmt.Errorf("condition needs attribute, status, event, action, or script")
}

// numberedValues returns the values stored under numeric Lua table keys, in
// key order.
func numberedValues(args map[string]any) []any {
	var keys []int
	for key := range args {
		if n, err := strconv.Atoi(key); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)
	values := make([]any, 0, len(keys))
	for _, key := range keys {
		values = append(values, args[strconv.Itoa(key)])
	}
	return values
}

func getString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func getStringDefault(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getNumber(args map[string]any, key string) float64 {
	value, _ := args[key].(float64)
	return value
}

func getNumberDefault(args map[string]any, key string, fallback float64) float64 {
	if value, ok := args[key].(float64); ok {
		return value
	}
	return fallback
}

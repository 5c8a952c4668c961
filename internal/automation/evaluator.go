package automation

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/visage-engine/internal/notify"
	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/visage/domain"
)

// ActionSurface is the stack mutation surface reactions fire against. The
// visage service implements it; manual UI operations go through the same
// methods.
type ActionSurface interface {
	Apply(ctx context.Context, entityID, definitionID string) error
	Remove(ctx context.Context, entityID, definitionID string) error
}

// sweepConcurrency bounds the per-entity goroutines of a full sweep.
// Per-entity ordering stays serialized inside the action surface.
const sweepConcurrency = 4

// Evaluator recomputes automation rules when scene notifications arrive and
// fires apply/remove reactions on latch edges.
type Evaluator struct {
	registry *Registry
	reader   scene.StateReader
	actions  ActionSurface
	scripts  ScriptRunner
	tracer   trace.Tracer
	now      func() time.Time

	sub notify.Subscription
}

// NewEvaluator constructs an evaluator over the given registry and state
// reader. scripts may be nil, in which case script conditions fail
// evaluation.
func NewEvaluator(registry *Registry, reader scene.StateReader, actions ActionSurface, scripts ScriptRunner) *Evaluator {
	return &Evaluator{
		registry: registry,
		reader:   reader,
		actions:  actions,
		scripts:  scripts,
		tracer:   otel.Tracer("visage/automation"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start subscribes the evaluator to the bus. Teardown cancels the
// subscription.
func (e *Evaluator) Start(bus notify.Bus) {
	e.sub = bus.Subscribe(e.Handle)
}

// Teardown cancels the bus subscription. Safe to call more than once.
func (e *Evaluator) Teardown() {
	if e.sub != nil {
		e.sub.Cancel()
	}
}

// Handle processes one notification. Exposed so callers can gate delivery,
// e.g. on holding the authority lease.
func (e *Evaluator) Handle(n notify.Notification) {
	switch n.Kind {
	case notify.KindEntityDeleted:
		e.registry.DropEntity(n.EntityID)
		return
	case notify.KindAttributeChanged, notify.KindStatusAdded, notify.KindStatusRemoved,
		notify.KindEntityCreated, notify.KindGameEvent:
		e.EvaluateEntity(context.Background(), n.EntityID)
	}
}

// EvaluateEntity recomputes every registered rule against the entity's
// current state and fires reactions on latch transitions. Failures are
// isolated per definition; an entity that left the scene is dropped from
// the registry.
func (e *Evaluator) EvaluateEntity(ctx context.Context, entityID string) {
	ctx, span := e.tracer.Start(ctx, "automation.EvaluateEntity",
		trace.WithAttributes(attribute.String("entity.id", entityID)))
	defer span.End()

	now := e.now()
	for _, def := range e.registry.Definitions() {
		held, err := evaluateRule(ctx, e.reader, e.scripts, entityID, *def.Rule, now)
		if err != nil {
			if errors.Is(err, scene.ErrNotFound) {
				e.registry.DropEntity(entityID)
				return
			}
			log.Printf("automation: evaluate %s on %s: %v", def.ID, entityID, err)
			continue
		}

		latched := e.registry.Latch(entityID, def.ID)
		switch {
		case held && !latched:
			e.fire(ctx, entityID, def, def.Rule.OnEnter, true)
		case !held && latched:
			e.fire(ctx, entityID, def, def.Rule.OnExit, false)
		}
	}
}

// fire runs one edge's reaction. The latch advances only when the reaction
// succeeds so a failed apply or remove is retried on the next notification;
// both reactions are idempotent, so the retry is safe.
func (e *Evaluator) fire(ctx context.Context, entityID string, def domain.VisageDefinition, reaction domain.Reaction, active bool) {
	var err error
	switch reaction.Action {
	case domain.ReactionApply:
		err = e.actions.Apply(ctx, entityID, def.ID)
	case domain.ReactionRemove:
		err = e.actions.Remove(ctx, entityID, def.ID)
	default:
		err = domain.ErrInvalidReaction
	}
	if err != nil {
		log.Printf("automation: %s %s on %s: %v", reaction.Action, def.ID, entityID, err)
		return
	}
	e.registry.SetLatch(entityID, def.ID, active)
}

// Sweep evaluates every entity in the scene once, bounding cross-entity
// concurrency. Run after a registry rebuild to bring latches current.
func (e *Evaluator) Sweep(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "automation.Sweep")
	defer span.End()

	ids, err := e.reader.ListEntityIDs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			e.EvaluateEntity(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

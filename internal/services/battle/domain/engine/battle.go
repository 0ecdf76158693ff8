package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	platformotel "github.com/louisbranch/warfront/internal/platform/otel"
	"github.com/louisbranch/warfront/internal/services/battle/dice"
	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/actions"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/stack"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/step"
	"github.com/louisbranch/warfront/internal/services/battle/gateway"
)

// DefaultDecisionAttempts bounds how often a malformed answer is re-requested
// from a synchronous gateway within one Run.
const DefaultDecisionAttempts = 3

// Checkpointer persists battle snapshots.
type Checkpointer interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Config wires a battle to its collaborators.
type Config struct {
	// Dice defaults to a source seeded from the battle state.
	Dice step.Roller
	// Gateway answers decisions. Without one every decision suspends.
	Gateway gateway.Gateway
	Display actions.Broadcaster
	Log     actions.Log
	// Checkpoints receives a snapshot after every stack transition.
	Checkpoints      Checkpointer
	DecisionAttempts int
}

// Status is why Run returned without error.
type Status string

const (
	StatusSuspended Status = "suspended"
	StatusFinished  Status = "finished"
)

// Battle is one battle in progress. It is not safe for concurrent use.
type Battle struct {
	cfg    Config
	env    step.Env
	state  state.State
	stack  *stack.Stack
	phase  Phase
	broken error
	tracer trace.Tracer
}

// New starts a battle from round-one state and sequences its first round.
func New(ctx context.Context, cfg Config, st state.State) (*Battle, error) {
	st = st.Clone()
	if err := st.Validate(); err != nil {
		return nil, invariantViolation(&st, "", err)
	}
	b := newBattle(cfg, st, stack.New(), PhaseSequencing)
	if b.state.Terminal() {
		b.phase = PhaseTerminal
	} else if err := b.sequence(ctx); err != nil {
		return nil, err
	}
	if err := b.checkpoint(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Restore continues a battle from a snapshot. Every stack entry must name a
// known step and the state must satisfy its invariants.
func Restore(cfg Config, snap Snapshot) (*Battle, error) {
	if err := checkVersion(snap); err != nil {
		return nil, err
	}
	st := snap.State.Clone()
	for _, e := range snap.Stack {
		if _, ok := step.Lookup(step.Tag(e.Tag)); !ok {
			return nil, unknownStep(st.ID, e.Tag)
		}
		if err := checkEntry(e); err != nil {
			return nil, invariantViolation(&st, e.Tag, err)
		}
	}
	if err := st.Validate(); err != nil {
		return nil, invariantViolation(&st, "", err)
	}
	if (len(snap.Stack) == 0) != st.Terminal() {
		return nil, invariantViolation(&st, "", fmt.Errorf("%w: %d stack entries with outcome %q", state.ErrInvariant, len(snap.Stack), st.Outcome))
	}
	phase := snap.Phase
	if phase == "" {
		phase = PhaseExecuting
	}
	return newBattle(cfg, st, stack.New(snap.Stack...), phase), nil
}

func checkEntry(e stack.Entry) error {
	switch e.Marker {
	case stack.NotStarted:
		return nil
	case stack.Awaiting:
		if e.Request == nil {
			return fmt.Errorf("%w: awaiting entry %s has no request", state.ErrInvariant, e.Tag)
		}
	case stack.Received:
		if e.Request == nil || e.Response == nil {
			return fmt.Errorf("%w: received entry %s has no response", state.ErrInvariant, e.Tag)
		}
	default:
		return fmt.Errorf("%w: entry %s has marker %s", state.ErrInvariant, e.Tag, e.Marker)
	}
	return nil
}

func newBattle(cfg Config, st state.State, stk *stack.Stack, phase Phase) *Battle {
	roller := cfg.Dice
	if roller == nil {
		roller = dice.NewSeeded(st.Seed)
	}
	return &Battle{
		cfg:    cfg,
		env:    step.Env{Dice: roller, Actions: actions.New(cfg.Display, cfg.Log)},
		state:  st,
		stack:  stk,
		phase:  phase,
		tracer: platformotel.Tracer("battle"),
	}
}

// ID returns the battle id.
func (b *Battle) ID() string {
	return b.state.ID
}

// State returns a copy of the battle state.
func (b *Battle) State() state.State {
	return b.state.Clone()
}

// Phase returns where the round state machine stands.
func (b *Battle) Phase() Phase {
	return b.phase
}

// Pending returns the decision the battle is waiting on, if any.
func (b *Battle) Pending() (decision.Request, bool) {
	entry, ok := b.stack.Current()
	if !ok || entry.Marker != stack.Awaiting || entry.Request == nil {
		return decision.Request{}, false
	}
	return *entry.Request, true
}

// Snapshot captures the battle for Restore.
func (b *Battle) Snapshot() Snapshot {
	return Snapshot{
		Version: SnapshotVersion,
		State:   b.state.Clone(),
		Stack:   b.stack.Entries(),
		Phase:   b.phase,
	}
}

// Run executes steps until the battle ends or waits on a decision the
// gateway cannot answer yet. A collaborator failure leaves the stack where
// it was, so Run may be called again. Fatal errors stick.
func (b *Battle) Run(ctx context.Context) (Status, error) {
	if b.broken != nil {
		return "", b.broken
	}
	if b.state.Terminal() {
		return StatusFinished, battleOver(&b.state)
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if b.stack.IsEmpty() {
			if b.state.Terminal() {
				b.phase = PhaseTerminal
				return StatusFinished, nil
			}
			if err := b.nextRound(ctx); err != nil {
				return "", b.fail(err)
			}
			continue
		}
		suspended, err := b.advance(ctx)
		if err != nil {
			return "", b.fail(err)
		}
		if suspended {
			return StatusSuspended, nil
		}
	}
}

// Resume answers the pending decision and continues the battle. A
// malformed response is rejected and the same decision stays pending.
func (b *Battle) Resume(ctx context.Context, resp decision.Response) (Status, error) {
	if b.broken != nil {
		return "", b.broken
	}
	if b.state.Terminal() {
		return StatusFinished, battleOver(&b.state)
	}
	req, ok := b.Pending()
	if !ok {
		return "", notSuspended(b.state.ID)
	}
	if err := req.Validate(resp); err != nil {
		return StatusSuspended, err
	}
	if err := b.receive(ctx, resp); err != nil {
		return "", b.fail(err)
	}
	return b.Run(ctx)
}

func (b *Battle) fail(err error) error {
	if IsFatal(err) {
		b.broken = err
	}
	return err
}

func (b *Battle) advance(ctx context.Context) (bool, error) {
	entry, _ := b.stack.Current()
	s, ok := step.Lookup(step.Tag(entry.Tag))
	if !ok {
		return false, unknownStep(b.state.ID, entry.Tag)
	}

	ctx, span := b.tracer.Start(ctx, "battle.step", trace.WithAttributes(
		attribute.String("battle.id", b.state.ID),
		attribute.String("battle.step", entry.Tag),
		attribute.Int("battle.round", b.state.Round),
		attribute.String("battle.marker", entry.Marker.String()),
	))
	defer span.End()

	suspended, err := b.execute(ctx, s, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("battle.suspended", suspended))
	return suspended, err
}

func (b *Battle) execute(ctx context.Context, s step.Step, entry stack.Entry) (bool, error) {
	switch entry.Marker {
	case stack.NotStarted:
		b.phase = PhaseExecuting
		if !s.Valid(&b.state) {
			return false, b.finish(ctx)
		}
		req := s.Request(&b.state)
		if req == nil {
			return false, b.apply(ctx, s, nil)
		}
		if err := b.stack.Await(*req); err != nil {
			return false, err
		}
		b.phase = PhaseSuspended
		if err := b.checkpoint(ctx); err != nil {
			return false, err
		}
		return b.await(ctx, *req)
	case stack.Awaiting:
		return b.await(ctx, *entry.Request)
	case stack.Received:
		return false, b.apply(ctx, s, entry.Response)
	default:
		return false, invariantViolation(&b.state, entry.Tag, checkEntry(entry))
	}
}

// await asks the gateway for the pending decision. Malformed answers are
// re-requested; the stack only moves once a valid one arrives.
func (b *Battle) await(ctx context.Context, req decision.Request) (bool, error) {
	b.phase = PhaseSuspended
	if b.cfg.Gateway == nil {
		return true, nil
	}
	attempts := b.cfg.DecisionAttempts
	if attempts <= 0 {
		attempts = DefaultDecisionAttempts
	}
	var rejected error
	for range attempts {
		resp, err := b.cfg.Gateway.RequestDecision(ctx, req)
		if errors.Is(err, gateway.ErrDeferred) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("request %s decision for %s: %w", req.Kind, req.Step, err)
		}
		if err := req.Validate(resp); err != nil {
			rejected = err
			continue
		}
		return false, b.receive(ctx, resp)
	}
	return false, rejected
}

func (b *Battle) receive(ctx context.Context, resp decision.Response) error {
	if err := b.stack.Resume(resp); err != nil {
		return err
	}
	b.phase = PhaseExecuting
	return b.checkpoint(ctx)
}

// apply runs the step effect against a copy of the state and commits the
// copy only when the effect and the invariants hold.
func (b *Battle) apply(ctx context.Context, s step.Step, resp *decision.Response) error {
	work := b.state.Clone()
	if err := s.Apply(ctx, b.env, &work, resp); err != nil {
		return fmt.Errorf("apply %s: %w", s.Tag, err)
	}
	if err := work.Validate(); err != nil {
		return invariantViolation(&work, string(s.Tag), err)
	}
	if work.Round < b.state.Round {
		return invariantViolation(&work, string(s.Tag), fmt.Errorf("%w: round went from %d to %d", state.ErrInvariant, b.state.Round, work.Round))
	}
	b.state = work
	return b.finish(ctx)
}

// finish pops the current entry. When the round is exhausted the next one
// is sequenced before the checkpoint, so a saved stack is only empty for a
// finished battle.
func (b *Battle) finish(ctx context.Context) error {
	b.stack.Pop()
	if b.stack.IsEmpty() {
		if b.state.Terminal() {
			b.phase = PhaseTerminal
		} else {
			b.phase = PhaseRoundComplete
			if err := b.sequence(ctx); err != nil {
				return err
			}
		}
	}
	return b.checkpoint(ctx)
}

func (b *Battle) nextRound(ctx context.Context) error {
	if err := b.sequence(ctx); err != nil {
		return err
	}
	return b.checkpoint(ctx)
}

// sequence plans the current round, tells participants which steps it
// holds, and pushes it.
func (b *Battle) sequence(ctx context.Context) error {
	b.phase = PhaseSequencing
	plan := step.Plan(&b.state)
	names := make([]string, len(plan))
	entries := make([]stack.Entry, len(plan))
	for i, s := range plan {
		names[i] = string(s.Tag)
		entries[i] = stack.Entry{BattleID: b.state.ID, Tag: string(s.Tag), Round: b.state.Round, Marker: stack.NotStarted}
	}
	if err := b.env.Actions.Announce(ctx, &b.state, display.Event{Kind: display.KindRoundSteps, Steps: names}); err != nil {
		return err
	}
	b.stack.Push(entries...)
	b.phase = PhaseExecuting
	return nil
}

func (b *Battle) checkpoint(ctx context.Context) error {
	if b.cfg.Checkpoints == nil {
		return nil
	}
	if err := b.cfg.Checkpoints.SaveSnapshot(ctx, b.Snapshot()); err != nil {
		return fmt.Errorf("checkpoint battle %s: %w", b.state.ID, err)
	}
	return nil
}

// Preview returns the steps the current round of st would run, without
// executing anything.
func Preview(st state.State) []step.Tag {
	return step.Tags(step.Plan(&st))
}

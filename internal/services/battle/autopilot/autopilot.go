// Package autopilot answers battle decisions without a human player.
//
// Casualties are always the cheapest units that can absorb the hits.
// Retreat and submerge choices come from boolean policy expressions
// evaluated against a PolicyEnv built from the request and, when a
// snapshot source is available, the saved battle state.
package autopilot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

const (
	// DefaultRetreatPolicy leaves once the enemy fields twice our strength.
	DefaultRetreatPolicy = "Round > 1 && EnemyStrength > 2 * OwnStrength"
	// DefaultSubmergePolicy dives when outgunned.
	DefaultSubmergePolicy = "EnemyStrength > OwnStrength"
)

// Snapshots loads the latest saved state of a battle. A battle is always
// checkpointed before a decision is requested, so the snapshot matches the
// request.
type Snapshots interface {
	LoadSnapshot(ctx context.Context, battleID string) (engine.Snapshot, error)
}

// PolicyEnv is what policy expressions can read.
type PolicyEnv struct {
	Kind          string   `expr:"Kind"`
	Side          string   `expr:"Side"`
	Round         int      `expr:"Round"`
	MaxRounds     int      `expr:"MaxRounds"`
	OwnCount      int      `expr:"OwnCount"`
	EnemyCount    int      `expr:"EnemyCount"`
	OwnStrength   int      `expr:"OwnStrength"`
	EnemyStrength int      `expr:"EnemyStrength"`
	OwnCost       int      `expr:"OwnCost"`
	EnemyCost     int      `expr:"EnemyCost"`
	Candidates    int      `expr:"Candidates"`
	Options       []string `expr:"Options"`
}

// Config tunes an Autopilot. Empty policies use the defaults.
type Config struct {
	RetreatPolicy  string
	SubmergePolicy string
	// Snapshots supplies unit costs and strengths. Without it policies only
	// see request fields and casualties are chosen by id.
	Snapshots Snapshots
}

// Autopilot is a gateway that decides immediately.
type Autopilot struct {
	retreat   *vm.Program
	submerge  *vm.Program
	snapshots Snapshots
}

// New compiles the policies.
func New(cfg Config) (*Autopilot, error) {
	retreat, err := compile("retreat", cfg.RetreatPolicy, DefaultRetreatPolicy)
	if err != nil {
		return nil, err
	}
	submerge, err := compile("submerge", cfg.SubmergePolicy, DefaultSubmergePolicy)
	if err != nil {
		return nil, err
	}
	return &Autopilot{retreat: retreat, submerge: submerge, snapshots: cfg.Snapshots}, nil
}

func compile(name, src, fallback string) (*vm.Program, error) {
	if strings.TrimSpace(src) == "" {
		src = fallback
	}
	prog, err := expr.Compile(src, expr.Env(PolicyEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %s policy: %w", name, err)
	}
	return prog, nil
}

// RequestDecision answers req.
func (a *Autopilot) RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error) {
	if err := ctx.Err(); err != nil {
		return decision.Response{}, err
	}
	st, err := a.load(ctx, req.BattleID)
	if err != nil {
		return decision.Response{}, err
	}
	switch req.Kind {
	case decision.KindSelectCasualties:
		return decision.Response{Kind: req.Kind, Casualties: Cheapest(req, st)}, nil
	case decision.KindRetreat:
		resp := decision.Response{Kind: req.Kind}
		if len(req.Options) == 0 {
			return resp, nil
		}
		ok, err := evaluate(a.retreat, newPolicyEnv(req, st))
		if err != nil {
			return decision.Response{}, fmt.Errorf("retreat policy: %w", err)
		}
		if ok {
			resp.Destination = req.Options[0]
		}
		return resp, nil
	case decision.KindSubmerge:
		resp := decision.Response{Kind: req.Kind}
		ok, err := evaluate(a.submerge, newPolicyEnv(req, st))
		if err != nil {
			return decision.Response{}, fmt.Errorf("submerge policy: %w", err)
		}
		if ok {
			resp.Submerge = slices.Clone(req.Candidates)
		}
		return resp, nil
	default:
		return decision.Response{}, fmt.Errorf("autopilot cannot answer %q", req.Kind)
	}
}

func (a *Autopilot) load(ctx context.Context, battleID string) (*state.State, error) {
	if a.snapshots == nil {
		return nil, nil
	}
	snap, err := a.snapshots.LoadSnapshot(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("load battle %s: %w", battleID, err)
	}
	return &snap.State, nil
}

func evaluate(prog *vm.Program, env PolicyEnv) (bool, error) {
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

func newPolicyEnv(req decision.Request, st *state.State) PolicyEnv {
	env := PolicyEnv{
		Kind:       string(req.Kind),
		Side:       req.Side.String(),
		Round:      req.Round,
		Candidates: len(req.Candidates),
		Options:    slices.Clone(req.Options),
	}
	if st == nil {
		return env
	}
	env.MaxRounds = st.MaxRounds
	own, enemy := req.Side, req.Side.Opposite()
	env.OwnCount = st.Count(own)
	env.EnemyCount = st.Count(enemy)
	for _, u := range st.AliveUnits(own) {
		env.OwnStrength += u.Strength()
		env.OwnCost += u.Cost
	}
	for _, u := range st.AliveUnits(enemy) {
		env.EnemyStrength += u.Strength()
		env.EnemyCost += u.Cost
	}
	return env
}

// Cheapest picks the casualties for req, preferring low cost and then low
// id. Units are only kept while every chosen unit can still take a
// distinct hit, so the result always validates.
func Cheapest(req decision.Request, st *state.State) []unit.ID {
	eligible := req.Eligible()
	cost := func(id unit.ID) int {
		if st == nil {
			return 0
		}
		return st.Units[id].Cost
	}
	slices.SortStableFunc(eligible, func(a, b unit.ID) int {
		if d := cost(a) - cost(b); d != 0 {
			return d
		}
		return strings.Compare(string(a), string(b))
	})
	chosen := make([]unit.ID, 0, req.Required)
	for _, id := range eligible {
		if len(chosen) == req.Required {
			break
		}
		next := append(slices.Clone(chosen), id)
		if decision.Assignable(req.Buckets, next) == len(next) {
			chosen = next
		}
	}
	return chosen
}

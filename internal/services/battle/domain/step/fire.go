package step

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/louisbranch/warfront/internal/services/battle/dice"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// fireStep rolls side's dice for group and stores the hits as pending,
// bucketed by which enemy units each hit may be assigned to.
func fireStep(tag Tag, side unit.Side, group state.Group) Step {
	return Step{
		Tag: tag,
		Valid: func(st *state.State) bool {
			return !st.HasFired(side, group) && canFire(st, side, group)
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			airExcluded := AirCannotHitEvaders(st, side)
			v, err := shotsAndRolls(ctx, env, st, side, group)
			if err != nil {
				return err
			}
			hits := bucketHits(st, side, group, airExcluded, v.shots, v.rolls)
			return env.Actions.RecordHits(ctx, st, side, group, v.rolls, hits, v.seq)
		},
	}
}

type volley struct {
	shots []shot
	rolls []int
	seq   uint64
}

func shotsAndRolls(ctx context.Context, env Env, st *state.State, side unit.Side, group state.Group) (volley, error) {
	planned := shots(st, side, group)
	if len(planned) == 0 {
		return volley{seq: st.RollSeq}, nil
	}
	if env.Dice == nil {
		return volley{}, fmt.Errorf("random source is required")
	}
	seq := st.RollSeq + 1
	rolls, err := env.Dice.Roll(ctx, dice.RollRequest{
		Max:        st.Rules.Sides(),
		Count:      len(planned),
		Seq:        seq,
		Annotation: fmt.Sprintf("%s %s fire, round %d", side, group, st.Round),
	})
	if err != nil {
		return volley{}, fmt.Errorf("roll %s %s: %w", side, group, err)
	}
	if len(rolls) != len(planned) {
		return volley{}, fmt.Errorf("roll %s %s: got %d dice, want %d", side, group, len(rolls), len(planned))
	}
	return volley{shots: planned, rolls: rolls, seq: seq}, nil
}

// bucketHits groups hits by their eligible target set. Narrower buckets come
// first so restricted hits are visible before the ones that can go anywhere.
func bucketHits(st *state.State, side unit.Side, group state.Group, airExcluded bool, planned []shot, rolls []int) []state.Hits {
	index := map[string]int{}
	var out []state.Hits
	for i, s := range planned {
		if rolls[i] > s.strength {
			continue
		}
		eligible := targets(st, s.shooter, side, group, airExcluded)
		key := joinIDs(eligible)
		if at, ok := index[key]; ok {
			out[at].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, state.Hits{Target: side.Opposite(), Group: group, Count: 1, Eligible: eligible})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Eligible) < len(out[j].Eligible)
	})
	return out
}

// selectCasualtiesStep lets target choose who absorbs group's pending hits.
// The choice is made automatically when there is none to make.
func selectCasualtiesStep(tag Tag, target unit.Side, group state.Group) Step {
	shooter := target.Opposite()
	buckets := func(st *state.State) []decision.Bucket {
		var out []decision.Bucket
		for _, h := range st.PendingHits(target, group) {
			out = append(out, decision.Bucket{Count: h.Count, Eligible: slices.Clone(h.Eligible)})
		}
		return out
	}
	automatic := func(st *state.State) ([]unit.ID, bool) {
		b := buckets(st)
		required := decision.Required(b)
		eligible := decision.Request{Buckets: b}.Eligible()
		switch {
		case required == 0:
			return nil, true
		case required == len(eligible):
			return eligible, true
		default:
			return nil, false
		}
	}
	return Step{
		Tag: tag,
		Valid: func(st *state.State) bool {
			if len(st.PendingHits(target, group)) > 0 {
				return true
			}
			return !st.HasFired(shooter, group) && canFire(st, shooter, group)
		},
		Prepare: func(st *state.State) *decision.Request {
			if _, ok := automatic(st); ok {
				return nil
			}
			b := buckets(st)
			return &decision.Request{
				Kind:     decision.KindSelectCasualties,
				Side:     target,
				Required: decision.Required(b),
				Buckets:  b,
			}
		},
		Apply: func(ctx context.Context, env Env, st *state.State, resp *decision.Response) error {
			var chosen []unit.ID
			if resp != nil {
				chosen = resp.Casualties
			} else {
				chosen, _ = automatic(st)
			}
			return env.Actions.MarkCasualties(ctx, st, target, group, chosen)
		},
	}
}

// removeWaitingStep removes the casualties pick returns as one batch. It is
// planned whenever one of the feeding fire groups can still score hits.
func removeWaitingStep(tag Tag, cause string, pick func(*state.State) []unit.ID, feeds ...state.Group) Step {
	return Step{
		Tag: tag,
		Valid: func(st *state.State) bool {
			if len(pick(st)) > 0 {
				return true
			}
			for _, group := range feeds {
				for _, side := range unit.Sides {
					if !st.HasFired(side, group) && canFire(st, side, group) {
						return true
					}
				}
			}
			return false
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			ids := pick(st)
			if len(ids) == 0 {
				return nil
			}
			_, err := env.Actions.RemoveUnits(ctx, st, ids, cause)
			return err
		},
	}
}

// sneakAttackCasualties are first-strike casualties on a side without a
// destroyer. They die before they can return fire.
func sneakAttackCasualties(st *state.State) []unit.ID {
	var out []unit.ID
	for _, id := range st.Waiting(state.GroupFirstStrike) {
		side := st.Units[id].Side
		if !st.Any(side, isDestroyer) {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []unit.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

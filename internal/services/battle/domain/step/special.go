package step

import (
	"context"
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// unprotectedSide finds a side at sea whose own units are all transports
// facing an armed enemy. The offense is checked first.
func unprotectedSide(st *state.State) (unit.Side, bool) {
	if !st.Site.Water || !st.Rules.TransportCasualtiesRestricted {
		return 0, false
	}
	for _, side := range unit.Sides {
		own := ownUnits(st, side)
		if len(own) == 0 {
			continue
		}
		allTransports := true
		for _, u := range own {
			if !u.Is(unit.Transport) {
				allTransports = false
				break
			}
		}
		if allTransports && canTarget(st, side.Opposite()) {
			return side, true
		}
	}
	return 0, false
}

func removeUnprotectedStep() Step {
	return Step{
		Tag: RemoveUnprotectedUnits,
		Valid: func(st *state.State) bool {
			_, ok := unprotectedSide(st)
			return ok
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			side, ok := unprotectedSide(st)
			if !ok {
				return nil
			}
			_, err := env.Actions.RemoveUnits(ctx, st, slices.Clone(st.Alive[side]), "unprotected")
			return err
		},
	}
}

// evadersFacingOnlyAir returns the side that must submerge because every
// enemy unit is air, and its units that can both evade and not be targeted.
// Offense-all-air is checked first and wins ties.
func evadersFacingOnlyAir(st *state.State) (unit.Side, []unit.ID, bool) {
	for _, airSide := range unit.Sides {
		if !st.All(airSide, isAir) {
			continue
		}
		target := airSide.Opposite()
		var evaders []unit.ID
		for _, u := range st.AliveUnits(target) {
			if u.Is(unit.CanEvade, unit.CanNotBeTargetedByAll) && !st.IsDependent(u.ID) {
				evaders = append(evaders, u.ID)
			}
		}
		if len(evaders) > 0 {
			return target, evaders, true
		}
	}
	return 0, nil, false
}

func submergeVsOnlyAirStep() Step {
	return Step{
		Tag: SubmergeSubsVsOnlyAir,
		Valid: func(st *state.State) bool {
			_, _, ok := evadersFacingOnlyAir(st)
			return ok
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			side, evaders, ok := evadersFacingOnlyAir(st)
			if !ok {
				return nil
			}
			_, err := env.Actions.SubmergeUnits(ctx, st, evaders, side)
			return err
		},
	}
}

type timing int

const (
	beforeBattle timing = iota
	afterBattle
)

func submergeCandidates(st *state.State, side unit.Side) []unit.ID {
	var out []unit.ID
	for _, u := range st.AliveUnits(side) {
		if u.Submersible() && !st.IsDependent(u.ID) && !st.IsWaiting(u.ID) {
			out = append(out, u.ID)
		}
	}
	return out
}

// submergeStep offers side's evaders the choice to leave combat when the
// enemy has no destroyer.
func submergeStep(tag Tag, side unit.Side, when timing) Step {
	valid := func(st *state.State) bool {
		enabled := st.Rules.SubmergeBeforeBattle
		if when == afterBattle {
			enabled = st.Rules.SubmergeAfterBattle
		}
		if !enabled || st.Count(side.Opposite()) == 0 {
			return false
		}
		return len(submergeCandidates(st, side)) > 0 && !st.Any(side.Opposite(), isDestroyer)
	}
	return Step{
		Tag:   tag,
		Valid: valid,
		Prepare: func(st *state.State) *decision.Request {
			return &decision.Request{
				Kind:       decision.KindSubmerge,
				Side:       side,
				Candidates: submergeCandidates(st, side),
			}
		},
		Apply: func(ctx context.Context, env Env, st *state.State, resp *decision.Response) error {
			if resp == nil || len(resp.Submerge) == 0 {
				return nil
			}
			_, err := env.Actions.SubmergeUnits(ctx, st, resp.Submerge, side)
			return err
		},
	}
}

// airCannotHitEvadersStep tells participants that side's air hits will skip
// evaders this round. The exclusion itself is applied by the fire steps.
func airCannotHitEvadersStep(tag Tag, side unit.Side) Step {
	return Step{
		Tag: tag,
		Valid: func(st *state.State) bool {
			return AirCannotHitEvaders(st, side)
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			return env.Actions.Announce(ctx, st, display.Event{Kind: display.KindAirCannotHitEvaders, Side: side})
		},
	}
}

// suicideUnits returns, per side, the alive suicide units of group whose
// fire step resolved this round or is still to come.
func suicideUnits(st *state.State, group state.Group) map[unit.Side][]unit.ID {
	out := map[unit.Side][]unit.ID{}
	for _, side := range unit.Sides {
		if !st.HasFired(side, group) && !canFire(st, side, group) {
			continue
		}
		for _, u := range st.AliveUnits(side) {
			if !u.Suicide() || st.IsDependent(u.ID) {
				continue
			}
			if u.Is(unit.FirstStrike) != (group == state.GroupFirstStrike) {
				continue
			}
			out[side] = append(out[side], u.ID)
		}
	}
	return out
}

// suicideStep removes units that die by firing, together with whatever they
// carry, as one casualty batch.
func suicideStep(tag Tag, group state.Group) Step {
	return Step{
		Tag: tag,
		Valid: func(st *state.State) bool {
			return len(suicideUnits(st, group)) > 0
		},
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			bySide := suicideUnits(st, group)
			var all []unit.ID
			for _, side := range unit.Sides {
				all = append(all, bySide[side]...)
			}
			_, err := env.Actions.RemoveSuicides(ctx, st, all)
			return err
		},
	}
}

func retreatStep() Step {
	return Step{
		Tag: OffenseRetreat,
		Valid: func(st *state.State) bool {
			return combatants(st, unit.Offense) > 0 && combatants(st, unit.Defense) > 0 && len(st.RetreatOptions) > 0
		},
		Prepare: func(st *state.State) *decision.Request {
			return &decision.Request{
				Kind:    decision.KindRetreat,
				Side:    unit.Offense,
				Options: slices.Clone(st.RetreatOptions),
			}
		},
		Apply: func(ctx context.Context, env Env, st *state.State, resp *decision.Response) error {
			if resp == nil || resp.Destination == "" {
				return nil
			}
			_, err := env.Actions.RetreatUnits(ctx, st, slices.Clone(st.Alive[unit.Offense]), resp.Destination, unit.Offense)
			return err
		},
	}
}

// ownUnits returns side's alive units that are not carried by another.
func ownUnits(st *state.State, side unit.Side) []unit.Unit {
	return st.Filter(side, func(u unit.Unit) bool { return !st.IsDependent(u.ID) })
}

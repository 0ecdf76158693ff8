package step

import (
	"context"

	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Judge returns the outcome st has reached at the end of a round, or
// state.Undecided when another round must be fought.
func Judge(st *state.State) state.Outcome {
	if len(st.Retreated) > 0 {
		return state.Retreated
	}
	offense, defense := combatants(st, unit.Offense), combatants(st, unit.Defense)
	switch {
	case offense == 0 && defense == 0:
		return state.Draw
	case offense == 0:
		return state.DefenseWon
	case defense == 0:
		return state.OffenseWon
	}
	if !canTarget(st, unit.Offense) && !canTarget(st, unit.Defense) {
		return state.Stalemate
	}
	if st.MaxRounds > 0 && st.Round >= st.MaxRounds {
		return state.Stalemate
	}
	return state.Undecided
}

// endRoundStep sits at the bottom of every round. It ends the battle or
// advances the round counter; the driver then plans the next round.
func endRoundStep() Step {
	return Step{
		Tag:   EndRound,
		Valid: func(*state.State) bool { return true },
		Apply: func(ctx context.Context, env Env, st *state.State, _ *decision.Response) error {
			outcome := Judge(st)
			if outcome == state.Undecided {
				st.NextRound()
				return nil
			}
			if err := env.Actions.Announce(ctx, st, display.Event{Kind: display.KindBattleEnded, Outcome: string(outcome)}); err != nil {
				return err
			}
			st.Outcome = outcome
			return nil
		},
	}
}

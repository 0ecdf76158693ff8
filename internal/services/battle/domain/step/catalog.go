package step

import (
	"fmt"
	"sort"

	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// declared lists the catalog in declaration order, which breaks priority
// ties.
var declared = buildCatalog()

var byTag = indexCatalog(declared)

func buildCatalog() []Step {
	steps := []Step{
		fireStep(OffenseBombardFire, unit.Offense, state.GroupBombard),
		selectCasualtiesStep(DefenseBombardSelectCasualties, unit.Defense, state.GroupBombard),
		removeWaitingStep(BombardRemoveCasualties, "bombard", func(st *state.State) []unit.ID {
			return st.Waiting(state.GroupBombard)
		}, state.GroupBombard),

		fireStep(OffenseAAFire, unit.Offense, state.GroupAA),
		selectCasualtiesStep(DefenseAASelectCasualties, unit.Defense, state.GroupAA),
		fireStep(DefenseAAFire, unit.Defense, state.GroupAA),
		selectCasualtiesStep(OffenseAASelectCasualties, unit.Offense, state.GroupAA),
		removeWaitingStep(AARemoveCasualties, "aa", func(st *state.State) []unit.ID {
			return st.Waiting(state.GroupAA)
		}, state.GroupAA),

		removeUnprotectedStep(),
		submergeVsOnlyAirStep(),
		submergeStep(OffenseSubmergeBeforeBattle, unit.Offense, beforeBattle),
		submergeStep(DefenseSubmergeBeforeBattle, unit.Defense, beforeBattle),
		airCannotHitEvadersStep(OffenseAirCannotHitEvaders, unit.Offense),
		airCannotHitEvadersStep(DefenseAirCannotHitEvaders, unit.Defense),

		fireStep(OffenseFirstStrikeFire, unit.Offense, state.GroupFirstStrike),
		selectCasualtiesStep(DefenseFirstStrikeSelectCasualties, unit.Defense, state.GroupFirstStrike),
		fireStep(DefenseFirstStrikeFire, unit.Defense, state.GroupFirstStrike),
		selectCasualtiesStep(OffenseFirstStrikeSelectCasualties, unit.Offense, state.GroupFirstStrike),
		removeWaitingStep(FirstStrikeRemoveCasualties, "first_strike", sneakAttackCasualties, state.GroupFirstStrike),
		suicideStep(RemoveFirstStrikeSuicide, state.GroupFirstStrike),

		fireStep(OffenseGeneralFire, unit.Offense, state.GroupGeneral),
		selectCasualtiesStep(DefenseGeneralSelectCasualties, unit.Defense, state.GroupGeneral),
		fireStep(DefenseGeneralFire, unit.Defense, state.GroupGeneral),
		selectCasualtiesStep(OffenseGeneralSelectCasualties, unit.Offense, state.GroupGeneral),
		removeWaitingStep(GeneralRemoveCasualties, "combat", func(st *state.State) []unit.ID {
			return st.Waiting()
		}, state.GroupFirstStrike, state.GroupGeneral),
		suicideStep(RemoveGeneralSuicide, state.GroupGeneral),

		submergeStep(OffenseSubmergeAfterBattle, unit.Offense, afterBattle),
		retreatStep(),
		submergeStep(DefenseSubmergeAfterBattle, unit.Defense, afterBattle),

		endRoundStep(),
	}
	for i := range steps {
		order, ok := Order(steps[i].Tag)
		if !ok {
			panic(fmt.Sprintf("step %s has no priority", steps[i].Tag))
		}
		steps[i].Order = order
	}
	return steps
}

func indexCatalog(steps []Step) map[Tag]Step {
	out := make(map[Tag]Step, len(steps))
	for _, s := range steps {
		if _, dup := out[s.Tag]; dup {
			panic(fmt.Sprintf("step %s declared twice", s.Tag))
		}
		out[s.Tag] = s
	}
	return out
}

// Catalog returns every step in declaration order.
func Catalog() []Step {
	out := make([]Step, len(declared))
	copy(out, declared)
	return out
}

// Lookup returns the step for tag.
func Lookup(tag Tag) (Step, bool) {
	s, ok := byTag[tag]
	return s, ok
}

// Plan returns the steps that apply to st in execution order. It has no
// side effects and always ends with EndRound.
func Plan(st *state.State) []Step {
	return plan(declared, st)
}

func plan(catalog []Step, st *state.State) []Step {
	type ranked struct {
		step  Step
		index int
	}
	var applicable []ranked
	for i, s := range catalog {
		if s.Valid(st) {
			applicable = append(applicable, ranked{step: s, index: i})
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		if applicable[i].step.Order != applicable[j].step.Order {
			return applicable[i].step.Order < applicable[j].step.Order
		}
		return applicable[i].index < applicable[j].index
	})
	out := make([]Step, len(applicable))
	for i, r := range applicable {
		out[i] = r.step
	}
	return out
}

// Tags returns the tags of steps in order.
func Tags(steps []Step) []Tag {
	out := make([]Tag, len(steps))
	for i, s := range steps {
		out[i] = s.Tag
	}
	return out
}

package step

import (
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// aaShotsPerGun caps the dice one anti-air gun rolls.
const aaShotsPerGun = 3

// shot is one die a unit rolls, hitting on a value at or below strength.
type shot struct {
	shooter  unit.Unit
	strength int
}

// AirCannotHitEvaders reports whether hits scored by side's air units must
// skip evaders: side has air, no destroyer, and the enemy has an evader.
func AirCannotHitEvaders(st *state.State, side unit.Side) bool {
	return st.Any(side, isAir) &&
		!st.Any(side, isDestroyer) &&
		st.Any(side.Opposite(), unit.Unit.Evader)
}

// firers returns side's units that roll in group. Dependents never fire.
func firers(st *state.State, side unit.Side, group state.Group) []unit.Unit {
	var candidates []unit.Unit
	if group == state.GroupBombard {
		if side != unit.Offense {
			return nil
		}
		for _, id := range st.Bombarding {
			candidates = append(candidates, st.Units[id])
		}
	} else {
		candidates = st.AliveUnits(side)
	}

	var out []unit.Unit
	for _, u := range candidates {
		if st.IsDependent(u.ID) || strength(u, group) <= 0 {
			continue
		}
		switch group {
		case state.GroupAA:
			if !u.Is(unit.AntiAirGun) {
				continue
			}
		case state.GroupFirstStrike:
			if !u.Is(unit.FirstStrike) || u.Is(unit.Infrastructure) {
				continue
			}
		case state.GroupGeneral:
			if u.Is(unit.FirstStrike) || u.Is(unit.Infrastructure) {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func strength(u unit.Unit, group state.Group) int {
	switch group {
	case state.GroupBombard:
		return u.Bombard
	case state.GroupAA:
		return u.AntiAir
	default:
		return u.Strength()
	}
}

// targets returns the enemy units a hit by shooter in group may be assigned
// to. Dependents and units already selected as casualties are skipped.
func targets(st *state.State, shooter unit.Unit, side unit.Side, group state.Group, airExcluded bool) []unit.ID {
	var out []unit.ID
	for _, t := range st.AliveUnits(side.Opposite()) {
		if st.IsDependent(t.ID) || st.IsWaiting(t.ID) {
			continue
		}
		if group == state.GroupAA && !t.Is(unit.Air) {
			continue
		}
		if !shooter.CanHit(t) {
			continue
		}
		if airExcluded && shooter.Is(unit.Air) && t.Evader() {
			continue
		}
		out = append(out, t.ID)
	}
	return out
}

// shots expands firers into dice. Anti-air guns roll once per enemy air
// unit up to aaShotsPerGun; everything else rolls once.
func shots(st *state.State, side unit.Side, group state.Group) []shot {
	airExcluded := AirCannotHitEvaders(st, side)
	var out []shot
	for _, u := range firers(st, side, group) {
		n := len(targets(st, u, side, group, airExcluded))
		if n == 0 {
			continue
		}
		if group == state.GroupAA {
			n = min(n, aaShotsPerGun)
		} else {
			n = 1
		}
		for range n {
			out = append(out, shot{shooter: u, strength: strength(u, group)})
		}
	}
	return out
}

// canFire reports whether side has at least one die to roll in group.
func canFire(st *state.State, side unit.Side, group state.Group) bool {
	switch group {
	case state.GroupBombard:
		if st.Round != 1 || st.Site.Water {
			return false
		}
	case state.GroupAA:
		if st.Round != 1 {
			return false
		}
	}
	return len(shots(st, side, group)) > 0
}

// canTarget reports whether side could ever score a hit on the enemy in a
// later round.
func canTarget(st *state.State, side unit.Side) bool {
	return len(shots(st, side, state.GroupFirstStrike)) > 0 || len(shots(st, side, state.GroupGeneral)) > 0
}

// combatants counts side's alive units that keep a battle going.
func combatants(st *state.State, side unit.Side) int {
	n := 0
	for _, u := range st.AliveUnits(side) {
		if !u.Is(unit.Infrastructure) {
			n++
		}
	}
	return n
}

func isAir(u unit.Unit) bool       { return u.Is(unit.Air) }
func isDestroyer(u unit.Unit) bool { return u.Is(unit.Destroyer) }

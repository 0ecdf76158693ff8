// Package unit models combat units, their capabilities and owning side.
//
// Units are addressed by ID only; battle state keeps them in an arena so
// nothing holds pointers into another unit.
package unit

// ID is a stable unit identifier.
type ID string

// Unit is one combatant.
type Unit struct {
	ID      ID     `json:"id"`
	Type    string `json:"type"`
	Side    Side   `json:"side"`
	Flags   Flags  `json:"flags"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	AntiAir int    `json:"anti_air"`
	Bombard int    `json:"bombard"`
	Cost    int    `json:"cost"`
}

// Is reports whether the unit has every given flag.
func (u Unit) Is(flags ...Flag) bool {
	return u.Flags.Has(flags...)
}

// Evader reports whether the unit can only be hit by some attackers.
func (u Unit) Evader() bool {
	return u.Is(CanNotBeTargetedByAll)
}

// Submersible reports whether the unit may leave combat by submerging.
func (u Unit) Submersible() bool {
	return u.Is(CanEvade)
}

// Strength returns the die threshold used when the unit fires in regular
// combat for its side.
func (u Unit) Strength() int {
	if u.Side == Offense {
		return u.Attack
	}
	return u.Defense
}

// Suicide reports whether the unit dies after firing for its side.
func (u Unit) Suicide() bool {
	if u.Side == Offense {
		return u.Is(SuicideOnAttack)
	}
	return u.Is(SuicideOnDefense)
}

// CanHit reports whether a hit scored by u may be assigned to target. It
// ignores battle-wide exclusions such as air against evaders.
func (u Unit) CanHit(target Unit) bool {
	if target.Side == u.Side {
		return false
	}
	if target.Is(Infrastructure) {
		return false
	}
	if target.Is(Air) && u.Is(CannotTargetAir) {
		return false
	}
	return true
}

// IDs returns the ids of units in order.
func IDs(units []Unit) []ID {
	out := make([]ID, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}

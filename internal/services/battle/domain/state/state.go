// Package state holds the serializable battle state: a unit arena plus the
// per-side partitions that the rule steps read and Battle Actions mutate.
package state

import (
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// DefaultDiceSides is the die size used when rules leave it unset.
const DefaultDiceSides = 6

// Group identifies a fire phase within a round.
type Group string

const (
	GroupBombard     Group = "bombard"
	GroupAA          Group = "aa"
	GroupFirstStrike Group = "first_strike"
	GroupGeneral     Group = "general"
)

// Outcome is the result of a finished battle.
type Outcome string

const (
	Undecided  Outcome = ""
	OffenseWon Outcome = "offense_won"
	DefenseWon Outcome = "defense_won"
	Draw       Outcome = "draw"
	Stalemate  Outcome = "stalemate"
	Retreated  Outcome = "retreated"
)

// Site is where the battle takes place.
type Site struct {
	Name  string `json:"name"`
	Water bool   `json:"water"`
}

// Rules toggles optional rule steps.
type Rules struct {
	DiceSides                     int  `json:"dice_sides"`
	SubmergeBeforeBattle          bool `json:"submerge_before_battle"`
	SubmergeAfterBattle           bool `json:"submerge_after_battle"`
	TransportCasualtiesRestricted bool `json:"transport_casualties_restricted"`
}

// Sides returns the die size, falling back to DefaultDiceSides.
func (r Rules) Sides() int {
	if r.DiceSides <= 0 {
		return DefaultDiceSides
	}
	return r.DiceSides
}

// Hits are scored hits awaiting casualty selection. Eligible lists the
// units the hits may be assigned to.
type Hits struct {
	Target   unit.Side `json:"target"`
	Group    Group     `json:"group"`
	Count    int       `json:"count"`
	Eligible []unit.ID `json:"eligible"`
}

// Doomed is a selected casualty that still takes part in the round.
type Doomed struct {
	Unit  unit.ID `json:"unit"`
	Group Group   `json:"group"`
}

// Batch is one casualty removal.
type Batch struct {
	Round int       `json:"round"`
	Cause string    `json:"cause"`
	Units []unit.ID `json:"units"`
}

// Salvo marks a fire step that has resolved this round.
type Salvo struct {
	Side  unit.Side `json:"side"`
	Group Group     `json:"group"`
}

// State is the full battle state. The zero value is not usable; build one
// with New.
type State struct {
	ID             string                  `json:"id"`
	Site           Site                    `json:"site"`
	Round          int                     `json:"round"`
	MaxRounds      int                     `json:"max_rounds"`
	Rules          Rules                   `json:"rules"`
	Seed           int64                   `json:"seed"`
	RollSeq        uint64                  `json:"roll_seq"`
	Units          map[unit.ID]unit.Unit   `json:"units"`
	Alive          map[unit.Side][]unit.ID `json:"alive"`
	Bombarding     []unit.ID               `json:"bombarding"`
	WaitingToDie   []Doomed                `json:"waiting_to_die"`
	Casualties     []Batch                 `json:"casualties"`
	Submerged      []unit.ID               `json:"submerged"`
	Retreated      []unit.ID               `json:"retreated"`
	RetreatedTo    string                  `json:"retreated_to"`
	Dependents     map[unit.ID][]unit.ID   `json:"dependents"`
	Players        map[unit.Side]string    `json:"players"`
	RetreatOptions []string                `json:"retreat_options"`
	Pending        []Hits                  `json:"pending"`
	Fired          []Salvo                 `json:"fired"`
	Outcome        Outcome                 `json:"outcome"`
}

// New builds round-one state. Units listed in bombarding belong to the
// offense but only fire once and are never targeted.
func New(id string, site Site, maxRounds int, rules Rules, units []unit.Unit, bombarding []unit.ID) State {
	st := State{
		ID:           id,
		Site:         site,
		Round:        1,
		MaxRounds:    maxRounds,
		Rules:        rules,
		Units:        make(map[unit.ID]unit.Unit, len(units)),
		Alive:        map[unit.Side][]unit.ID{unit.Offense: {}, unit.Defense: {}},
		Bombarding:   []unit.ID{},
		WaitingToDie: []Doomed{},
		Casualties:   []Batch{},
		Submerged:    []unit.ID{},
		Retreated:    []unit.ID{},
		Dependents:   map[unit.ID][]unit.ID{},
		Players:      map[unit.Side]string{},
		Pending:      []Hits{},
		Fired:        []Salvo{},
	}
	for _, u := range units {
		st.Units[u.ID] = u
		if slices.Contains(bombarding, u.ID) {
			st.Bombarding = append(st.Bombarding, u.ID)
			continue
		}
		st.Alive[u.Side] = append(st.Alive[u.Side], u.ID)
	}
	return st
}

// Unit returns a unit from the arena.
func (s *State) Unit(id unit.ID) (unit.Unit, bool) {
	u, ok := s.Units[id]
	return u, ok
}

// AliveUnits returns the alive units of side in arena order.
func (s *State) AliveUnits(side unit.Side) []unit.Unit {
	ids := s.Alive[side]
	out := make([]unit.Unit, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Units[id])
	}
	return out
}

// Count returns the number of alive units on side.
func (s *State) Count(side unit.Side) int {
	return len(s.Alive[side])
}

// IsAlive reports whether id is alive on either side.
func (s *State) IsAlive(id unit.ID) bool {
	u, ok := s.Units[id]
	if !ok {
		return false
	}
	return slices.Contains(s.Alive[u.Side], id)
}

// Any reports whether an alive unit on side matches pred.
func (s *State) Any(side unit.Side, pred func(unit.Unit) bool) bool {
	for _, id := range s.Alive[side] {
		if pred(s.Units[id]) {
			return true
		}
	}
	return false
}

// All reports whether every alive unit on side matches pred. An empty side
// never matches.
func (s *State) All(side unit.Side, pred func(unit.Unit) bool) bool {
	if len(s.Alive[side]) == 0 {
		return false
	}
	for _, id := range s.Alive[side] {
		if !pred(s.Units[id]) {
			return false
		}
	}
	return true
}

// Filter returns the alive units on side matching pred.
func (s *State) Filter(side unit.Side, pred func(unit.Unit) bool) []unit.Unit {
	var out []unit.Unit
	for _, id := range s.Alive[side] {
		if u := s.Units[id]; pred(u) {
			out = append(out, u)
		}
	}
	return out
}

// IsDependent reports whether id is carried by another unit.
func (s *State) IsDependent(id unit.ID) bool {
	for _, deps := range s.Dependents {
		if slices.Contains(deps, id) {
			return true
		}
	}
	return false
}

// WithDependents expands ids with their dependents (recursively), keeping
// the first-seen order and dropping duplicates.
func (s *State) WithDependents(ids []unit.ID) []unit.ID {
	seen := make(map[unit.ID]bool, len(ids))
	out := make([]unit.ID, 0, len(ids))
	var visit func(unit.ID)
	visit = func(id unit.ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, dep := range s.Dependents[id] {
			visit(dep)
		}
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}

// HasFired reports whether side's fire step of group resolved this round.
func (s *State) HasFired(side unit.Side, group Group) bool {
	return slices.Contains(s.Fired, Salvo{Side: side, Group: group})
}

// PendingHits returns the unresolved hits against target from group.
func (s *State) PendingHits(target unit.Side, group Group) []Hits {
	var out []Hits
	for _, h := range s.Pending {
		if h.Target == target && h.Group == group {
			out = append(out, h)
		}
	}
	return out
}

// Waiting returns the units waiting to die, optionally filtered by group.
func (s *State) Waiting(groups ...Group) []unit.ID {
	var out []unit.ID
	for _, d := range s.WaitingToDie {
		if len(groups) == 0 || slices.Contains(groups, d.Group) {
			out = append(out, d.Unit)
		}
	}
	return out
}

// IsWaiting reports whether id has been selected as a casualty this round.
func (s *State) IsWaiting(id unit.ID) bool {
	for _, d := range s.WaitingToDie {
		if d.Unit == id {
			return true
		}
	}
	return false
}

// Terminal reports whether the battle has an outcome.
func (s *State) Terminal() bool {
	return s.Outcome != Undecided
}

package state

import (
	"maps"
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Units = maps.Clone(s.Units)
	out.Alive = cloneIDMap(s.Alive)
	out.Bombarding = slices.Clone(s.Bombarding)
	out.WaitingToDie = slices.Clone(s.WaitingToDie)
	if s.Casualties != nil {
		out.Casualties = make([]Batch, len(s.Casualties))
		for i, b := range s.Casualties {
			b.Units = slices.Clone(b.Units)
			out.Casualties[i] = b
		}
	}
	out.Submerged = slices.Clone(s.Submerged)
	out.Retreated = slices.Clone(s.Retreated)
	out.Dependents = cloneIDMap(s.Dependents)
	out.Players = maps.Clone(s.Players)
	out.RetreatOptions = slices.Clone(s.RetreatOptions)
	if s.Pending != nil {
		out.Pending = make([]Hits, len(s.Pending))
		for i, h := range s.Pending {
			h.Eligible = slices.Clone(h.Eligible)
			out.Pending[i] = h
		}
	}
	out.Fired = slices.Clone(s.Fired)
	return out
}

func cloneIDMap[K comparable](in map[K][]unit.ID) map[K][]unit.ID {
	if in == nil {
		return nil
	}
	out := make(map[K][]unit.ID, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

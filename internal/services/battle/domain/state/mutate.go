package state

import (
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// The methods below commit mutations. Battle Actions is the only caller
// outside tests; it has already notified participants and recorded history.

// Kill moves alive units into one casualty batch for the current round.
// Units that are not alive are ignored. It returns the removed ids.
func (s *State) Kill(ids []unit.ID, cause string) []unit.ID {
	removed := s.leave(ids)
	if len(removed) == 0 {
		return nil
	}
	s.Casualties = append(s.Casualties, Batch{Round: s.Round, Cause: cause, Units: removed})
	return removed
}

// Submerge moves alive units into the submerged bucket.
func (s *State) Submerge(ids []unit.ID) []unit.ID {
	removed := s.leave(ids)
	s.Submerged = append(s.Submerged, removed...)
	return removed
}

// Retreat moves alive units into the retreated bucket.
func (s *State) Retreat(ids []unit.ID, destination string) []unit.ID {
	removed := s.leave(ids)
	if len(removed) > 0 {
		s.Retreated = append(s.Retreated, removed...)
		s.RetreatedTo = destination
	}
	return removed
}

// MarkWaiting records selected casualties for group and clears the pending
// hits they answer.
func (s *State) MarkWaiting(target unit.Side, group Group, ids []unit.ID) {
	for _, id := range ids {
		if !s.IsWaiting(id) {
			s.WaitingToDie = append(s.WaitingToDie, Doomed{Unit: id, Group: group})
		}
	}
	s.ClearPending(target, group)
}

// ClearPending drops pending hits against target from group.
func (s *State) ClearPending(target unit.Side, group Group) {
	s.Pending = slices.DeleteFunc(s.Pending, func(h Hits) bool {
		return h.Target == target && h.Group == group
	})
}

// RecordSalvo marks a fire step as resolved and stores its hits.
func (s *State) RecordSalvo(side unit.Side, group Group, hits []Hits, rollSeq uint64) {
	if !s.HasFired(side, group) {
		s.Fired = append(s.Fired, Salvo{Side: side, Group: group})
	}
	for _, h := range hits {
		if h.Count > 0 {
			s.Pending = append(s.Pending, h)
		}
	}
	if rollSeq > s.RollSeq {
		s.RollSeq = rollSeq
	}
}

// NextRound advances the round counter and forgets per-round bookkeeping.
func (s *State) NextRound() {
	s.Round++
	s.Fired = []Salvo{}
	s.Pending = []Hits{}
}

func (s *State) leave(ids []unit.ID) []unit.ID {
	var removed []unit.ID
	for _, id := range ids {
		u, ok := s.Units[id]
		if !ok || slices.Contains(removed, id) {
			continue
		}
		idx := slices.Index(s.Alive[u.Side], id)
		if idx < 0 {
			continue
		}
		s.Alive[u.Side] = slices.Delete(s.Alive[u.Side], idx, idx+1)
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil
	}
	s.WaitingToDie = slices.DeleteFunc(s.WaitingToDie, func(d Doomed) bool {
		return slices.Contains(removed, d.Unit)
	})
	for i := range s.Pending {
		s.Pending[i].Eligible = slices.DeleteFunc(s.Pending[i].Eligible, func(id unit.ID) bool {
			return slices.Contains(removed, id)
		})
	}
	return removed
}

package state

import (
	"errors"
	"fmt"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// ErrInvariant marks a state that no rule sequence can legally produce.
var ErrInvariant = errors.New("battle state invariant violated")

// Validate checks the structural invariants: every arena unit sits in
// exactly one bucket, casualties are recorded once, and bookkeeping only
// refers to alive units.
func (s *State) Validate() error {
	if s.Round < 1 {
		return invariant("round %d is below 1", s.Round)
	}
	where := make(map[unit.ID]string, len(s.Units))
	place := func(id unit.ID, bucket string) error {
		if _, ok := s.Units[id]; !ok {
			return invariant("%s references unknown unit %s", bucket, id)
		}
		if prev, ok := where[id]; ok {
			return invariant("unit %s is both %s and %s", id, prev, bucket)
		}
		where[id] = bucket
		return nil
	}

	for side, ids := range s.Alive {
		for _, id := range ids {
			if err := place(id, "alive"); err != nil {
				return err
			}
			if s.Units[id].Side != side {
				return invariant("unit %s of %s is alive for %s", id, s.Units[id].Side, side)
			}
		}
	}
	for _, id := range s.Bombarding {
		if err := place(id, "bombarding"); err != nil {
			return err
		}
	}
	for _, b := range s.Casualties {
		for _, id := range b.Units {
			if err := place(id, "casualty"); err != nil {
				return err
			}
		}
	}
	for _, id := range s.Submerged {
		if err := place(id, "submerged"); err != nil {
			return err
		}
	}
	for _, id := range s.Retreated {
		if err := place(id, "retreated"); err != nil {
			return err
		}
	}
	for id := range s.Units {
		if _, ok := where[id]; !ok {
			return invariant("unit %s is in no bucket", id)
		}
	}

	for _, d := range s.WaitingToDie {
		if where[d.Unit] != "alive" {
			return invariant("waiting casualty %s is not alive", d.Unit)
		}
	}
	for _, h := range s.Pending {
		if h.Count < 0 {
			return invariant("negative hit count against %s", h.Target)
		}
		for _, id := range h.Eligible {
			if where[id] != "alive" || s.Units[id].Side != h.Target {
				return invariant("pending hits list %s which is not an alive %s unit", id, h.Target)
			}
		}
	}
	for host, deps := range s.Dependents {
		if _, ok := s.Units[host]; !ok {
			return invariant("dependents reference unknown host %s", host)
		}
		for _, dep := range deps {
			if _, ok := s.Units[dep]; !ok {
				return invariant("host %s carries unknown unit %s", host, dep)
			}
		}
	}
	return nil
}

func invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

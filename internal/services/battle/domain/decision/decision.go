// Package decision defines the participant decisions a battle can suspend
// on and validates responses against the pending request.
package decision

import (
	"fmt"
	"slices"

	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Kind is the decision a participant is asked to make.
type Kind string

const (
	KindSelectCasualties Kind = "select_casualties"
	KindRetreat          Kind = "retreat"
	KindSubmerge         Kind = "submerge"
)

// Bucket is a group of hits that may only be assigned to Eligible units.
type Bucket struct {
	Count    int       `json:"count"`
	Eligible []unit.ID `json:"eligible"`
}

// Request is a pending participant decision.
type Request struct {
	Kind     Kind      `json:"kind"`
	BattleID string    `json:"battle_id"`
	Step     string    `json:"step"`
	Round    int       `json:"round"`
	Side     unit.Side `json:"side"`
	Player   string    `json:"player"`

	// Casualty selection: choose exactly Required units covering Buckets.
	Required int      `json:"required"`
	Buckets  []Bucket `json:"buckets"`

	// Submerge: any subset of Candidates.
	Candidates []unit.ID `json:"candidates"`

	// Retreat: one of Options, or empty to stay.
	Options []string `json:"options"`
}

// Response answers a Request.
type Response struct {
	Kind        Kind      `json:"kind"`
	Casualties  []unit.ID `json:"casualties,omitempty"`
	Submerge    []unit.ID `json:"submerge,omitempty"`
	Destination string    `json:"destination,omitempty"`
}

// Eligible returns every unit any bucket may hit, in first-seen order.
func (r Request) Eligible() []unit.ID {
	var out []unit.ID
	for _, b := range r.Buckets {
		for _, id := range b.Eligible {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// Validate reports whether resp is an acceptable answer to r.
func (r Request) Validate(resp Response) error {
	if resp.Kind != r.Kind {
		return platformerrors.WithMetadata(
			platformerrors.CodeDecisionKindMismatch,
			fmt.Sprintf("expected %s response, got %q", r.Kind, resp.Kind),
			map[string]string{"Expected": string(r.Kind), "Got": string(resp.Kind)},
		)
	}
	switch r.Kind {
	case KindSelectCasualties:
		return r.validateCasualties(resp.Casualties)
	case KindSubmerge:
		return r.validateSubmerge(resp.Submerge)
	case KindRetreat:
		if resp.Destination != "" && !slices.Contains(r.Options, resp.Destination) {
			return malformed("destination %q is not a retreat option", resp.Destination)
		}
		return nil
	default:
		return malformed("unknown decision kind %q", r.Kind)
	}
}

func (r Request) validateCasualties(chosen []unit.ID) error {
	if len(chosen) != r.Required {
		return malformed("expected %d casualties, got %d", r.Required, len(chosen))
	}
	if dup, ok := duplicate(chosen); ok {
		return malformed("unit %s selected twice", dup)
	}
	eligible := r.Eligible()
	for _, id := range chosen {
		if !slices.Contains(eligible, id) {
			return malformed("unit %s cannot be selected", id)
		}
	}
	if Assignable(r.Buckets, chosen) != len(chosen) {
		return malformed("selection cannot absorb the hits")
	}
	return nil
}

func (r Request) validateSubmerge(chosen []unit.ID) error {
	if dup, ok := duplicate(chosen); ok {
		return malformed("unit %s selected twice", dup)
	}
	for _, id := range chosen {
		if !slices.Contains(r.Candidates, id) {
			return malformed("unit %s cannot submerge", id)
		}
	}
	return nil
}

func duplicate(ids []unit.ID) (unit.ID, bool) {
	seen := make(map[unit.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id, true
		}
		seen[id] = true
	}
	return "", false
}

func malformed(format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	return platformerrors.WithMetadata(platformerrors.CodeDecisionMalformed, reason, map[string]string{"Reason": reason})
}

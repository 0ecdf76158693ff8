// Package display renders battle events for participants and provides the
// broadcasters the engine notifies.
package display

import (
	"context"
	"slices"
	"sync"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Kind identifies an event template.
type Kind string

const (
	KindRoundSteps          Kind = "round.steps"
	KindDiceRolled          Kind = "dice.rolled"
	KindCasualtiesSelected  Kind = "casualties.selected"
	KindUnitsRemoved        Kind = "units.removed"
	KindUnitsSubmerged      Kind = "units.submerged"
	KindUnitsRetreated      Kind = "units.retreated"
	KindAirCannotHitEvaders Kind = "notice.air_cannot_hit_evaders"
	KindSuicide             Kind = "units.suicide"
	KindBattleEnded         Kind = "battle.ended"
)

// Event is a participant-facing notification.
type Event struct {
	Kind        Kind      `json:"kind"`
	BattleID    string    `json:"battle_id"`
	Round       int       `json:"round"`
	Side        unit.Side `json:"side"`
	Units       []unit.ID `json:"units,omitempty"`
	Dependents  []unit.ID `json:"dependents,omitempty"`
	Cause       string    `json:"cause,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Steps       []string  `json:"steps,omitempty"`
	Rolls       []int     `json:"rolls,omitempty"`
	Hits        int       `json:"hits,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	// Losses is set on removal events, one entry per side that lost units.
	Losses []Loss `json:"losses,omitempty"`
}

// Loss is what one side lost in a removal batch: the units named directly
// and the dependents that went down with them.
type Loss struct {
	Side       unit.Side `json:"side"`
	Units      []unit.ID `json:"units,omitempty"`
	Dependents []unit.ID `json:"dependents,omitempty"`
}

// Notification is one recorded broadcast.
type Notification struct {
	BattleID string
	Audience []string
	Event    Event
}

// Recorder keeps every notification in memory. A non-nil Err makes Notify
// fail without recording.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	Err           error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the event.
func (r *Recorder) Notify(ctx context.Context, battleID string, audience []string, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.notifications = append(r.notifications, Notification{
		BattleID: battleID,
		Audience: slices.Clone(audience),
		Event:    evt,
	})
	return nil
}

// Notifications returns a copy of everything recorded.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notifications)
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.notifications))
	for i, n := range r.notifications {
		out[i] = n.Event.Kind
	}
	return out
}

// Package actions is the only writer of battle state during resolution.
//
// Every action notifies both participants, appends one history entry, and
// only then commits the mutation. A failing collaborator aborts the action
// before anything is committed, so callers may retry the step that issued it.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Broadcaster delivers participant notifications.
type Broadcaster interface {
	Notify(ctx context.Context, battleID string, audience []string, evt display.Event) error
}

// Log is the append-only change history.
type Log interface {
	Record(ctx context.Context, change journal.Change) error
}

// Actions applies battle effects.
type Actions struct {
	display Broadcaster
	log     Log
}

// New creates Actions. Nil collaborators are skipped.
func New(display Broadcaster, log Log) *Actions {
	return &Actions{display: display, log: log}
}

// CauseSuicide is the casualty cause of units that die by firing.
const CauseSuicide = "suicide"

// RemoveUnits kills alive units and everything they carry as a single
// casualty batch. Units may belong to either side; participants get one
// notification listing every side's losses and history receives one entry.
func (a *Actions) RemoveUnits(ctx context.Context, st *state.State, ids []unit.ID, cause string) ([]unit.ID, error) {
	return a.remove(ctx, st, ids, cause, display.KindUnitsRemoved)
}

// RemoveSuicides is RemoveUnits for units that die by firing. The
// notification names them as suicides instead of ordinary losses.
func (a *Actions) RemoveSuicides(ctx context.Context, st *state.State, ids []unit.ID) ([]unit.ID, error) {
	return a.remove(ctx, st, ids, CauseSuicide, display.KindSuicide)
}

func (a *Actions) remove(ctx context.Context, st *state.State, ids []unit.ID, cause string, kind display.Kind) ([]unit.ID, error) {
	doomed := aliveOnly(st, st.WithDependents(ids))
	if len(doomed) == 0 {
		return nil, nil
	}
	evt := display.Event{Kind: kind, Cause: cause}
	for _, side := range unit.Sides {
		direct, carried := split(st, side, ids, doomed)
		if len(direct)+len(carried) == 0 {
			continue
		}
		if len(evt.Losses) == 0 {
			evt.Side = side
		}
		evt.Losses = append(evt.Losses, display.Loss{Side: side, Units: direct, Dependents: carried})
	}
	if err := a.notify(ctx, st, evt); err != nil {
		return nil, err
	}
	if err := a.record(ctx, st, journal.Change{Kind: journal.KindUnitsRemoved, Units: doomed, Cause: cause}); err != nil {
		return nil, err
	}
	return st.Kill(doomed, cause), nil
}

// SubmergeUnits takes units of side out of combat without killing them.
func (a *Actions) SubmergeUnits(ctx context.Context, st *state.State, ids []unit.ID, side unit.Side) ([]unit.ID, error) {
	moving := ownedBy(st, side, aliveOnly(st, st.WithDependents(ids)))
	if len(moving) == 0 {
		return nil, nil
	}
	if err := a.notify(ctx, st, display.Event{Kind: display.KindUnitsSubmerged, Side: side, Units: moving}); err != nil {
		return nil, err
	}
	if err := a.record(ctx, st, journal.Change{Kind: journal.KindUnitsSubmerged, Side: side, Units: moving}); err != nil {
		return nil, err
	}
	return st.Submerge(moving), nil
}

// RetreatUnits moves units of side to destination.
func (a *Actions) RetreatUnits(ctx context.Context, st *state.State, ids []unit.ID, destination string, side unit.Side) ([]unit.ID, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("retreat destination is required")
	}
	moving := ownedBy(st, side, aliveOnly(st, st.WithDependents(ids)))
	if len(moving) == 0 {
		return nil, nil
	}
	if err := a.notify(ctx, st, display.Event{Kind: display.KindUnitsRetreated, Side: side, Units: moving, Destination: destination}); err != nil {
		return nil, err
	}
	if err := a.record(ctx, st, journal.Change{Kind: journal.KindUnitsRetreated, Side: side, Units: moving, Destination: destination}); err != nil {
		return nil, err
	}
	return st.Retreat(moving, destination), nil
}

// MarkCasualties records the units chosen to absorb group's hits against
// target. They keep fighting until a removal step takes them out.
func (a *Actions) MarkCasualties(ctx context.Context, st *state.State, target unit.Side, group state.Group, ids []unit.ID) error {
	if len(ids) > 0 {
		if err := a.notify(ctx, st, display.Event{Kind: display.KindCasualtiesSelected, Side: target, Units: ids, Cause: string(group)}); err != nil {
			return err
		}
		if err := a.record(ctx, st, journal.Change{Kind: journal.KindCasualtiesMark, Side: target, Units: ids, Cause: string(group)}); err != nil {
			return err
		}
	}
	st.MarkWaiting(target, group, ids)
	return nil
}

// RecordHits publishes a fire step's dice and stores its hits. seq is the
// roll sequence the dice were drawn with.
func (a *Actions) RecordHits(ctx context.Context, st *state.State, side unit.Side, group state.Group, rolls []int, hits []state.Hits, seq uint64) error {
	total := 0
	for _, h := range hits {
		total += h.Count
	}
	if err := a.notify(ctx, st, display.Event{Kind: display.KindDiceRolled, Side: side, Cause: string(group), Rolls: rolls, Hits: total}); err != nil {
		return err
	}
	if err := a.record(ctx, st, journal.Change{
		Kind:   journal.KindHits,
		Side:   side,
		Cause:  string(group),
		Detail: fmt.Sprintf("rolls=%v hits=%d", rolls, total),
	}); err != nil {
		return err
	}
	st.RecordSalvo(side, group, hits, seq)
	return nil
}

// Announce notifies participants without changing state.
func (a *Actions) Announce(ctx context.Context, st *state.State, evt display.Event) error {
	if err := a.notify(ctx, st, evt); err != nil {
		return err
	}
	change := journal.Change{Kind: journal.KindNotice, Side: evt.Side, Units: evt.Units, Detail: string(evt.Kind)}
	switch evt.Kind {
	case display.KindRoundSteps:
		change.Kind = journal.KindRoundStarted
		change.Detail = strings.Join(evt.Steps, ",")
	case display.KindBattleEnded:
		change.Kind = journal.KindBattleEnded
		change.Detail = evt.Outcome
	}
	return a.record(ctx, st, change)
}

// Audience lists both participants; the acting side always sees its own
// effects.
func Audience(st *state.State) []string {
	out := make([]string, 0, len(unit.Sides))
	for _, side := range unit.Sides {
		name := st.Players[side]
		if name == "" {
			name = side.String()
		}
		out = append(out, name)
	}
	return out
}

func (a *Actions) notify(ctx context.Context, st *state.State, evt display.Event) error {
	if a == nil || a.display == nil {
		return ctx.Err()
	}
	evt.BattleID = st.ID
	if evt.Round == 0 {
		evt.Round = st.Round
	}
	if err := a.display.Notify(ctx, st.ID, Audience(st), evt); err != nil {
		return fmt.Errorf("notify %s: %w", evt.Kind, err)
	}
	return nil
}

func (a *Actions) record(ctx context.Context, st *state.State, change journal.Change) error {
	if a == nil || a.log == nil {
		return ctx.Err()
	}
	change.BattleID = st.ID
	change.Round = st.Round
	if err := a.log.Record(ctx, change); err != nil {
		return fmt.Errorf("record %s: %w", change.Kind, err)
	}
	return nil
}

func aliveOnly(st *state.State, ids []unit.ID) []unit.ID {
	out := make([]unit.ID, 0, len(ids))
	for _, id := range ids {
		if st.IsAlive(id) {
			out = append(out, id)
		}
	}
	return out
}

func ownedBy(st *state.State, side unit.Side, ids []unit.ID) []unit.ID {
	out := make([]unit.ID, 0, len(ids))
	for _, id := range ids {
		if st.Units[id].Side == side {
			out = append(out, id)
		}
	}
	return out
}

// split partitions side's doomed units into those named directly and those
// pulled in as dependents.
func split(st *state.State, side unit.Side, named, doomed []unit.ID) (direct, carried []unit.ID) {
	isNamed := make(map[unit.ID]bool, len(named))
	for _, id := range named {
		isNamed[id] = true
	}
	for _, id := range doomed {
		if st.Units[id].Side != side {
			continue
		}
		if isNamed[id] {
			direct = append(direct, id)
		} else {
			carried = append(carried, id)
		}
	}
	return direct, carried
}

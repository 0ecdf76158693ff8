package actions

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

type failingLog struct{}

func (failingLog) Record(context.Context, journal.Change) error { return errors.New("disk full") }

func fixture() state.State {
	units := []unit.Unit{
		{ID: "o-bomber", Side: unit.Offense, Flags: unit.NewFlags(unit.Air, unit.SuicideOnAttack), Attack: 4},
		{ID: "o-carrier", Side: unit.Offense, Flags: unit.NewFlags(unit.Sea), Attack: 1},
		{ID: "o-plane", Side: unit.Offense, Flags: unit.NewFlags(unit.Air), Attack: 3},
		{ID: "d-sub", Side: unit.Defense, Flags: unit.NewFlags(unit.Sea, unit.CanEvade, unit.CanNotBeTargetedByAll), Defense: 1},
		{ID: "d-mine", Side: unit.Defense, Flags: unit.NewFlags(unit.SuicideOnDefense), Defense: 2},
	}
	st := state.New("b1", state.Site{Name: "Sea Zone 7", Water: true}, 10, state.Rules{}, units, nil)
	st.Players[unit.Offense] = "alice"
	st.Players[unit.Defense] = "bob"
	st.Dependents["o-carrier"] = []unit.ID{"o-plane"}
	return st
}

func TestRemoveUnitsSingleBatchAcrossSides(t *testing.T) {
	st := fixture()
	rec := display.NewRecorder()
	log := journal.NewMemory()
	a := New(rec, log)

	removed, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"o-carrier", "d-mine"}, "suicide")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if want := []unit.ID{"o-carrier", "o-plane", "d-mine"}; !reflect.DeepEqual(removed, want) {
		t.Fatalf("removed = %v, want %v", removed, want)
	}
	if len(st.Casualties) != 1 {
		t.Fatalf("batches = %d, want 1", len(st.Casualties))
	}

	notes := rec.Notifications()
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want one for the whole batch", len(notes))
	}
	if !reflect.DeepEqual(notes[0].Audience, []string{"alice", "bob"}) {
		t.Fatalf("audience = %v", notes[0].Audience)
	}
	wantLosses := []display.Loss{
		{Side: unit.Offense, Units: []unit.ID{"o-carrier"}, Dependents: []unit.ID{"o-plane"}},
		{Side: unit.Defense, Units: []unit.ID{"d-mine"}},
	}
	if !reflect.DeepEqual(notes[0].Event.Losses, wantLosses) {
		t.Fatalf("losses = %+v, want %+v", notes[0].Event.Losses, wantLosses)
	}
	changes, _ := log.ListChanges(context.Background(), "b1", 0, 0)
	if len(changes) != 1 || changes[0].Kind != journal.KindUnitsRemoved {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestRemoveUnitsAbortsBeforeCommit(t *testing.T) {
	st := fixture()
	a := New(display.NewRecorder(), failingLog{})
	if _, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"d-sub"}, "general"); err == nil {
		t.Fatal("expected error")
	}
	if !st.IsAlive("d-sub") || len(st.Casualties) != 0 {
		t.Fatal("state mutated despite failing log")
	}

	rec := display.NewRecorder()
	rec.Err = errors.New("offline")
	a = New(rec, journal.NewMemory())
	if _, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"d-sub"}, "general"); err == nil {
		t.Fatal("expected error")
	}
	if !st.IsAlive("d-sub") {
		t.Fatal("state mutated despite failing display")
	}
}

func TestRemoveUnitsAcrossSidesDeliversOneEvent(t *testing.T) {
	st := fixture()
	rec := display.NewRecorder()
	a := New(rec, failingLog{})
	if _, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"o-bomber", "d-mine"}, "general"); err == nil {
		t.Fatal("expected error")
	}
	if n := len(rec.Notifications()); n != 1 {
		t.Fatalf("notifications = %d, want the single batch event", n)
	}

	rec = display.NewRecorder()
	a = New(rec, journal.NewMemory())
	if _, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"o-bomber", "d-mine"}, "general"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := len(rec.Notifications()); n != 1 {
		t.Fatalf("notifications on retry = %d, want 1", n)
	}
}

func TestRemoveSuicidesUsesSuicideEvent(t *testing.T) {
	st := fixture()
	rec := display.NewRecorder()
	log := journal.NewMemory()
	a := New(rec, log)
	if _, err := a.RemoveSuicides(context.Background(), &st, []unit.ID{"o-bomber"}); err != nil {
		t.Fatalf("remove suicides: %v", err)
	}
	if kinds := rec.Kinds(); len(kinds) != 1 || kinds[0] != display.KindSuicide {
		t.Fatalf("kinds = %v", kinds)
	}
	changes, _ := log.ListChanges(context.Background(), "b1", 0, 0)
	if len(changes) != 1 || changes[0].Cause != CauseSuicide {
		t.Fatalf("changes = %+v", changes)
	}
	if st.Casualties[0].Cause != CauseSuicide {
		t.Fatalf("cause = %q", st.Casualties[0].Cause)
	}
}

func TestRemoveUnitsIgnoresDead(t *testing.T) {
	st := fixture()
	a := New(display.NewRecorder(), journal.NewMemory())
	if _, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"d-sub"}, "general"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	removed, err := a.RemoveUnits(context.Background(), &st, []unit.ID{"d-sub"}, "general")
	if err != nil || removed != nil {
		t.Fatalf("second removal = %v, %v", removed, err)
	}
	if len(st.Casualties) != 1 {
		t.Fatalf("batches = %d, want 1", len(st.Casualties))
	}
}

func TestSubmergeUnitsOnlyMovesOwnSide(t *testing.T) {
	st := fixture()
	a := New(display.NewRecorder(), journal.NewMemory())
	moved, err := a.SubmergeUnits(context.Background(), &st, []unit.ID{"d-sub", "o-plane"}, unit.Defense)
	if err != nil {
		t.Fatalf("submerge: %v", err)
	}
	if !reflect.DeepEqual(moved, []unit.ID{"d-sub"}) {
		t.Fatalf("moved = %v", moved)
	}
	if !reflect.DeepEqual(st.Submerged, []unit.ID{"d-sub"}) || len(st.Casualties) != 0 {
		t.Fatalf("submerged = %v casualties = %v", st.Submerged, st.Casualties)
	}
}

func TestRetreatUnitsRequiresDestination(t *testing.T) {
	st := fixture()
	a := New(nil, nil)
	if _, err := a.RetreatUnits(context.Background(), &st, st.Alive[unit.Offense], "", unit.Offense); err == nil {
		t.Fatal("expected error")
	}
	moved, err := a.RetreatUnits(context.Background(), &st, st.Alive[unit.Offense], "Sea Zone 8", unit.Offense)
	if err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if len(moved) != 3 || st.Count(unit.Offense) != 0 || st.RetreatedTo != "Sea Zone 8" {
		t.Fatalf("moved = %v alive = %d to = %q", moved, st.Count(unit.Offense), st.RetreatedTo)
	}
}

func TestMarkCasualtiesAndRecordHits(t *testing.T) {
	st := fixture()
	log := journal.NewMemory()
	a := New(display.NewRecorder(), log)
	ctx := context.Background()

	hits := []state.Hits{{Target: unit.Defense, Group: state.GroupGeneral, Count: 1, Eligible: []unit.ID{"d-mine"}}}
	if err := a.RecordHits(ctx, &st, unit.Offense, state.GroupGeneral, []int{2, 6}, hits, 1); err != nil {
		t.Fatalf("record hits: %v", err)
	}
	if len(st.PendingHits(unit.Defense, state.GroupGeneral)) != 1 || st.RollSeq != 1 {
		t.Fatalf("pending = %v seq = %d", st.Pending, st.RollSeq)
	}
	if err := a.MarkCasualties(ctx, &st, unit.Defense, state.GroupGeneral, []unit.ID{"d-mine"}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !st.IsWaiting("d-mine") || len(st.Pending) != 0 {
		t.Fatalf("waiting = %v pending = %v", st.WaitingToDie, st.Pending)
	}
	changes, _ := log.ListChanges(ctx, "b1", 0, 0)
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
}

func TestAnnounceRoundSteps(t *testing.T) {
	st := fixture()
	log := journal.NewMemory()
	a := New(display.NewRecorder(), log)
	if err := a.Announce(context.Background(), &st, display.Event{Kind: display.KindRoundSteps, Steps: []string{"a", "b"}}); err != nil {
		t.Fatalf("announce: %v", err)
	}
	changes, _ := log.ListChanges(context.Background(), "b1", 0, 0)
	if changes[0].Kind != journal.KindRoundStarted || changes[0].Detail != "a,b" {
		t.Fatalf("change = %+v", changes[0])
	}
}

func TestAudienceFallsBackToSideNames(t *testing.T) {
	st := state.New("b", state.Site{}, 1, state.Rules{}, nil, nil)
	if got := Audience(&st); !reflect.DeepEqual(got, []string{"offense", "defense"}) {
		t.Fatalf("audience = %v", got)
	}
}

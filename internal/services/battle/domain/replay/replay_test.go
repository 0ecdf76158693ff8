package replay

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

type fakeStore struct {
	changes []journal.Change
	calls   int
}

func (f *fakeStore) ListChanges(_ context.Context, _ string, afterSeq uint64, limit int) ([]journal.Change, error) {
	f.calls++
	var out []journal.Change
	for _, c := range f.changes {
		if c.Seq > afterSeq {
			out = append(out, c)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func recordBattle(t *testing.T) *journal.Memory {
	t.Helper()
	log := journal.NewMemory()
	changes := []journal.Change{
		{Round: 1, Kind: journal.KindRoundStarted, Detail: "offense.general.fire,end_round"},
		{Round: 1, Kind: journal.KindHits, Side: unit.Offense, Detail: "rolls=[1] hits=1"},
		{Round: 1, Kind: journal.KindUnitsRemoved, Units: []unit.ID{"d-inf"}, Cause: "combat"},
		{Round: 2, Kind: journal.KindRoundStarted, Detail: "offense.retreat,end_round"},
		{Round: 2, Kind: journal.KindUnitsRetreated, Side: unit.Offense, Units: []unit.ID{"o-inf"}, Destination: "Archangel"},
		{Round: 2, Kind: journal.KindBattleEnded, Detail: "retreated"},
	}
	for _, c := range changes {
		c.BattleID = "b1"
		if err := log.Record(context.Background(), c); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	return log
}

func TestReplaySummarizesHistory(t *testing.T) {
	result, err := Replay(context.Background(), recordBattle(t), "b1", Options{PageSize: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 6 || result.LastSeq != 6 {
		t.Fatalf("applied = %d last = %d", result.Applied, result.LastSeq)
	}
	s := result.Summary
	if s.Rounds != 2 || s.Outcome != "retreated" || s.Destination != "Archangel" {
		t.Fatalf("summary = %+v", s)
	}
	if !reflect.DeepEqual(s.Removed, []unit.ID{"d-inf"}) || !reflect.DeepEqual(s.Retreated, []unit.ID{"o-inf"}) {
		t.Fatalf("removed = %v retreated = %v", s.Removed, s.Retreated)
	}
	if want := []string{"offense.retreat", "end_round"}; !reflect.DeepEqual(s.Steps[2], want) {
		t.Fatalf("round 2 steps = %v, want %v", s.Steps[2], want)
	}
}

func TestReplayWindow(t *testing.T) {
	result, err := Replay(context.Background(), recordBattle(t), "b1", Options{AfterSeq: 3, UntilSeq: 5})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 2 || result.LastSeq != 5 {
		t.Fatalf("applied = %d last = %d, want 2 and 5", result.Applied, result.LastSeq)
	}
	if result.Summary.Outcome != "" {
		t.Fatalf("outcome = %q, want none before seq 6", result.Summary.Outcome)
	}
}

func TestReplayDetectsGap(t *testing.T) {
	store := &fakeStore{changes: []journal.Change{
		{BattleID: "b1", Seq: 1, Kind: journal.KindRoundStarted},
		{BattleID: "b1", Seq: 3, Kind: journal.KindNotice},
	}}
	result, err := Replay(context.Background(), store, "b1", Options{})
	if !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("err = %v, want ErrSequenceGap", err)
	}
	if result.LastSeq != 1 {
		t.Fatalf("last seq = %d, want 1", result.LastSeq)
	}
}

func TestReplayRequiresInputs(t *testing.T) {
	if _, err := Replay(context.Background(), nil, "b1", Options{}); !errors.Is(err, ErrChangeStoreRequired) {
		t.Fatalf("err = %v, want ErrChangeStoreRequired", err)
	}
	if _, err := Replay(context.Background(), &fakeStore{}, " ", Options{}); !errors.Is(err, ErrBattleIDRequired) {
		t.Fatalf("err = %v, want ErrBattleIDRequired", err)
	}
}

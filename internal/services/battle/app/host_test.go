package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/dice"
	"github.com/louisbranch/warfront/internal/services/battle/domain/checkpoint"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/step"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
	"github.com/louisbranch/warfront/internal/services/battle/gateway"
)

func lineBattle(id string, offense, defense int, seed int64) state.State {
	var units []unit.Unit
	for i := range offense {
		units = append(units, unit.Unit{ID: unit.ID(fmt.Sprintf("%s-o%d", id, i)), Type: "infantry", Side: unit.Offense, Attack: 1, Defense: 2, Cost: 3})
	}
	for i := range defense {
		units = append(units, unit.Unit{ID: unit.ID(fmt.Sprintf("%s-d%d", id, i)), Type: "infantry", Side: unit.Defense, Attack: 1, Defense: 2, Cost: 3})
	}
	st := state.New(id, state.Site{Name: "Karelia"}, 5, state.Rules{}, units, nil)
	st.Seed = seed
	st.Players[unit.Offense] = "alice"
	st.Players[unit.Defense] = "bob"
	return st
}

// answer picks the first assignable casualties and declines everything else.
func answer(_ context.Context, req decision.Request) (decision.Response, error) {
	resp := decision.Response{Kind: req.Kind}
	if req.Kind != decision.KindSelectCasualties {
		return resp, nil
	}
	for _, id := range req.Eligible() {
		if len(resp.Casualties) == req.Required {
			break
		}
		next := append(slices.Clone(resp.Casualties), id)
		if decision.Assignable(req.Buckets, next) == len(next) {
			resp.Casualties = next
		}
	}
	return resp, nil
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected missing store error")
	}
}

func TestStartSuspendsAndRespondFinishes(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemory()
	// Only the first run hits; every restore gets fresh misses.
	runs := 0
	host, err := New(Config{
		Store: store,
		Dice: func(state.State) step.Roller {
			runs++
			if runs == 1 {
				return dice.NewScript([]int{1}, []int{6, 6}, []int{6, 6}, []int{6, 6})
			}
			return dice.NewScript([]int{6, 6}, []int{6, 6}, []int{6, 6}, []int{6, 6}, []int{6, 6})
		},
	})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	st := state.New("duel", state.Site{Name: "Karelia"}, 2, state.Rules{}, []unit.Unit{
		{ID: "o-inf", Side: unit.Offense, Attack: 1, Defense: 2},
		{ID: "d-inf-1", Side: unit.Defense, Attack: 1, Defense: 2},
		{ID: "d-inf-2", Side: unit.Defense, Attack: 1, Defense: 2},
	}, nil)

	result, err := host.Start(ctx, st)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Status != engine.StatusSuspended || result.Pending == nil {
		t.Fatalf("result = %+v, want suspended with a pending decision", result)
	}
	if result.Pending.Kind != decision.KindSelectCasualties || result.Pending.Side != unit.Defense {
		t.Fatalf("pending = %+v", result.Pending)
	}

	status, err := host.Status(ctx, "duel")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Status != engine.StatusSuspended || status.Pending == nil {
		t.Fatalf("status = %+v", status)
	}

	_, err = host.Respond(ctx, "duel", decision.Response{Kind: decision.KindSelectCasualties, Casualties: []unit.ID{"o-inf"}})
	if !platformerrors.IsCode(err, platformerrors.CodeDecisionMalformed) {
		t.Fatalf("err = %v, want %s", err, platformerrors.CodeDecisionMalformed)
	}

	resp, _ := answer(ctx, *result.Pending)
	result, err = host.Respond(ctx, "duel", resp)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if result.Status != engine.StatusFinished || result.Outcome != state.Stalemate || result.Pending != nil {
		t.Fatalf("result = %+v, want finished stalemate", result)
	}

	again, err := host.Advance(ctx, "duel")
	if err != nil {
		t.Fatalf("advance finished battle: %v", err)
	}
	if again.Status != engine.StatusFinished {
		t.Fatalf("status = %s, want %s", again.Status, engine.StatusFinished)
	}
}

func TestStartRejectsDuplicateBattle(t *testing.T) {
	ctx := context.Background()
	host, err := New(Config{Store: checkpoint.NewMemory()})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	st := lineBattle("twice", 1, 1, 3)
	if _, err := host.Start(ctx, st); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := host.Start(ctx, st); err == nil {
		t.Fatal("expected duplicate start to fail")
	}
	if _, err := host.Start(ctx, state.State{}); !errors.Is(err, checkpoint.ErrBattleIDRequired) {
		t.Fatalf("err = %v, want %v", err, checkpoint.ErrBattleIDRequired)
	}
}

func TestAdvanceUnknownBattle(t *testing.T) {
	host, err := New(Config{Store: checkpoint.NewMemory()})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	if _, err := host.Advance(context.Background(), "ghost"); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, checkpoint.ErrNotFound)
	}
}

func TestRunAllAdvancesBattlesConcurrently(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemory()
	history := journal.NewMemory()

	deferred, err := New(Config{Store: store, Log: history})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	var ids []string
	for i := range 6 {
		id := fmt.Sprintf("battle-%d", i)
		ids = append(ids, id)
		if _, err := deferred.Start(ctx, lineBattle(id, 3, 3, int64(i+1))); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	automatic, err := New(Config{Store: store, Log: history, Gateway: gateway.Func(answer), Parallelism: 3})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	results, err := automatic.RunAll(ctx, ids)
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if len(results) != len(ids) {
		t.Fatalf("results = %d, want %d", len(results), len(ids))
	}
	for i, result := range results {
		if result.BattleID != ids[i] {
			t.Fatalf("results[%d] = %s, want %s", i, result.BattleID, ids[i])
		}
		if result.Status != engine.StatusFinished || result.Outcome == state.Undecided {
			t.Fatalf("battle %s = %+v, want finished", result.BattleID, result)
		}
		changes, err := history.ListChanges(ctx, result.BattleID, 0, 0)
		if err != nil {
			t.Fatalf("list changes: %v", err)
		}
		if len(changes) == 0 || changes[len(changes)-1].Kind != journal.KindBattleEnded {
			t.Fatalf("battle %s history does not end with %s", result.BattleID, journal.KindBattleEnded)
		}
	}
}

func TestRunAllReportsFailuresWithoutStoppingOthers(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemory()
	host, err := New(Config{Store: store, Gateway: gateway.Func(answer)})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	if _, err := host.Start(ctx, lineBattle("real", 2, 2, 9)); err != nil {
		t.Fatalf("start: %v", err)
	}
	results, err := host.RunAll(ctx, []string{"ghost", "real"})
	if !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, checkpoint.ErrNotFound)
	}
	if results[0].BattleID != "ghost" || results[0].Status != "" {
		t.Fatalf("ghost result = %+v", results[0])
	}
	if results[1].Status != engine.StatusFinished {
		t.Fatalf("real result = %+v, want finished", results[1])
	}
}

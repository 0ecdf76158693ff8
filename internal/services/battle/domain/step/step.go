// Package step is the rule catalog: every step a battle round can contain,
// the fixed priority table that orders them, and the sequencer that plans a
// round from battle state.
//
// Steps are values, not objects with identity. The driver looks a step up by
// tag each time it needs one, so a saved stack only has to store tags.
package step

import (
	"context"

	"github.com/louisbranch/warfront/internal/services/battle/dice"
	"github.com/louisbranch/warfront/internal/services/battle/domain/actions"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
)

// Tag names a catalog entry. Tags are persisted; renaming one breaks every
// saved battle that references it.
type Tag string

// Roller is the random source fire steps draw dice from.
type Roller interface {
	Roll(ctx context.Context, req dice.RollRequest) ([]int, error)
}

// Env carries the collaborators a step effect may use.
type Env struct {
	Dice    Roller
	Actions *actions.Actions
}

// Step is one catalog entry.
//
// Valid is evaluated when the round is planned and again right before the
// step runs. Prepare returns the decision the step needs, or nil when it can
// run without one. Apply performs the effect; resp is nil when Prepare asked
// for nothing. Apply must route every state change through Battle Actions.
type Step struct {
	Tag     Tag
	Order   int
	Valid   func(st *state.State) bool
	Prepare func(st *state.State) *decision.Request
	Apply   func(ctx context.Context, env Env, st *state.State, resp *decision.Response) error
}

// NeedsDecision reports whether the step may suspend the battle.
func (s Step) NeedsDecision() bool {
	return s.Prepare != nil
}

func (s Step) prepare(st *state.State) *decision.Request {
	if s.Prepare == nil {
		return nil
	}
	return s.Prepare(st)
}

// Request returns the decision the step needs in st, filled with the
// battle coordinates, or nil.
func (s Step) Request(st *state.State) *decision.Request {
	req := s.prepare(st)
	if req == nil {
		return nil
	}
	req.BattleID = st.ID
	req.Step = string(s.Tag)
	req.Round = st.Round
	if req.Player == "" {
		req.Player = st.Players[req.Side]
	}
	return req
}

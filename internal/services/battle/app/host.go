// Package app hosts many battles over one save store. Each battle is
// advanced by at most one caller at a time; different battles proceed in
// parallel.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/warfront/internal/services/battle/domain/actions"
	"github.com/louisbranch/warfront/internal/services/battle/domain/checkpoint"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/step"
	"github.com/louisbranch/warfront/internal/services/battle/gateway"
)

const defaultParallelism = 4

// Config wires a Host.
type Config struct {
	Store   checkpoint.Store
	Gateway gateway.Gateway
	Display actions.Broadcaster
	Log     actions.Log
	// Dice builds the random source of a battle. Nil uses the seeded source
	// of the battle state.
	Dice             func(st state.State) step.Roller
	DecisionAttempts int
	// Parallelism bounds RunAll.
	Parallelism int
}

// Result is where a battle stands after a host call.
type Result struct {
	BattleID string
	Status   engine.Status
	Round    int
	Outcome  state.Outcome
	Pending  *decision.Request
}

// Host advances saved battles.
type Host struct {
	cfg   Config
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a host.
func New(cfg Config) (*Host, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	return &Host{cfg: cfg, locks: make(map[string]*sync.Mutex)}, nil
}

func (h *Host) lock(battleID string) func() {
	h.mu.Lock()
	l, ok := h.locks[battleID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[battleID] = l
	}
	h.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (h *Host) engineConfig(st state.State) engine.Config {
	cfg := engine.Config{
		Gateway:          h.cfg.Gateway,
		Display:          h.cfg.Display,
		Log:              h.cfg.Log,
		Checkpoints:      h.cfg.Store,
		DecisionAttempts: h.cfg.DecisionAttempts,
	}
	if h.cfg.Dice != nil {
		cfg.Dice = h.cfg.Dice(st)
	}
	return cfg
}

// Start saves a new battle and runs it until it finishes or suspends.
func (h *Host) Start(ctx context.Context, st state.State) (Result, error) {
	if strings.TrimSpace(st.ID) == "" {
		return Result{}, checkpoint.ErrBattleIDRequired
	}
	unlock := h.lock(st.ID)
	defer unlock()

	if _, err := h.cfg.Store.LoadSnapshot(ctx, st.ID); err == nil {
		return Result{}, fmt.Errorf("battle %s already exists", st.ID)
	} else if !errors.Is(err, checkpoint.ErrNotFound) {
		return Result{}, err
	}
	b, err := engine.New(ctx, h.engineConfig(st), st)
	if err != nil {
		return Result{}, fmt.Errorf("start battle %s: %w", st.ID, err)
	}
	status, err := b.Run(ctx)
	return resultOf(b, status), err
}

// Advance restores a battle and runs it. A finished battle reports
// StatusFinished without error.
func (h *Host) Advance(ctx context.Context, battleID string) (Result, error) {
	unlock := h.lock(battleID)
	defer unlock()

	b, err := h.restore(ctx, battleID)
	if err != nil {
		return Result{}, err
	}
	if st := b.State(); st.Terminal() {
		return resultOf(b, engine.StatusFinished), nil
	}
	status, err := b.Run(ctx)
	return resultOf(b, status), err
}

// Respond answers the pending decision of a battle and runs it on.
func (h *Host) Respond(ctx context.Context, battleID string, resp decision.Response) (Result, error) {
	unlock := h.lock(battleID)
	defer unlock()

	b, err := h.restore(ctx, battleID)
	if err != nil {
		return Result{}, err
	}
	status, err := b.Resume(ctx, resp)
	return resultOf(b, status), err
}

// Status reports a saved battle without running it.
func (h *Host) Status(ctx context.Context, battleID string) (Result, error) {
	unlock := h.lock(battleID)
	defer unlock()

	b, err := h.restore(ctx, battleID)
	if err != nil {
		return Result{}, err
	}
	status := engine.StatusSuspended
	if st := b.State(); st.Terminal() {
		status = engine.StatusFinished
	}
	return resultOf(b, status), nil
}

// RunAll advances every listed battle concurrently. It returns the results
// in input order and the first error, if any; one failing battle does not
// stop the others.
func (h *Host) RunAll(ctx context.Context, battleIDs []string) ([]Result, error) {
	results := make([]Result, len(battleIDs))
	var g errgroup.Group
	g.SetLimit(h.cfg.Parallelism)
	for i, battleID := range battleIDs {
		g.Go(func() error {
			result, err := h.Advance(ctx, battleID)
			if err != nil {
				log.Printf("advance battle %s: %v", battleID, err)
				results[i] = Result{BattleID: battleID}
				return fmt.Errorf("advance battle %s: %w", battleID, err)
			}
			results[i] = result
			return nil
		})
	}
	return results, g.Wait()
}

func (h *Host) restore(ctx context.Context, battleID string) (*engine.Battle, error) {
	snap, err := h.cfg.Store.LoadSnapshot(ctx, battleID)
	if err != nil {
		return nil, err
	}
	b, err := engine.Restore(h.engineConfig(snap.State), snap)
	if err != nil {
		return nil, fmt.Errorf("restore battle %s: %w", battleID, err)
	}
	return b, nil
}

func resultOf(b *engine.Battle, status engine.Status) Result {
	st := b.State()
	result := Result{
		BattleID: b.ID(),
		Status:   status,
		Round:    st.Round,
		Outcome:  st.Outcome,
	}
	if req, ok := b.Pending(); ok {
		result.Pending = &req
	}
	return result
}

package checkpoint

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/stack"
)

// Memory stores snapshots in memory.
type Memory struct {
	mu        sync.Mutex
	snapshots map[string]engine.Snapshot
}

// NewMemory creates a new in-memory snapshot store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]engine.Snapshot)}
}

// SaveSnapshot replaces the stored snapshot of the battle.
func (m *Memory) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return errors.New("checkpoint store is required")
	}
	battleID := strings.TrimSpace(snap.BattleID())
	if battleID == "" {
		return ErrBattleIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[battleID] = cloneSnapshot(snap)
	return nil
}

// LoadSnapshot returns the latest snapshot of a battle.
func (m *Memory) LoadSnapshot(ctx context.Context, battleID string) (engine.Snapshot, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return engine.Snapshot{}, err
		}
	}
	if m == nil {
		return engine.Snapshot{}, errors.New("checkpoint store is required")
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return engine.Snapshot{}, ErrBattleIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[battleID]
	if !ok {
		return engine.Snapshot{}, NotFound(battleID)
	}
	return cloneSnapshot(snap), nil
}

// BattleIDs lists stored battles in order.
func (m *Memory) BattleIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneSnapshot(snap engine.Snapshot) engine.Snapshot {
	cloned := snap
	cloned.State = snap.State.Clone()
	if snap.Stack != nil {
		cloned.Stack = stack.New(snap.Stack...).Entries()
	}
	return cloned
}

// Package journal is the append-only battle change log.
package journal

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Kind names a recorded change.
type Kind string

const (
	KindRoundStarted   Kind = "round.started"
	KindHits           Kind = "hits.recorded"
	KindCasualtiesMark Kind = "casualties.selected"
	KindUnitsRemoved   Kind = "units.removed"
	KindUnitsSubmerged Kind = "units.submerged"
	KindUnitsRetreated Kind = "units.retreated"
	KindNotice         Kind = "notice"
	KindBattleEnded    Kind = "battle.ended"
)

var (
	// ErrBattleIDRequired indicates a change without a battle id.
	ErrBattleIDRequired = errors.New("battle id is required")
)

// Change is one history entry. Seq is assigned by the log on Record.
type Change struct {
	BattleID    string    `json:"battle_id"`
	Seq         uint64    `json:"seq"`
	Round       int       `json:"round"`
	Kind        Kind      `json:"kind"`
	Side        unit.Side `json:"side"`
	Units       []unit.ID `json:"units,omitempty"`
	Cause       string    `json:"cause,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Memory keeps history in memory.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	changes map[string][]Change
}

// NewMemory creates an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{
		now:     func() time.Time { return time.Now().UTC() },
		changes: make(map[string][]Change),
	}
}

// Record appends a change and assigns its sequence number.
func (m *Memory) Record(ctx context.Context, change Change) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return errors.New("change log is required")
	}
	battleID := strings.TrimSpace(change.BattleID)
	if battleID == "" {
		return ErrBattleIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	change.BattleID = battleID
	change.Seq = uint64(len(m.changes[battleID])) + 1
	change.Units = slices.Clone(change.Units)
	if change.RecordedAt.IsZero() {
		change.RecordedAt = m.now()
	}
	m.changes[battleID] = append(m.changes[battleID], change)
	return nil
}

// ListChanges returns up to limit changes after afterSeq.
func (m *Memory) ListChanges(ctx context.Context, battleID string, afterSeq uint64, limit int) ([]Change, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if m == nil {
		return nil, errors.New("change log is required")
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return nil, ErrBattleIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.changes[battleID]
	if afterSeq >= uint64(len(all)) {
		return nil, nil
	}
	page := all[afterSeq:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	out := make([]Change, len(page))
	for i, c := range page {
		c.Units = slices.Clone(c.Units)
		out[i] = c
	}
	return out, nil
}

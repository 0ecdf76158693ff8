package checkpoint

import (
	"context"

	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
)

// Noop discards snapshots. Battles driven with it cannot be resumed after
// the process exits.
type Noop struct{}

// NewNoop creates a store that keeps nothing.
func NewNoop() *Noop {
	return &Noop{}
}

// SaveSnapshot is a no-op.
func (n *Noop) SaveSnapshot(ctx context.Context, _ engine.Snapshot) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot always reports that no snapshot exists.
func (n *Noop) LoadSnapshot(ctx context.Context, battleID string) (engine.Snapshot, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return engine.Snapshot{}, err
		}
	}
	return engine.Snapshot{}, NotFound(battleID)
}

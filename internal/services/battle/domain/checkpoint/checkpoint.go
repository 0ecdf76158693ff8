// Package checkpoint keeps the latest snapshot of each battle.
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
)

var (
	// ErrBattleIDRequired indicates a missing battle id.
	ErrBattleIDRequired = errors.New("battle id is required")
	// ErrNotFound indicates no snapshot exists for a battle.
	ErrNotFound = errors.New("battle snapshot not found")
)

// Store saves and loads battle snapshots.
type Store interface {
	engine.Checkpointer
	LoadSnapshot(ctx context.Context, battleID string) (engine.Snapshot, error)
}

// NotFound returns ErrNotFound coded for hosts.
func NotFound(battleID string) error {
	return platformerrors.WrapWithMetadata(
		platformerrors.CodeNotFound,
		fmt.Sprintf("battle %s not found", battleID),
		map[string]string{"BattleID": battleID},
		ErrNotFound,
	)
}

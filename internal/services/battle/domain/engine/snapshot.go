package engine

import (
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/domain/stack"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
)

// SnapshotVersion is the layout written by this build.
const SnapshotVersion = 1

// Phase is where the round state machine stands.
type Phase string

const (
	PhaseSequencing    Phase = "sequencing"
	PhaseExecuting     Phase = "executing"
	PhaseSuspended     Phase = "suspended"
	PhaseRoundComplete Phase = "round_complete"
	PhaseTerminal      Phase = "terminal"
)

// Snapshot is everything needed to continue a battle: its state and the
// remaining stack, listed bottom to top.
type Snapshot struct {
	Version int           `json:"version"`
	State   state.State   `json:"state"`
	Stack   []stack.Entry `json:"stack"`
	Phase   Phase         `json:"phase"`
}

// BattleID returns the id of the snapshotted battle.
func (s Snapshot) BattleID() string {
	return s.State.ID
}

var snapshotEncoding = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot encoding: %v", err))
	}
	return mode
}()

// EncodeSnapshot serializes a snapshot as deterministic CBOR.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := snapshotEncoding.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.BattleID(), err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot and rejects
// layouts this build cannot read.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := checkVersion(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func checkVersion(snap Snapshot) error {
	if snap.Version == SnapshotVersion {
		return nil
	}
	return wrapFatal(platformerrors.WithMetadata(
		platformerrors.CodeSnapshotUnsupportedVersion,
		fmt.Sprintf("snapshot version %d is not supported", snap.Version),
		map[string]string{"Version": strconv.Itoa(snap.Version)},
	))
}

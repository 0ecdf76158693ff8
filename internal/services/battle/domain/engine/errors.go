package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
)

var (
	// ErrUnknownStep indicates a saved stack names a step this build does
	// not know.
	ErrUnknownStep = errors.New("unknown battle step")
	// ErrBattleOver indicates an operation on a finished battle.
	ErrBattleOver = errors.New("battle is over")
	// ErrNotSuspended indicates a response for a battle that is not waiting
	// on one.
	ErrNotSuspended = errors.New("battle is not awaiting a decision")
)

// fatalError marks an error after which the battle must not continue.
// Guessing a repair would desynchronize participants.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal returns true from IsFatal checks.
func (e *fatalError) Fatal() bool { return true }

func wrapFatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err (or any error in its chain) ends the battle.
// Hosts should report the battle as unrecoverable instead of retrying.
func IsFatal(err error) bool {
	var target interface{ Fatal() bool }
	if errors.As(err, &target) {
		return target.Fatal()
	}
	return platformerrors.CodeOf(err).Fatal()
}

func invariantViolation(st *state.State, tag string, cause error) error {
	dump, err := json.Marshal(st)
	if err != nil {
		dump = []byte(fmt.Sprintf("%q", err.Error()))
	}
	return wrapFatal(platformerrors.WrapWithMetadata(
		platformerrors.CodeBattleInvariant,
		fmt.Sprintf("battle %s: %v", st.ID, cause),
		map[string]string{"BattleID": st.ID, "Step": tag, "State": string(dump)},
		cause,
	))
}

func unknownStep(battleID, tag string) error {
	return wrapFatal(platformerrors.WrapWithMetadata(
		platformerrors.CodeBattleUnknownStep,
		fmt.Sprintf("battle %s references step %q", battleID, tag),
		map[string]string{"BattleID": battleID, "Tag": tag},
		ErrUnknownStep,
	))
}

func battleOver(st *state.State) error {
	return platformerrors.WrapWithMetadata(
		platformerrors.CodeBattleOver,
		fmt.Sprintf("battle %s ended: %s", st.ID, st.Outcome),
		map[string]string{"BattleID": st.ID, "Outcome": string(st.Outcome)},
		ErrBattleOver,
	)
}

func notSuspended(battleID string) error {
	return platformerrors.WrapWithMetadata(
		platformerrors.CodeBattleNotPending,
		fmt.Sprintf("battle %s is not awaiting a decision", battleID),
		map[string]string{"BattleID": battleID},
		ErrNotSuspended,
	)
}

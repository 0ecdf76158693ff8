// Package replay reads a battle's change history back in order and folds it
// into an audit summary.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

const defaultPageSize = 200

var (
	// ErrChangeStoreRequired indicates a missing change store.
	ErrChangeStoreRequired = errors.New("change store is required")
	// ErrBattleIDRequired indicates a missing battle id.
	ErrBattleIDRequired = errors.New("battle id is required")
	// ErrSequenceGap indicates the history skips or repeats a change.
	ErrSequenceGap = errors.New("change sequence gap")
)

// ChangeStore lists recorded changes.
type ChangeStore interface {
	ListChanges(ctx context.Context, battleID string, afterSeq uint64, limit int) ([]journal.Change, error)
}

// Options configures a read.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Summary is what the history says happened.
type Summary struct {
	BattleID    string
	Rounds      int
	Steps       map[int][]string
	Removed     []unit.ID
	Submerged   []unit.ID
	Retreated   []unit.ID
	Destination string
	Outcome     string
}

// Result captures a read.
type Result struct {
	Summary Summary
	Changes []journal.Change
	LastSeq uint64
	Applied int
}

// Replay pages through the history of battleID in sequence order.
func Replay(ctx context.Context, store ChangeStore, battleID string, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrChangeStoreRequired
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return Result{}, ErrBattleIDRequired
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{
		Summary: Summary{BattleID: battleID, Steps: map[int][]string{}},
		LastSeq: options.AfterSeq,
	}
	for {
		changes, err := store.ListChanges(ctx, battleID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(changes) == 0 {
			return result, nil
		}
		for _, change := range changes {
			if options.UntilSeq > 0 && change.Seq > options.UntilSeq {
				return result, nil
			}
			expected := result.LastSeq + 1
			if change.Seq != expected {
				return result, fmt.Errorf("%w: expected %d got %d", ErrSequenceGap, expected, change.Seq)
			}
			result.Summary.apply(change)
			result.Changes = append(result.Changes, change)
			result.LastSeq = change.Seq
			result.Applied++
		}
	}
}

func (s *Summary) apply(change journal.Change) {
	if change.Round > s.Rounds {
		s.Rounds = change.Round
	}
	switch change.Kind {
	case journal.KindRoundStarted:
		if change.Detail != "" {
			s.Steps[change.Round] = strings.Split(change.Detail, ",")
		}
	case journal.KindUnitsRemoved:
		s.Removed = append(s.Removed, change.Units...)
	case journal.KindUnitsSubmerged:
		s.Submerged = append(s.Submerged, change.Units...)
	case journal.KindUnitsRetreated:
		s.Retreated = append(s.Retreated, change.Units...)
		s.Destination = change.Destination
	case journal.KindBattleEnded:
		s.Outcome = change.Detail
	}
}

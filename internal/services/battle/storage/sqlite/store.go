// Package sqlite provides a SQLite-backed battle save store: the latest
// snapshot of every battle plus its append-only change history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	sqlitemigrate "github.com/louisbranch/warfront/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/warfront/internal/services/battle/domain/checkpoint"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/journal"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
	"github.com/louisbranch/warfront/internal/services/battle/storage/sqlite/migrations"
)

// ErrSequenceConflict indicates two writers raced for the same history seq.
var ErrSequenceConflict = errors.New("change sequence conflict")

// Store persists battles in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// BattleRecord summarizes a saved battle.
type BattleRecord struct {
	BattleID  string
	Phase     engine.Phase
	Round     int
	Outcome   state.Outcome
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite battle store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot of a battle.
func (s *Store) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	battleID := strings.TrimSpace(snap.BattleID())
	if battleID == "" {
		return checkpoint.ErrBattleIDRequired
	}
	payload, err := engine.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	now := toMillis(s.now())
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO battle_snapshots (
		   battle_id,
		   version,
		   phase,
		   round,
		   outcome,
		   snapshot,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(battle_id) DO UPDATE SET
		   version = excluded.version,
		   phase = excluded.phase,
		   round = excluded.round,
		   outcome = excluded.outcome,
		   snapshot = excluded.snapshot,
		   updated_at = excluded.updated_at`,
		battleID,
		snap.Version,
		string(snap.Phase),
		snap.State.Round,
		string(snap.State.Outcome),
		payload,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", battleID, err)
	}
	return nil
}

// LoadSnapshot returns the latest snapshot of a battle.
func (s *Store) LoadSnapshot(ctx context.Context, battleID string) (engine.Snapshot, error) {
	if err := s.ready(ctx); err != nil {
		return engine.Snapshot{}, err
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return engine.Snapshot{}, checkpoint.ErrBattleIDRequired
	}
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT snapshot FROM battle_snapshots WHERE battle_id = ?`,
		battleID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, checkpoint.NotFound(battleID)
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load snapshot %s: %w", battleID, err)
	}
	snap, err := engine.DecodeSnapshot(payload)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", battleID, err)
	}
	return snap, nil
}

// SeatHuman records that the decisions of side in battleID are answered by
// hand. The first seat recorded for a battle is kept.
func (s *Store) SeatHuman(ctx context.Context, battleID string, side unit.Side) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return checkpoint.ErrBattleIDRequired
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO battle_seats (battle_id, human_side, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(battle_id) DO NOTHING`,
		battleID,
		side.String(),
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("seat human %s: %w", battleID, err)
	}
	return nil
}

// HumanSide returns the side of battleID answered by hand. ok is false when
// the autopilot plays both sides.
func (s *Store) HumanSide(ctx context.Context, battleID string) (side unit.Side, ok bool, err error) {
	if err := s.ready(ctx); err != nil {
		return 0, false, err
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return 0, false, checkpoint.ErrBattleIDRequired
	}
	var value string
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT human_side FROM battle_seats WHERE battle_id = ?`,
		battleID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load seat %s: %w", battleID, err)
	}
	side, err = unit.ParseSide(value)
	if err != nil {
		return 0, false, fmt.Errorf("load seat %s: %w", battleID, err)
	}
	return side, true, nil
}

// ListBattles returns saved battles, most recently updated first.
func (s *Store) ListBattles(ctx context.Context, limit int) ([]BattleRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT battle_id, phase, round, outcome, created_at, updated_at
		 FROM battle_snapshots
		 ORDER BY updated_at DESC, battle_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list battles: %w", err)
	}
	defer rows.Close()

	var out []BattleRecord
	for rows.Next() {
		var (
			record    BattleRecord
			phase     string
			outcome   string
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&record.BattleID, &phase, &record.Round, &outcome, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		record.Phase = engine.Phase(phase)
		record.Outcome = state.Outcome(outcome)
		record.CreatedAt = fromMillis(createdAt)
		record.UpdatedAt = fromMillis(updatedAt)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate battles: %w", err)
	}
	return out, nil
}

// Record appends a change to the battle history and assigns its sequence
// number.
func (s *Store) Record(ctx context.Context, change journal.Change) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	battleID := strings.TrimSpace(change.BattleID)
	if battleID == "" {
		return journal.ErrBattleIDRequired
	}
	units := change.Units
	if units == nil {
		units = []unit.ID{}
	}
	unitsJSON, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode change units: %w", err)
	}
	recordedAt := change.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM battle_changes WHERE battle_id = ?`,
		battleID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next change seq: %w", err)
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO battle_changes (
		   battle_id,
		   seq,
		   round,
		   kind,
		   side,
		   units,
		   cause,
		   destination,
		   detail,
		   recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		battleID,
		seq,
		change.Round,
		string(change.Kind),
		int(change.Side),
		string(unitsJSON),
		change.Cause,
		change.Destination,
		change.Detail,
		toMillis(recordedAt),
	)
	if err != nil {
		if isChangeUniqueViolation(err) {
			return ErrSequenceConflict
		}
		return fmt.Errorf("record change: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit change: %w", err)
	}
	return nil
}

// ListChanges returns up to limit changes after afterSeq in sequence order.
func (s *Store) ListChanges(ctx context.Context, battleID string, afterSeq uint64, limit int) ([]journal.Change, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return nil, journal.ErrBattleIDRequired
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, round, kind, side, units, cause, destination, detail, recorded_at
		 FROM battle_changes
		 WHERE battle_id = ? AND seq > ?
		 ORDER BY seq
		 LIMIT ?`,
		battleID, afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []journal.Change
	for rows.Next() {
		var (
			change     = journal.Change{BattleID: battleID}
			kind       string
			side       int
			unitsJSON  string
			recordedAt int64
		)
		if err := rows.Scan(&change.Seq, &change.Round, &kind, &side, &unitsJSON, &change.Cause, &change.Destination, &change.Detail, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if err := json.Unmarshal([]byte(unitsJSON), &change.Units); err != nil {
			return nil, fmt.Errorf("decode change %d units: %w", change.Seq, err)
		}
		if len(change.Units) == 0 {
			change.Units = nil
		}
		change.Kind = journal.Kind(kind)
		change.Side = unit.Side(side)
		change.RecordedAt = fromMillis(recordedAt)
		out = append(out, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return out, nil
}

func isChangeUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "battle_changes")
}

// Package sqlite stores the roll journal in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/bloodroll/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage/sqlite/migrations"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
)

const rollColumns = `seq, id, character_id, character_name, kind, label, headline, summary,
	successes, critical, messy, bestial, blood_surge, pool, rolled_at`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is the SQLite roll journal.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Journal = (*Store)(nil)

// Open opens the journal at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitemigrate.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendRoll inserts record and returns it with its sequence number.
func (s *Store) AppendRoll(ctx context.Context, record storage.RollRecord) (storage.RollRecord, error) {
	if strings.TrimSpace(record.ID) == "" {
		return storage.RollRecord{}, errors.New("roll id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return storage.RollRecord{}, errors.New("character id is required")
	}
	poolJSON, err := json.Marshal(record.Pool)
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("encode pool: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx, `INSERT INTO rolls (
	id, character_id, character_name, kind, label, headline, summary,
	successes, critical, messy, bestial, blood_surge, pool, rolled_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CharacterID, record.Character, string(record.Kind), record.Label,
		record.Headline, record.Text, record.Successes, record.Critical, record.Messy,
		record.Bestial, record.BloodSurge, string(poolJSON), toMillis(record.RolledAt),
	)
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("insert roll: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("roll seq: %w", err)
	}
	record.Seq = seq
	record.RolledAt = fromMillis(toMillis(record.RolledAt))
	return record, nil
}

// GetRoll returns the roll with id.
func (s *Store) GetRoll(ctx context.Context, id string) (storage.RollRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+rollColumns+" FROM rolls WHERE id = ?", id)
	record, err := scanRoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.RollRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("get roll: %w", err)
	}
	return record, nil
}

// ListRolls returns one page of rolls. One extra row is read to detect
// whether another page follows.
func (s *Store) ListRolls(ctx context.Context, req storage.ListRollsRequest) (storage.RollPage, error) {
	if req.PageSize <= 0 {
		return storage.RollPage{}, errors.New("page size must be positive")
	}
	plan := buildListRollsPlan(req)
	query := "SELECT " + rollColumns + " FROM rolls WHERE " + plan.whereClause + " " + plan.orderClause + " " + plan.limitClause
	rows, err := s.sqlDB.QueryContext(ctx, query, plan.params...)
	if err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	defer rows.Close()

	var page storage.RollPage
	for rows.Next() {
		record, err := scanRoll(rows)
		if err != nil {
			return storage.RollPage{}, fmt.Errorf("scan roll: %w", err)
		}
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	if len(page.Records) > req.PageSize {
		page.Records = page.Records[:req.PageSize]
		page.NextSeq = page.Records[req.PageSize-1].Seq
	}
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoll(row rowScanner) (storage.RollRecord, error) {
	var (
		record   storage.RollRecord
		kind     string
		poolJSON string
		rolledAt int64
	)
	if err := row.Scan(
		&record.Seq, &record.ID, &record.CharacterID, &record.Character, &kind,
		&record.Label, &record.Headline, &record.Text, &record.Successes,
		&record.Critical, &record.Messy, &record.Bestial, &record.BloodSurge,
		&poolJSON, &rolledAt,
	); err != nil {
		return storage.RollRecord{}, err
	}
	record.Kind = effects.Kind(kind)
	if err := json.Unmarshal([]byte(poolJSON), &record.Pool); err != nil {
		return storage.RollRecord{}, fmt.Errorf("decode pool: %w", err)
	}
	record.RolledAt = fromMillis(rolledAt)
	return record, nil
}

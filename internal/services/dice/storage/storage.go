// Package storage defines the roll journal the dice daemon writes every
// resolved roll to.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
)

// ErrNotFound indicates a roll is not in the journal.
var ErrNotFound = errors.New("roll not found")

// RollRecord is one journal row.
type RollRecord struct {
	Seq         int64         `json:"seq"`
	ID          string        `json:"id"`
	CharacterID string        `json:"character_id"`
	Character   string        `json:"character"`
	Kind        effects.Kind  `json:"kind"`
	Label       string        `json:"label,omitempty"`
	Headline    string        `json:"headline"`
	Text        string        `json:"text"`
	Successes   int           `json:"successes"`
	Critical    bool          `json:"critical"`
	Messy       bool          `json:"messy"`
	Bestial     bool          `json:"bestial"`
	BloodSurge  bool          `json:"blood_surge"`
	Pool        pool.DicePool `json:"pool"`
	RolledAt    time.Time     `json:"rolled_at"`
}

// FromSummary builds the record of a roll summary. Seq is assigned on append.
func FromSummary(id string, s effects.Summary) RollRecord {
	return RollRecord{
		ID:          id,
		CharacterID: s.CharacterID,
		Character:   s.Character,
		Kind:        s.Kind,
		Label:       s.Label,
		Headline:    s.Headline,
		Text:        s.Text(),
		Successes:   s.Successes,
		Critical:    s.Critical,
		Messy:       s.Messy,
		Bestial:     s.Bestial,
		BloodSurge:  s.BloodSurge,
		Pool:        s.Pool,
		RolledAt:    s.At,
	}
}

// ListRollsRequest selects one page of the journal.
type ListRollsRequest struct {
	PageSize   int
	AfterSeq   int64
	Descending bool
	// FilterClause is a SQL condition from the filter package.
	FilterClause string
	FilterParams []any
}

// RollPage is one page of records. NextSeq is zero on the last page.
type RollPage struct {
	Records []RollRecord
	NextSeq int64
}

// RollAppender appends records to the journal.
type RollAppender interface {
	AppendRoll(ctx context.Context, record RollRecord) (RollRecord, error)
}

// Journal is the full roll journal.
type Journal interface {
	RollAppender
	GetRoll(ctx context.Context, id string) (RollRecord, error)
	ListRolls(ctx context.Context, req ListRollsRequest) (RollPage, error)
}

// Package notify delivers roll summaries outside the daemon: to the roll
// journal and to a Discord channel webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/louisbranch/bloodroll/internal/platform/id"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
)

// Fanout sends every summary to each notifier in order. A failing notifier
// does not stop the rest.
type Fanout []effects.Notifier

// Notify implements effects.Notifier.
func (f Fanout) Notify(ctx context.Context, s effects.Summary) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Journal appends every summary to the roll journal.
type Journal struct {
	appender storage.RollAppender
}

// NewJournal builds a journal sink.
func NewJournal(appender storage.RollAppender) *Journal {
	return &Journal{appender: appender}
}

// Notify implements effects.Notifier. Summaries arrive stamped with their
// roll id; one without an id gets a fresh one here.
func (j *Journal) Notify(ctx context.Context, s effects.Summary) error {
	rollID := s.ID
	if rollID == "" {
		generated, err := id.NewRollID()
		if err != nil {
			return fmt.Errorf("roll id: %w", err)
		}
		rollID = generated
	}
	saved, err := j.appender.AppendRoll(ctx, storage.FromSummary(rollID, s))
	if err != nil {
		return fmt.Errorf("journal roll: %w", err)
	}
	log.Printf("notify: journaled roll %d for %s", saved.Seq, s.CharacterID)
	return nil
}

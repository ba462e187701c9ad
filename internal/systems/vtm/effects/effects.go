// Package effects applies the track consequences of resolved rolls and
// forwards a summary to the notification collaborator.
package effects

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/bloodroll/internal/platform/id"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

const defaultNotifyTimeout = 5 * time.Second

// TrackWriter mutates the acting character's tracks.
type TrackWriter interface {
	IncrementHunger(ctx context.Context) (tracks.Hunger, error)
	ClearStains(ctx context.Context) (tracks.Humanity, error)
	RemoveHumanity(ctx context.Context) (tracks.Humanity, error)
	SpendWillpower(ctx context.Context) (tracks.Boxes, error)
}

// Notifier delivers roll summaries. Errors are logged by the dispatcher.
type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}

// Applied reports the track changes made for one outcome.
type Applied struct {
	HungerIncremented bool            `json:"hunger_incremented,omitempty"`
	Hunger            *tracks.Hunger  `json:"hunger,omitempty"`
	StainsCleared     bool            `json:"stains_cleared,omitempty"`
	HumanityLost      bool            `json:"humanity_lost,omitempty"`
	Humanity          tracks.Humanity `json:"humanity,omitempty"`
}

// Dispatcher applies side effects. The zero value applies track changes
// and drops summaries.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	clock    func() time.Time
	newID    func() (string, error)
	wg       sync.WaitGroup
}

// NewDispatcher builds a dispatcher that forwards summaries to notifier.
// newID stamps each summary with its roll id when the roll resolves, so ids
// follow resolution order; it defaults to id.NewRollID.
func NewDispatcher(notifier Notifier, timeout time.Duration, clock func() time.Time, newID func() (string, error)) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewRollID
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, clock: clock, newID: newID}
}

// Apply mutates tracks for the outcome and notifies in the background.
// Track write failures are logged; nothing is returned as an error.
func (d *Dispatcher) Apply(ctx context.Context, writer TrackWriter, outcome Outcome) Applied {
	var applied Applied

	if outcome.Rouse.Rolled && !outcome.Rouse.Success && writer != nil {
		hunger, err := writer.IncrementHunger(ctx)
		if err != nil {
			log.Printf("effects: increment hunger for %s: %v", outcome.CharacterID, err)
		} else {
			applied.HungerIncremented = true
			applied.Hunger = &hunger
		}
	}

	if outcome.Remorse.Rolled && writer != nil {
		humanity, err := writer.ClearStains(ctx)
		if err != nil {
			log.Printf("effects: clear stains for %s: %v", outcome.CharacterID, err)
		} else {
			applied.StainsCleared = true
			applied.Humanity = humanity
		}
		if !outcome.Remorse.Success {
			humanity, err := writer.RemoveHumanity(ctx)
			if err != nil {
				log.Printf("effects: remove humanity for %s: %v", outcome.CharacterID, err)
			} else {
				applied.HumanityLost = true
				applied.Humanity = humanity
			}
		}
	}

	d.notify(ctx, outcome)
	return applied
}

// Wait blocks until every pending notification has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) notify(ctx context.Context, outcome Outcome) {
	if d == nil || d.notifier == nil {
		return
	}
	summary := Format(outcome)
	if summary.At.IsZero() && d.clock != nil {
		summary.At = d.clock()
	}
	if d.newID != nil {
		rollID, err := d.newID()
		if err != nil {
			log.Printf("effects: roll id for %s: %v", outcome.CharacterID, err)
		}
		summary.ID = rollID
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, summary); err != nil {
			log.Printf("effects: notify %s: %v", outcome.CharacterID, err)
		}
	}()
}

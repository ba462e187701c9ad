package physics

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// DieState is one die in a rendered frame.
type DieState struct {
	Index       int              `json:"index"`
	Category    resolve.Category `json:"category"`
	Position    [3]float64       `json:"position"`
	Orientation [4]float64       `json:"orientation"`
	Settled     bool             `json:"settled"`
}

// Frame is a snapshot of the tray after one step.
type Frame struct {
	Number int        `json:"number"`
	Dice   []DieState `json:"dice"`
}

// TrayOption configures a Tray.
type TrayOption func(*Tray)

// WithFrames registers a renderer called after every step.
func WithFrames(fn func(Frame)) TrayOption {
	return func(t *Tray) {
		t.onFrame = fn
	}
}

// WithPace sleeps between steps so frames can be streamed in real time.
func WithPace(pace time.Duration) TrayOption {
	return func(t *Tray) {
		t.pace = pace
	}
}

// Tray resolves die faces by simulating a throw. One throw runs at a time.
type Tray struct {
	mu      sync.Mutex
	world   *World
	pace    time.Duration
	onFrame func(Frame)
}

// NewTray builds a tray around a fresh world.
func NewTray(cfg Config, rng *rand.Rand, opts ...TrayOption) *Tray {
	t := &Tray{world: NewWorld(cfg, rng)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Roll clears the tray, throws one die per category and returns the raw
// faces in batch order.
func (t *Tray) Roll(ctx context.Context, categories []resolve.Category) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.world.Reset()
	indices := make([]int, len(categories))
	for i, category := range categories {
		t.world.Spawn(i, category)
		indices[i] = i
	}
	return t.settle(ctx, indices)
}

// Reroll removes the dice at indices, throws fresh ones in their place and
// returns their raw faces in the order given.
func (t *Tray) Reroll(ctx context.Context, indices []int) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, index := range indices {
		category := resolve.Standard
		if old, ok := t.world.Remove(index); ok {
			category = old.Category
		}
		t.world.Spawn(index, category)
	}
	return t.settle(ctx, indices)
}

// Clear removes every die.
func (t *Tray) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.world.Reset()
}

func (t *Tray) settle(ctx context.Context, indices []int) ([]int, error) {
	var ticker *time.Ticker
	if t.pace > 0 {
		ticker = time.NewTicker(t.pace)
		defer ticker.Stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			t.world.Reset()
			return nil, err
		}
		done := t.world.Step()
		t.emit()
		if done {
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				t.world.Reset()
				return nil, ctx.Err()
			case <-ticker.C:
			}
		}
	}

	faces := make([]int, len(indices))
	for i, index := range indices {
		b, _ := t.world.Body(index)
		faces[i] = t.world.Face(b)
	}
	return faces, nil
}

func (t *Tray) emit() {
	if t.onFrame == nil {
		return
	}
	frame := Frame{Number: t.world.Frame()}
	for _, b := range t.world.Bodies() {
		q := b.Orientation
		frame.Dice = append(frame.Dice, DieState{
			Index:       b.Index,
			Category:    b.Category,
			Position:    [3]float64(b.Position),
			Orientation: [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
			Settled:     b.Settled,
		})
	}
	t.onFrame(frame)
}

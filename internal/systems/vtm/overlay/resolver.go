package overlay

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/bloodroll/internal/core/dice"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// FaceResolver produces raw die faces (0–9, 0 meaning ten) for a batch.
// Implementations may animate; they must honour context cancellation and
// return no faces when cancelled.
type FaceResolver interface {
	// Roll replaces the batch with one die per category.
	Roll(ctx context.Context, categories []resolve.Category) ([]int, error)
	// Reroll replaces the dice at indices and returns their new faces.
	Reroll(ctx context.Context, indices []int) ([]int, error)
	// Clear removes every die.
	Clear()
}

// RandomResolver draws faces from a random source with no animation.
type RandomResolver struct {
	mu  sync.Mutex
	src dice.Source
}

// NewRandomResolver builds a resolver over src.
func NewRandomResolver(src dice.Source) *RandomResolver {
	return &RandomResolver{src: src}
}

// Roll draws one group per category so the standard and hunger pools come
// back as separate rolls, then lays the faces out in category order.
func (r *RandomResolver) Roll(ctx context.Context, categories []resolve.Category) ([]int, error) {
	var (
		order  []resolve.Category
		counts = make(map[resolve.Category]int)
	)
	for _, c := range categories {
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	specs := make([]dice.Spec, len(order))
	for i, c := range order {
		specs[i] = dice.Spec{Sides: 10, Count: counts[c]}
	}

	result, err := r.draw(ctx, specs)
	if err != nil || result == nil {
		return nil, err
	}
	next := make(map[resolve.Category][]int, len(order))
	for i, c := range order {
		next[c] = result.Rolls[i].Results
	}
	faces := make([]int, len(categories))
	for i, c := range categories {
		faces[i] = next[c][0] % 10
		next[c] = next[c][1:]
	}
	return faces, nil
}

func (r *RandomResolver) Reroll(ctx context.Context, indices []int) ([]int, error) {
	result, err := r.draw(ctx, []dice.Spec{{Sides: 10, Count: len(indices)}})
	if err != nil || result == nil {
		return nil, err
	}
	faces := result.Rolls[0].Results
	for i, v := range faces {
		faces[i] = v % 10
	}
	return faces, nil
}

func (r *RandomResolver) Clear() {}

func (r *RandomResolver) draw(ctx context.Context, specs []dice.Spec) (*dice.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(specs) == 0 || specs[0].Count == 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	result, err := dice.RollWithSource(r.src, specs)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ErrScriptExhausted indicates a scripted resolver ran out of faces.
var ErrScriptExhausted = errors.New("scripted faces exhausted")

// ScriptedResolver returns queued faces in order, then falls back to
// another resolver if one is set.
type ScriptedResolver struct {
	mu       sync.Mutex
	queue    []int
	fallback FaceResolver
}

// NewScriptedResolver builds a resolver that consults fallback once the
// queue is empty. fallback may be nil.
func NewScriptedResolver(fallback FaceResolver) *ScriptedResolver {
	return &ScriptedResolver{fallback: fallback}
}

// Push queues faces for the next throws.
func (r *ScriptedResolver) Push(faces ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, faces...)
}

// Pending returns how many queued faces remain.
func (r *ScriptedResolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *ScriptedResolver) Roll(ctx context.Context, categories []resolve.Category) ([]int, error) {
	return r.take(ctx, len(categories), func() ([]int, error) { return r.fallback.Roll(ctx, categories) })
}

func (r *ScriptedResolver) Reroll(ctx context.Context, indices []int) ([]int, error) {
	return r.take(ctx, len(indices), func() ([]int, error) { return r.fallback.Reroll(ctx, indices) })
}

func (r *ScriptedResolver) Clear() {
	if r.fallback != nil {
		r.fallback.Clear()
	}
}

func (r *ScriptedResolver) take(ctx context.Context, n int, fallback func() ([]int, error)) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if len(r.queue) >= n {
		faces := append([]int(nil), r.queue[:n]...)
		r.queue = r.queue[n:]
		r.mu.Unlock()
		return faces, nil
	}
	r.mu.Unlock()
	if r.fallback == nil {
		return nil, ErrScriptExhausted
	}
	return fallback()
}

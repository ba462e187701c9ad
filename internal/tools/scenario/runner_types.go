package scenario

import (
	"context"
	"sync"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
)

type scenarioState struct {
	store      *sheet.MemoryStore
	resolver   *overlay.ScriptedResolver
	dispatcher *effects.Dispatcher
	summaries  *summaryRecorder

	character  *sheet.Sheet
	controller *overlay.Controller

	composed   pool.Result
	composedOK bool
	pool       pool.DicePool
	resolution *overlay.Resolution
	lastErr    error
}

// summaryRecorder keeps every roll summary the dispatcher forwards.
type summaryRecorder struct {
	mu        sync.Mutex
	summaries []effects.Summary
}

func (r *summaryRecorder) Notify(_ context.Context, summary effects.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *summaryRecorder) last() (effects.Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.summaries) == 0 {
		return effects.Summary{}, false
	}
	return r.summaries[len(r.summaries)-1], true
}

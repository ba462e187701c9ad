// Package overlay runs the dice overlay of one character: it composes the
// pool, throws it through a FaceResolver, scores the settled faces, applies
// side effects and holds the Willpower reroll session until it is used or
// superseded.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/bloodroll/internal/core/check"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/content"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/reroll"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

var (
	// ErrNoPool indicates no trait is selected.
	ErrNoPool = errors.New("select a trait first")
	// ErrEmptyPool indicates the composed pool has no dice.
	ErrEmptyPool = errors.New("pool has no dice")
	// ErrInFlight indicates dice are still rolling.
	ErrInFlight = errors.New("dice are still rolling")
	// ErrAborted indicates the throw was wiped or superseded by a new roll.
	ErrAborted = errors.New("roll aborted")
	// ErrUnknownKind indicates a quick roll of an unsupported kind.
	ErrUnknownKind = errors.New("unknown roll kind")
)

// Character is the sheet the controller reads and writes.
type Character interface {
	pool.TraitValueProvider
	effects.TrackWriter
	ID() string
	Name() string
	Tracks() tracks.State
	Selection() pool.ComposerState
	SetSelection(pool.ComposerState)
}

// Resolution is a finished roll or reroll.
type Resolution struct {
	Outcome effects.Outcome `json:"outcome"`
	Applied effects.Applied `json:"applied"`
}

// View is a snapshot of the overlay.
type View struct {
	CharacterID     string             `json:"character_id"`
	InFlight        bool               `json:"in_flight"`
	Outcome         *effects.Outcome   `json:"outcome,omitempty"`
	Selected        []int              `json:"selected"`
	RerollAvailable bool               `json:"reroll_available"`
	Selection       pool.ComposerState `json:"selection"`
	Tracks          tracks.State       `json:"tracks"`
}

// Options configures a Controller.
type Options struct {
	Catalog    *content.Catalog
	Resolver   FaceResolver
	Dispatcher *effects.Dispatcher
	Bus        *bus.Bus
	Clock      func() time.Time
	Tracer     trace.Tracer
}

// Controller owns the live batch, the reroll session and the in-flight
// flag for one character. It is safe for concurrent use.
type Controller struct {
	character  Character
	catalog    *content.Catalog
	resolver   FaceResolver
	dispatcher *effects.Dispatcher
	bus        *bus.Bus
	clock      func() time.Time
	tracer     trace.Tracer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	inFlight   bool
	outcome    *effects.Outcome
	session    *reroll.Session
	lastSurge  bool
}

// NewController builds a controller for character.
func NewController(character Character, opts Options) *Controller {
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = &effects.Dispatcher{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/louisbranch/bloodroll/internal/systems/vtm/overlay")
	}
	return &Controller{
		character:  character,
		catalog:    opts.Catalog,
		resolver:   opts.Resolver,
		dispatcher: opts.Dispatcher,
		bus:        opts.Bus,
		clock:      opts.Clock,
		tracer:     opts.Tracer,
	}
}

// Compose stores the selection and returns the pool it would roll.
func (c *Controller) Compose(state pool.ComposerState) (pool.Result, bool) {
	c.character.SetSelection(state)
	result, ok := pool.Compose(state, c.character, c.catalog)
	c.bus.Publish(bus.TopicSelection, c.character.ID(), result)
	return result, ok
}

// RollOptions tunes a roll.
type RollOptions struct {
	// Difficulty, when set, is compared against the core successes.
	Difficulty *int
}

// Roll throws the pool composed from the stored selection.
func (c *Controller) Roll(ctx context.Context, opts RollOptions) (Resolution, error) {
	state := c.character.Selection()
	composed, ok := pool.Compose(state, c.character, c.catalog)
	if !ok {
		return Resolution{}, ErrNoPool
	}
	c.character.SetSelection(composed.State)
	if composed.Pool.Empty() {
		return Resolution{}, ErrEmptyPool
	}
	return c.throw(ctx, throwRequest{
		kind:        effects.KindPool,
		label:       composed.Label,
		pool:        composed.Pool,
		bloodSurge:  composed.BloodSurge,
		rouseReroll: composed.RouseReroll,
		difficulty:  opts.Difficulty,
	})
}

// QuickRoll throws a standalone Rouse, Remorse or Frenzy check.
func (c *Controller) QuickRoll(ctx context.Context, kind effects.Kind) (Resolution, error) {
	state := c.character.Tracks()
	var p pool.DicePool
	switch kind {
	case effects.KindRouse:
		p = pool.QuickRouse()
	case effects.KindRemorse:
		p = pool.QuickRemorse(state.Humanity)
	case effects.KindFrenzy:
		p = pool.QuickFrenzy(state.Willpower, state.Humanity)
	default:
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return c.throw(ctx, throwRequest{kind: kind, pool: p})
}

type throwRequest struct {
	kind        effects.Kind
	label       string
	pool        pool.DicePool
	bloodSurge  bool
	rouseReroll bool
	difficulty  *int
}

func (c *Controller) throw(ctx context.Context, req throwRequest) (Resolution, error) {
	ctx, span := c.tracer.Start(ctx, "overlay.roll", trace.WithAttributes(
		attribute.String("vtm.character_id", c.character.ID()),
		attribute.String("vtm.kind", string(req.kind)),
		attribute.Int("vtm.pool.standard", req.pool.Standard),
		attribute.Int("vtm.pool.hunger", req.pool.Hunger),
		attribute.Int("vtm.pool.rouse", req.pool.Rouse),
		attribute.Int("vtm.pool.remorse", req.pool.Remorse),
		attribute.Int("vtm.pool.frenzy", req.pool.Frenzy),
		attribute.Bool("vtm.blood_surge", req.bloodSurge),
	))
	defer span.End()

	categories := categoriesOf(req.pool)
	throwCtx, gen := c.begin(ctx)
	c.bus.Publish(bus.TopicRollStart, c.character.ID(), req.pool)

	faces, err := c.resolver.Roll(throwCtx, categories)
	if err != nil {
		return Resolution{}, c.abort(span, gen, err)
	}

	rouseRerolled := false
	if req.rouseReroll {
		var failed []int
		for i, category := range categories {
			if category == resolve.Rouse && !check.IsSuccess(resolve.Normalize(faces[i])) {
				failed = append(failed, i)
			}
		}
		if len(failed) > 0 {
			again, err := c.resolver.Reroll(throwCtx, failed)
			if err != nil {
				return Resolution{}, c.abort(span, gen, err)
			}
			for i, index := range failed {
				faces[index] = again[i]
			}
			rouseRerolled = true
		}
	}

	outcome := effects.Outcome{
		CharacterID:   c.character.ID(),
		CharacterName: c.character.Name(),
		Kind:          req.kind,
		Label:         req.label,
		Pool:          req.pool,
		BloodSurge:    req.bloodSurge,
		RouseRerolled: rouseRerolled,
		RolledAt:      c.clock(),
	}
	if err := score(&outcome, categories, faces, req.difficulty); err != nil {
		return Resolution{}, c.abort(span, gen, err)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return Resolution{}, c.abort(span, gen, context.Canceled)
	}
	c.finish()
	c.outcome = &outcome
	c.session = reroll.Open(categories, req.bloodSurge)
	c.lastSurge = req.bloodSurge
	c.mu.Unlock()

	applied := c.dispatcher.Apply(context.WithoutCancel(ctx), c.character, outcome)
	res := Resolution{Outcome: outcome, Applied: applied}
	c.bus.Publish(bus.TopicResolved, c.character.ID(), res)
	if applied.HungerIncremented || applied.StainsCleared || applied.HumanityLost {
		c.bus.Publish(bus.TopicTracks, c.character.ID(), c.character.Tracks())
	}
	if outcome.Core != nil {
		span.SetAttributes(
			attribute.Int("vtm.successes", outcome.Core.Successes),
			attribute.Bool("vtm.messy", outcome.Core.Messy),
			attribute.Bool("vtm.bestial", outcome.Core.Bestial),
		)
	}
	return res, nil
}

// Select toggles a Standard die for the Willpower reroll. Clicks while dice
// are rolling are ignored with ErrInFlight.
func (c *Controller) Select(index int) ([]int, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrInFlight
	}
	if c.session == nil && c.lastSurge {
		c.mu.Unlock()
		return nil, reroll.ErrBloodSurge
	}
	_, err := c.session.Toggle(index)
	selected := c.session.Selected()
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	c.bus.Publish(bus.TopicToggle, c.character.ID(), selected)
	return selected, nil
}

// Reroll spends one Willpower and rerolls the selected dice.
func (c *Controller) Reroll(ctx context.Context) (Resolution, error) {
	ctx, span := c.tracer.Start(ctx, "overlay.reroll", trace.WithAttributes(
		attribute.String("vtm.character_id", c.character.ID()),
	))
	defer span.End()

	c.mu.Lock()
	if err := c.rerollRefusal(); err != nil {
		c.mu.Unlock()
		return Resolution{}, c.refuse(span, err)
	}
	// The session stays open until the sheet has taken the Willpower.
	willpower := c.character.Tracks().Willpower
	if err := c.session.Eligible(willpower); err != nil {
		c.mu.Unlock()
		return Resolution{}, c.refuse(span, err)
	}
	if _, err := c.character.SpendWillpower(ctx); err != nil {
		c.mu.Unlock()
		return Resolution{}, c.refuse(span, err)
	}
	plan, err := c.session.Consume(willpower)
	if err != nil {
		c.mu.Unlock()
		return Resolution{}, c.refuse(span, err)
	}
	c.session = nil
	previous := *c.outcome
	c.mu.Unlock()

	c.bus.Publish(bus.TopicTracks, c.character.ID(), c.character.Tracks())
	span.SetAttributes(attribute.IntSlice("vtm.reroll.indices", plan.Indices))

	throwCtx, gen := c.begin(ctx)
	c.bus.Publish(bus.TopicReroll, c.character.ID(), plan.Indices)

	faces, err := c.resolver.Reroll(throwCtx, plan.Indices)
	if err != nil {
		return Resolution{}, c.abort(span, gen, err)
	}

	categories := make([]resolve.Category, len(previous.Dice))
	values := make([]int, len(previous.Dice))
	for i, d := range previous.Dice {
		categories[i] = d.Category
		values[i] = d.Face
	}
	for i, index := range plan.Indices {
		values[index] = faces[i]
	}

	outcome := previous
	outcome.Kind = effects.KindReroll
	outcome.RolledAt = c.clock()
	var difficulty *int
	if previous.Core != nil {
		difficulty = previous.Core.Difficulty
	}
	if err := score(&outcome, categories, values, difficulty); err != nil {
		return Resolution{}, c.abort(span, gen, err)
	}
	// Single tests were settled by the original roll.
	outcome.Rouse, outcome.Remorse, outcome.Frenzy = resolve.Test{}, resolve.Test{}, resolve.Test{}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return Resolution{}, c.abort(span, gen, context.Canceled)
	}
	c.finish()
	c.outcome = &outcome
	c.mu.Unlock()

	res := Resolution{Outcome: outcome, Applied: c.dispatcher.Apply(context.WithoutCancel(ctx), c.character, outcome)}
	c.bus.Publish(bus.TopicResolved, c.character.ID(), res)
	return res, nil
}

// Wipe tears down the batch, aborts any throw and discards the session.
func (c *Controller) Wipe() {
	c.mu.Lock()
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inFlight = false
	c.outcome = nil
	c.session = nil
	c.lastSurge = false
	c.mu.Unlock()

	if c.resolver != nil {
		c.resolver.Clear()
	}
	c.bus.Publish(bus.TopicWiped, c.character.ID(), nil)
}

// Snapshot returns the current overlay state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	view := View{
		CharacterID:     c.character.ID(),
		InFlight:        c.inFlight,
		Selected:        c.session.Selected(),
		RerollAvailable: c.session.Active() && !c.inFlight,
	}
	if c.outcome != nil {
		outcome := *c.outcome
		outcome.Dice = slices.Clone(outcome.Dice)
		view.Outcome = &outcome
	}
	c.mu.Unlock()

	view.Selection = c.character.Selection()
	view.Tracks = c.character.Tracks()
	return view
}

// begin supersedes any throw in flight and discards the session.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	throwCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.inFlight = true
	c.session = nil
	c.lastSurge = false
	return throwCtx, c.generation
}

// finish must be called with mu held.
func (c *Controller) finish() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inFlight = false
}

func (c *Controller) abort(span trace.Span, gen uint64, err error) error {
	c.mu.Lock()
	if gen == c.generation {
		c.finish()
	}
	c.mu.Unlock()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		span.SetStatus(codes.Error, "aborted")
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// rerollRefusal must be called with mu held.
func (c *Controller) rerollRefusal() error {
	switch {
	case c.inFlight:
		return ErrInFlight
	case c.session == nil && c.lastSurge:
		return reroll.ErrBloodSurge
	case c.session == nil || c.outcome == nil:
		return reroll.ErrNoSession
	}
	return c.session.Eligible(c.character.Tracks().Willpower)
}

func (c *Controller) refuse(span trace.Span, err error) error {
	span.SetAttributes(attribute.String("vtm.refused", err.Error()))
	c.bus.Publish(bus.TopicRefused, c.character.ID(), err.Error())
	return err
}

func categoriesOf(p pool.DicePool) []resolve.Category {
	counts := []int{p.Standard, p.Hunger, p.Rouse, p.Remorse, p.Frenzy}
	var out []resolve.Category
	for i, category := range resolve.Categories {
		for n := 0; n < counts[i]; n++ {
			out = append(out, category)
		}
	}
	return out
}

func score(outcome *effects.Outcome, categories []resolve.Category, raw []int, difficulty *int) error {
	if len(raw) != len(categories) {
		return fmt.Errorf("resolver returned %d faces for %d dice", len(raw), len(categories))
	}
	outcome.Dice = make([]effects.Die, len(raw))
	for i, v := range raw {
		outcome.Dice[i] = effects.Die{Index: i, Category: categories[i], Face: resolve.Normalize(v)}
	}

	outcome.Core = nil
	if outcome.Pool.HasCore() {
		core, err := resolve.Score(raw, categories)
		if err != nil {
			return err
		}
		if difficulty != nil {
			core = core.WithDifficulty(*difficulty)
		}
		outcome.Core = &core
	}

	var err error
	if outcome.Rouse, err = resolve.Check(outcome.Faces(resolve.Rouse)); err != nil {
		return err
	}
	if outcome.Remorse, err = resolve.Check(outcome.Faces(resolve.Remorse)); err != nil {
		return err
	}
	if outcome.Frenzy, err = resolve.Check(outcome.Faces(resolve.Frenzy)); err != nil {
		return err
	}
	return nil
}

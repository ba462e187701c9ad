package overlay

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/reroll"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

func newSheet(t *testing.T, edit func(*sheet.Character)) *sheet.Sheet {
	t.Helper()
	c := sheet.Character{
		ID:           "ada",
		Name:         "Ada",
		BloodPotency: 1,
		Hunger:       2,
		Attributes:   map[string]int{"Strength": 3, "Wits": 2, "Composure": 2, "Resolve": 3},
		Skills:       map[string]int{"Brawl": 2},
		Disciplines:  map[string]int{"Presence": 2},
	}
	if edit != nil {
		edit(&c)
	}
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return sheet.New(c)
}

func newController(s *sheet.Sheet, resolver FaceResolver, b *bus.Bus) *Controller {
	return NewController(s, Options{
		Resolver: resolver,
		Bus:      b,
		Clock:    func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) },
	})
}

func TestRollScoresStandardAndHungerDice(t *testing.T) {
	s := newSheet(t, nil)
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)

	composed, ok := c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})
	if !ok || composed.Pool != (pool.DicePool{Standard: 3, Hunger: 2}) {
		t.Fatalf("pool = %v, %v", composed.Pool, ok)
	}

	script.Push(6, 6, 10, 1, 3)
	res, err := c.Roll(context.Background(), RollOptions{})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	core := res.Outcome.Core
	if core == nil || core.Successes != 4 || core.CriticalPairs != 0 || core.Bestial || core.Messy {
		t.Fatalf("core = %+v", core)
	}
	if res.Outcome.Rouse.Rolled {
		t.Fatal("expected no rouse test")
	}
	if !c.Snapshot().RerollAvailable {
		t.Fatal("expected reroll session open")
	}
}

func TestRollReportsBestialFailure(t *testing.T) {
	s := newSheet(t, nil)
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	script.Push(2, 3, 4, 1, 1)
	res, err := c.Roll(context.Background(), RollOptions{})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if core := res.Outcome.Core; core.Successes != 0 || !core.Bestial {
		t.Fatalf("core = %+v", core)
	}
}

func TestRouseCheckRaisesHunger(t *testing.T) {
	tests := []struct {
		name   string
		hunger int
		face   int
		want   int
	}{
		{name: "success", hunger: 2, face: 6, want: 2},
		{name: "failure", hunger: 2, face: 3, want: 3},
		{name: "failure at cap", hunger: 5, face: 3, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSheet(t, func(c *sheet.Character) { c.Hunger = tt.hunger })
			script := NewScriptedResolver(nil)
			c := newController(s, script, nil)

			script.Push(tt.face)
			res, err := c.QuickRoll(context.Background(), effects.KindRouse)
			if err != nil {
				t.Fatalf("QuickRoll: %v", err)
			}
			if res.Outcome.Core != nil {
				t.Fatal("expected no core result for a rouse check")
			}
			if got := s.HungerDots(); got != tt.want {
				t.Fatalf("hunger = %d, want %d", got, tt.want)
			}
			if c.Snapshot().RerollAvailable {
				t.Fatal("expected no reroll for a rouse check")
			}
		})
	}
}

func TestRemorseCheckClearsStains(t *testing.T) {
	s := newSheet(t, func(c *sheet.Character) {
		c.Humanity = tracks.NewHumanity(5).Stain(2)
	})
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)

	script.Push(2, 3, 4)
	res, err := c.QuickRoll(context.Background(), effects.KindRemorse)
	if err != nil {
		t.Fatalf("QuickRoll: %v", err)
	}
	if res.Outcome.Pool.Remorse != 3 || res.Outcome.Remorse.Success {
		t.Fatalf("outcome = %+v", res.Outcome)
	}
	humanity := s.Tracks().Humanity
	if humanity.Current() != 4 || humanity.Stains() != 0 {
		t.Fatalf("humanity = %v", humanity)
	}
	if humanity[4] != tracks.Empty {
		t.Fatal("expected highest filled box removed")
	}
}

func TestBloodSurgeForbidsReroll(t *testing.T) {
	s := newSheet(t, func(c *sheet.Character) { c.BloodPotency = 2 })
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)

	composed, _ := c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl", BloodSurge: true})
	if composed.Pool != (pool.DicePool{Standard: 5, Hunger: 2, Rouse: 1}) {
		t.Fatalf("pool = %v", composed.Pool)
	}

	script.Push(6, 6, 6, 6, 6, 2, 2, 8)
	res, err := c.Roll(context.Background(), RollOptions{})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if !res.Outcome.BloodSurge {
		t.Fatal("expected blood surge outcome")
	}
	if _, err := c.Select(0); !errors.Is(err, reroll.ErrBloodSurge) {
		t.Fatalf("Select err = %v", err)
	}
	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrBloodSurge) {
		t.Fatalf("Reroll err = %v", err)
	}
	if c.Snapshot().RerollAvailable {
		t.Fatal("expected no reroll available")
	}
}

func TestWillpowerReroll(t *testing.T) {
	s := newSheet(t, nil)
	script := NewScriptedResolver(nil)
	b := bus.New()
	events, cancel := b.Subscribe("ada", bus.TopicResolved, bus.TopicToggle)
	defer cancel()
	c := newController(s, script, b)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl", Specialty: "Brawl"})

	script.Push(1, 2, 3, 7, 5, 4)
	if _, err := c.Roll(context.Background(), RollOptions{}); err != nil {
		t.Fatalf("Roll: %v", err)
	}

	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrNothingSelected) {
		t.Fatalf("err = %v, want ErrNothingSelected", err)
	}
	for _, index := range []int{0, 1, 2} {
		if _, err := c.Select(index); err != nil {
			t.Fatalf("Select(%d): %v", index, err)
		}
	}
	selected, err := c.Select(3)
	if err != nil || !slices.Equal(selected, []int{0, 1, 2}) {
		t.Fatalf("fourth select = %v, %v", selected, err)
	}
	if _, err := c.Select(4); !errors.Is(err, reroll.ErrNotSelectable) {
		t.Fatalf("hunger select err = %v", err)
	}

	script.Push(10, 10, 6)
	res, err := c.Reroll(context.Background())
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if res.Outcome.Kind != effects.KindReroll {
		t.Fatalf("kind = %q", res.Outcome.Kind)
	}
	faces := make([]int, len(res.Outcome.Dice))
	for i, d := range res.Outcome.Dice {
		faces[i] = d.Face
	}
	if !slices.Equal(faces, []int{10, 10, 6, 7, 5, 4}) {
		t.Fatalf("faces = %v", faces)
	}
	if core := res.Outcome.Core; core.Successes != 6 || core.CriticalPairs != 1 || core.Messy {
		t.Fatalf("core = %+v", core)
	}
	willpower := s.Tracks().Willpower
	if willpower.Count(tracks.Superficial) != 1 {
		t.Fatalf("willpower = %v", willpower)
	}
	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrNoSession) {
		t.Fatalf("second reroll err = %v", err)
	}

	var resolved, toggles int
	for len(events) > 0 {
		switch (<-events).Topic {
		case bus.TopicResolved:
			resolved++
		case bus.TopicToggle:
			toggles++
		}
	}
	if resolved != 2 || toggles != 4 {
		t.Fatalf("resolved = %d toggles = %d", resolved, toggles)
	}
}

func TestRerollInsufficientWillpower(t *testing.T) {
	s := newSheet(t, func(c *sheet.Character) {
		c.Willpower = tracks.Boxes{tracks.Aggravated, tracks.Aggravated}
	})
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	script.Push(1, 2, 3, 4, 5)
	if _, err := c.Roll(context.Background(), RollOptions{}); err != nil {
		t.Fatalf("Roll: %v", err)
	}
	c.Select(0)
	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrInsufficientWillpower) {
		t.Fatalf("err = %v", err)
	}
	view := c.Snapshot()
	if !slices.Equal(view.Selected, []int{0}) || !view.RerollAvailable {
		t.Fatalf("view = %+v", view)
	}
}

// spendFails reports Willpower on its tracks but refuses to spend it, the
// way a sheet does when another writer drained it first.
type spendFails struct {
	*sheet.Sheet
	err error
}

func (s *spendFails) SpendWillpower(ctx context.Context) (tracks.Boxes, error) {
	if s.err != nil {
		return s.Tracks().Willpower, s.err
	}
	return s.Sheet.SpendWillpower(ctx)
}

func TestRerollKeepsSessionWhenSpendFails(t *testing.T) {
	ch := &spendFails{Sheet: newSheet(t, nil), err: reroll.ErrInsufficientWillpower}
	script := NewScriptedResolver(nil)
	c := NewController(ch, Options{Resolver: script})
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	script.Push(1, 2, 3, 4, 5)
	if _, err := c.Roll(context.Background(), RollOptions{}); err != nil {
		t.Fatalf("Roll: %v", err)
	}
	c.Select(0)
	before := ch.Tracks().Willpower
	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrInsufficientWillpower) {
		t.Fatalf("err = %v", err)
	}
	view := c.Snapshot()
	if !slices.Equal(view.Selected, []int{0}) || !view.RerollAvailable {
		t.Fatalf("session closed after a failed spend: %+v", view)
	}
	if !slices.Equal(ch.Tracks().Willpower, before) {
		t.Fatalf("willpower = %v, want %v", ch.Tracks().Willpower, before)
	}

	ch.err = nil
	script.Push(8)
	res, err := c.Reroll(context.Background())
	if err != nil {
		t.Fatalf("Reroll after spend recovers: %v", err)
	}
	if res.Outcome.Kind != effects.KindReroll || c.Snapshot().RerollAvailable {
		t.Fatalf("outcome = %+v, view = %+v", res.Outcome, c.Snapshot())
	}
}

func TestNewRollDiscardsSession(t *testing.T) {
	s := newSheet(t, nil)
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	script.Push(1, 2, 3, 4, 5)
	c.Roll(context.Background(), RollOptions{})
	c.Select(1)

	script.Push(7)
	if _, err := c.QuickRoll(context.Background(), effects.KindRouse); err != nil {
		t.Fatalf("QuickRoll: %v", err)
	}
	if _, err := c.Reroll(context.Background()); !errors.Is(err, reroll.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestRollRequiresSelection(t *testing.T) {
	c := newController(newSheet(t, nil), NewScriptedResolver(nil), nil)
	if _, err := c.Roll(context.Background(), RollOptions{}); !errors.Is(err, ErrNoPool) {
		t.Fatalf("err = %v, want ErrNoPool", err)
	}

	impaired := newSheet(t, func(ch *sheet.Character) {
		ch.Attributes["Strength"] = 1
		ch.Health = tracks.Boxes{tracks.Aggravated}
	})
	c = newController(impaired, NewScriptedResolver(nil), nil)
	c.Compose(pool.ComposerState{First: "Strength"})
	if _, err := c.Roll(context.Background(), RollOptions{}); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
	if _, err := c.QuickRoll(context.Background(), "pool"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRouseReroll(t *testing.T) {
	s := newSheet(t, nil)
	script := NewScriptedResolver(nil)
	c := newController(s, script, nil)
	composed, _ := c.Compose(pool.ComposerState{First: "Wits", Second: "Presence", Power: "awe"})
	if !composed.RouseReroll || composed.Pool.Rouse != 1 {
		t.Fatalf("composed = %+v", composed)
	}

	script.Push(6, 6, 2, 2, 3, 9)
	res, err := c.Roll(context.Background(), RollOptions{})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if !res.Outcome.RouseRerolled || !res.Outcome.Rouse.Success {
		t.Fatalf("rouse = %+v rerolled = %v", res.Outcome.Rouse, res.Outcome.RouseRerolled)
	}
	if s.HungerDots() != 2 {
		t.Fatalf("hunger = %d, want unchanged", s.HungerDots())
	}
}

func TestRollWithDifficulty(t *testing.T) {
	c := newController(newSheet(t, nil), NewScriptedResolver(nil), nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})
	c.resolver.(*ScriptedResolver).Push(6, 7, 2, 3, 4)

	difficulty := 3
	res, err := c.Roll(context.Background(), RollOptions{Difficulty: &difficulty})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if core := res.Outcome.Core; core.MeetsDifficulty || core.Margin != -1 {
		t.Fatalf("core = %+v", core)
	}
}

type blockingResolver struct {
	started chan struct{}
}

func (b *blockingResolver) Roll(ctx context.Context, _ []resolve.Category) ([]int, error) {
	b.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingResolver) Reroll(ctx context.Context, _ []int) ([]int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingResolver) Clear() {}

func TestWipeAbortsThrow(t *testing.T) {
	resolver := &blockingResolver{started: make(chan struct{}, 1)}
	c := newController(newSheet(t, nil), resolver, nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	done := make(chan error, 1)
	go func() {
		_, err := c.Roll(context.Background(), RollOptions{})
		done <- err
	}()
	<-resolver.started

	if !c.Snapshot().InFlight {
		t.Fatal("expected throw in flight")
	}
	if _, err := c.Select(0); !errors.Is(err, ErrInFlight) {
		t.Fatalf("Select err = %v, want ErrInFlight", err)
	}
	c.Wipe()

	select {
	case err := <-done:
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("err = %v, want ErrAborted", err)
		}
	case <-time.After(time.Second):
		t.Fatal("throw not aborted")
	}
	view := c.Snapshot()
	if view.InFlight || view.Outcome != nil || view.RerollAvailable {
		t.Fatalf("view = %+v", view)
	}
}

type switchResolver struct {
	first  *blockingResolver
	second *ScriptedResolver
	calls  int
}

func (r *switchResolver) Roll(ctx context.Context, categories []resolve.Category) ([]int, error) {
	r.calls++
	if r.calls == 1 {
		return r.first.Roll(ctx, categories)
	}
	return r.second.Roll(ctx, categories)
}

func (r *switchResolver) Reroll(ctx context.Context, indices []int) ([]int, error) {
	return r.second.Reroll(ctx, indices)
}

func (r *switchResolver) Clear() {}

func TestNewRollSupersedesThrow(t *testing.T) {
	resolver := &switchResolver{
		first:  &blockingResolver{started: make(chan struct{}, 1)},
		second: NewScriptedResolver(nil),
	}
	s := newSheet(t, nil)
	c := newController(s, resolver, nil)
	c.Compose(pool.ComposerState{First: "Strength", Second: "Brawl"})

	done := make(chan error, 1)
	go func() {
		_, err := c.Roll(context.Background(), RollOptions{})
		done <- err
	}()
	<-resolver.first.started

	resolver.second.Push(8)
	res, err := c.QuickRoll(context.Background(), effects.KindRouse)
	if err != nil {
		t.Fatalf("QuickRoll: %v", err)
	}
	if err := <-done; !errors.Is(err, ErrAborted) {
		t.Fatalf("first roll err = %v, want ErrAborted", err)
	}
	view := c.Snapshot()
	if view.InFlight || view.Outcome == nil || view.Outcome.Kind != res.Outcome.Kind {
		t.Fatalf("view = %+v", view)
	}
}

func TestRandomResolver(t *testing.T) {
	r := NewRandomResolver(rand.New(rand.NewSource(3)))
	faces, err := r.Roll(context.Background(), make([]resolve.Category, 50))
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	for _, f := range faces {
		if f < 0 || f > 9 {
			t.Fatalf("face %d out of raw range", f)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Reroll(ctx, []int{0}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestScriptedResolver(t *testing.T) {
	r := NewScriptedResolver(nil)
	r.Push(1, 2)
	if _, err := r.Roll(context.Background(), make([]resolve.Category, 3)); !errors.Is(err, ErrScriptExhausted) {
		t.Fatalf("err = %v", err)
	}
	if r.Pending() != 2 {
		t.Fatalf("pending = %d", r.Pending())
	}

	fallback := NewScriptedResolver(NewRandomResolver(rand.New(rand.NewSource(1))))
	faces, err := fallback.Reroll(context.Background(), []int{0, 1})
	if err != nil || len(faces) != 2 {
		t.Fatalf("fallback = %v, %v", faces, err)
	}
}

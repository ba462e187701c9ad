package scenario

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "sheet":
		return r.runSheetStep(ctx, state, step.Args)
	case "select":
		return r.runSelectStep(state, step.Args)
	case "force":
		return r.runForceStep(state, step.Args)
	case "roll":
		return r.runRollStep(ctx, state, step.Args)
	case "toggle":
		return r.runToggleStep(state, step.Args)
	case "reroll":
		return r.runRerollStep(ctx, state)
	case "wipe":
		return r.runWipeStep(state)
	case "expect":
		return r.runExpectStep(state, step.Args)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runSheetStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	character, err := buildCharacter(args)
	if err != nil {
		return r.failf("sheet: %v", err)
	}
	sh, err := state.store.Put(ctx, character)
	if err != nil {
		return r.failf("sheet: %v", err)
	}
	state.character = sh
	state.controller = overlay.NewController(sh, overlay.Options{
		Catalog:    r.catalog,
		Resolver:   state.resolver,
		Dispatcher: state.dispatcher,
	})
	state.composed = pool.Result{}
	state.composedOK = false
	state.pool = pool.DicePool{}
	state.resolution = nil
	state.lastErr = nil
	return nil
}

func (r *Runner) runSelectStep(state *scenarioState, args map[string]any) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	selection := pool.ComposerState{
		First:       optionalString(args, "first", ""),
		Second:      optionalString(args, "second", ""),
		Specialty:   optionalString(args, "specialty", ""),
		Power:       optionalString(args, "power", ""),
		BloodSurge:  optionalBool(args, "blood_surge", false),
		Resonance:   optionalString(args, "resonance", ""),
		Temperament: optionalString(args, "temperament", ""),
	}
	state.composed, state.composedOK = state.controller.Compose(selection)
	state.pool = state.composed.Pool
	return nil
}

func (r *Runner) runForceStep(state *scenarioState, args map[string]any) error {
	faces, err := readIntList(args, "faces")
	if err != nil {
		return r.failf("force: %v", err)
	}
	for _, face := range faces {
		if face < 0 || face > 10 {
			return r.failf("force: face %d outside 0-10", face)
		}
	}
	state.resolver.Push(faces...)
	return nil
}

func (r *Runner) runRollStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	kind, ok := effects.ParseKind(strings.ToLower(optionalString(args, "kind", "")))
	if !ok {
		return r.failf("roll: unknown kind %v", args["kind"])
	}

	var (
		res overlay.Resolution
		err error
	)
	if kind == effects.KindPool {
		var difficulty *int
		if value, ok := readInt(args, "difficulty"); ok {
			difficulty = &value
		}
		res, err = state.controller.Roll(ctx, overlay.RollOptions{Difficulty: difficulty})
	} else {
		res, err = state.controller.QuickRoll(ctx, kind)
	}
	state.dispatcher.Wait()
	return r.recordResolution(state, res, err)
}

func (r *Runner) runToggleStep(state *scenarioState, args map[string]any) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	index, ok := readInt(args, "index")
	if !ok {
		return r.failf("toggle: index is required")
	}
	_, state.lastErr = state.controller.Select(index)
	return nil
}

func (r *Runner) runRerollStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	res, err := state.controller.Reroll(ctx)
	state.dispatcher.Wait()
	return r.recordResolution(state, res, err)
}

func (r *Runner) runWipeStep(state *scenarioState) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	state.controller.Wipe()
	state.resolution = nil
	state.lastErr = nil
	return nil
}

func (r *Runner) recordResolution(state *scenarioState, res overlay.Resolution, err error) error {
	if err != nil {
		state.lastErr = err
		return nil
	}
	state.lastErr = nil
	state.resolution = &res
	state.pool = res.Outcome.Pool
	return nil
}

func (r *Runner) ensureCharacter(state *scenarioState) error {
	if state.controller == nil {
		return r.failf("a sheet step must come first")
	}
	return nil
}

func (r *Runner) runExpectStep(state *scenarioState, args map[string]any) error {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		check, ok := expectations[key]
		if !ok {
			return r.failf("unknown expectation %q", key)
		}
		if err := check(r, state, args[key]); err != nil {
			return err
		}
	}
	if _, ok := args["error"]; ok {
		state.lastErr = nil
	}
	return nil
}

type expectation func(*Runner, *scenarioState, any) error

var expectations = map[string]expectation{
	"error":            expectError,
	"no_pool":          expectNoPool,
	"pool":             expectPool,
	"successes":        coreInt("successes", func(res resolve.Result) int { return res.Successes }),
	"critical_pairs":   coreInt("critical_pairs", func(res resolve.Result) int { return res.CriticalPairs }),
	"margin":           coreInt("margin", func(res resolve.Result) int { return res.Margin }),
	"critical":         coreBool("critical", resolve.Result.Critical),
	"messy":            coreBool("messy", func(res resolve.Result) bool { return res.Messy }),
	"bestial":          coreBool("bestial", func(res resolve.Result) bool { return res.Bestial }),
	"meets_difficulty": coreBool("meets_difficulty", func(res resolve.Result) bool { return res.MeetsDifficulty }),
	"rouse":            expectTest("rouse", func(o effects.Outcome) resolve.Test { return o.Rouse }),
	"remorse":          expectTest("remorse", func(o effects.Outcome) resolve.Test { return o.Remorse }),
	"frenzy":           expectTest("frenzy", func(o effects.Outcome) resolve.Test { return o.Frenzy }),
	"blood_surge":      expectBloodSurge,
	"rouse_rerolled":   expectRouseRerolled,
	"reroll_available": expectRerollAvailable,
	"selected":         expectSelected,
	"message":          expectMessage,
	"hunger":           expectHunger,
	"humanity":         expectHumanity,
	"stains":           expectStains,
	"willpower":        expectWillpower,
	"health":           expectHealth,
}

func expectError(r *Runner, state *scenarioState, want any) error {
	switch value := want.(type) {
	case bool:
		if value != (state.lastErr != nil) {
			return r.assertf("error = %v, want error %v", state.lastErr, value)
		}
	case string:
		if state.lastErr == nil {
			return r.assertf("expected error containing %q, got none", value)
		}
		if !strings.Contains(strings.ToLower(state.lastErr.Error()), strings.ToLower(value)) {
			return r.assertf("error = %q, want it to contain %q", state.lastErr, value)
		}
	default:
		return r.failf("error expectation must be a string or boolean")
	}
	return nil
}

func expectNoPool(r *Runner, state *scenarioState, want any) error {
	value, ok := want.(bool)
	if !ok {
		return r.failf("no_pool expectation must be a boolean")
	}
	if got := !state.composedOK; got != value {
		return r.assertf("no_pool = %v, want %v", got, value)
	}
	return nil
}

func expectPool(r *Runner, state *scenarioState, want any) error {
	fields, ok := want.(map[string]any)
	if !ok {
		return r.failf("pool expectation must be a table")
	}
	got := map[string]int{
		"standard": state.pool.Standard,
		"hunger":   state.pool.Hunger,
		"rouse":    state.pool.Rouse,
		"remorse":  state.pool.Remorse,
		"frenzy":   state.pool.Frenzy,
	}
	for _, name := range sortedKeys(fields) {
		have, known := got[name]
		if !known {
			return r.failf("unknown pool category %q", name)
		}
		value, ok := readInt(fields, name)
		if !ok {
			return r.failf("pool.%s must be a number", name)
		}
		if have != value {
			return r.assertf("pool.%s = %d, want %d (pool %s)", name, have, value, state.pool)
		}
	}
	return nil
}

func coreInt(name string, read func(resolve.Result) int) expectation {
	return func(r *Runner, state *scenarioState, want any) error {
		core, err := r.lastCore(state)
		if err != nil {
			return err
		}
		value, ok := asInt(want)
		if !ok {
			return r.failf("%s expectation must be a number", name)
		}
		if got := read(core); got != value {
			return r.assertf("%s = %d, want %d", name, got, value)
		}
		return nil
	}
}

func coreBool(name string, read func(resolve.Result) bool) expectation {
	return func(r *Runner, state *scenarioState, want any) error {
		core, err := r.lastCore(state)
		if err != nil {
			return err
		}
		value, ok := want.(bool)
		if !ok {
			return r.failf("%s expectation must be a boolean", name)
		}
		if got := read(core); got != value {
			return r.assertf("%s = %v, want %v", name, got, value)
		}
		return nil
	}
}

func expectTest(name string, read func(effects.Outcome) resolve.Test) expectation {
	return func(r *Runner, state *scenarioState, want any) error {
		outcome, err := r.lastOutcome(state)
		if err != nil {
			return err
		}
		value, ok := want.(string)
		if !ok {
			return r.failf("%s expectation must be passed, failed or none", name)
		}
		got := read(outcome).String()
		if got == "" {
			got = "none"
		}
		if got != strings.ToLower(value) {
			return r.assertf("%s = %s, want %s", name, got, value)
		}
		return nil
	}
}

func expectBloodSurge(r *Runner, state *scenarioState, want any) error {
	outcome, err := r.lastOutcome(state)
	if err != nil {
		return err
	}
	if value, ok := want.(bool); !ok || outcome.BloodSurge != value {
		return r.assertf("blood_surge = %v, want %v", outcome.BloodSurge, want)
	}
	return nil
}

func expectRouseRerolled(r *Runner, state *scenarioState, want any) error {
	outcome, err := r.lastOutcome(state)
	if err != nil {
		return err
	}
	if value, ok := want.(bool); !ok || outcome.RouseRerolled != value {
		return r.assertf("rouse_rerolled = %v, want %v", outcome.RouseRerolled, want)
	}
	return nil
}

func expectRerollAvailable(r *Runner, state *scenarioState, want any) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	got := state.controller.Snapshot().RerollAvailable
	if value, ok := want.(bool); !ok || got != value {
		return r.assertf("reroll_available = %v, want %v", got, want)
	}
	return nil
}

func expectSelected(r *Runner, state *scenarioState, want any) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	values, err := toIntList(want)
	if err != nil {
		return r.failf("selected: %v", err)
	}
	got := state.controller.Snapshot().Selected
	if !slices.Equal(normalizeSelection(got), normalizeSelection(values)) {
		return r.assertf("selected = %v, want %v", got, values)
	}
	return nil
}

func expectMessage(r *Runner, state *scenarioState, want any) error {
	value, ok := want.(string)
	if !ok {
		return r.failf("message expectation must be a string")
	}
	summary, found := state.summaries.last()
	if !found {
		return r.assertf("no roll summary was sent")
	}
	if text := summary.Text(); !strings.Contains(text, value) {
		return r.assertf("message %q does not contain %q", text, value)
	}
	return nil
}

func expectHunger(r *Runner, state *scenarioState, want any) error {
	return r.trackInt(state, "hunger", want, func(t tracks.State) int { return t.Hunger.Dots })
}

func expectHumanity(r *Runner, state *scenarioState, want any) error {
	return r.trackInt(state, "humanity", want, func(t tracks.State) int { return t.Humanity.Current() })
}

func expectStains(r *Runner, state *scenarioState, want any) error {
	return r.trackInt(state, "stains", want, func(t tracks.State) int { return t.Humanity.Stains() })
}

func expectWillpower(r *Runner, state *scenarioState, want any) error {
	return r.boxes(state, "willpower", want, func(t tracks.State) tracks.Boxes { return t.Willpower })
}

func expectHealth(r *Runner, state *scenarioState, want any) error {
	return r.boxes(state, "health", want, func(t tracks.State) tracks.Boxes { return t.Health })
}

func (r *Runner) trackInt(state *scenarioState, name string, want any, read func(tracks.State) int) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	value, ok := asInt(want)
	if !ok {
		return r.failf("%s expectation must be a number", name)
	}
	if got := read(state.character.Tracks()); got != value {
		return r.assertf("%s = %d, want %d", name, got, value)
	}
	return nil
}

// boxes checks a damage track. A number is the unspent count; a table may
// name unspent, superficial and aggravated counts.
func (r *Runner) boxes(state *scenarioState, name string, want any, read func(tracks.State) tracks.Boxes) error {
	if err := r.ensureCharacter(state); err != nil {
		return err
	}
	track := read(state.character.Tracks())
	got := map[string]int{
		"unspent":     track.Unspent(),
		"superficial": track.Count(tracks.Superficial),
		"aggravated":  track.Count(tracks.Aggravated),
	}

	fields, ok := want.(map[string]any)
	if !ok {
		value, isInt := asInt(want)
		if !isInt {
			return r.failf("%s expectation must be a number or table", name)
		}
		fields = map[string]any{"unspent": value}
	}
	for _, key := range sortedKeys(fields) {
		have, known := got[key]
		if !known {
			return r.failf("unknown %s field %q", name, key)
		}
		value, ok := readInt(fields, key)
		if !ok {
			return r.failf("%s.%s must be a number", name, key)
		}
		if have != value {
			return r.assertf("%s.%s = %d, want %d", name, key, have, value)
		}
	}
	return nil
}

func (r *Runner) lastOutcome(state *scenarioState) (effects.Outcome, error) {
	if state.resolution == nil {
		return effects.Outcome{}, r.failf("no roll has resolved yet")
	}
	return state.resolution.Outcome, nil
}

func (r *Runner) lastCore(state *scenarioState) (resolve.Result, error) {
	outcome, err := r.lastOutcome(state)
	if err != nil {
		return resolve.Result{}, err
	}
	if outcome.Core == nil {
		return resolve.Result{}, r.failf("last roll had no standard or hunger dice")
	}
	return *outcome.Core, nil
}

func normalizeSelection(values []int) []int {
	out := slices.Clone(values)
	slices.Sort(out)
	if out == nil {
		out = []int{}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

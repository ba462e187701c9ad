package domain

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/bloodroll/internal/services/dice/client"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

type fakeDice struct {
	characters []client.Character
	selection  client.Selection
	resolution overlay.Resolution
	selected   []int
	list       client.RollList
	err        error

	gotState      pool.ComposerState
	gotKind       string
	gotDifficulty *int
	gotIndex      int
	gotParams     client.ListRollsParams
	wiped         string
}

func (f *fakeDice) Characters(context.Context) ([]client.Character, error) {
	return f.characters, f.err
}

func (f *fakeDice) Select(_ context.Context, _ string, state pool.ComposerState) (client.Selection, error) {
	f.gotState = state
	return f.selection, f.err
}

func (f *fakeDice) Roll(_ context.Context, _ string, kind string, difficulty *int) (overlay.Resolution, error) {
	f.gotKind = kind
	f.gotDifficulty = difficulty
	return f.resolution, f.err
}

func (f *fakeDice) Toggle(_ context.Context, _ string, index int) ([]int, error) {
	f.gotIndex = index
	return f.selected, f.err
}

func (f *fakeDice) Reroll(context.Context, string) (overlay.Resolution, error) {
	return f.resolution, f.err
}

func (f *fakeDice) Wipe(_ context.Context, id string) error {
	f.wiped = id
	return f.err
}

func (f *fakeDice) ListRolls(_ context.Context, params client.ListRollsParams) (client.RollList, error) {
	f.gotParams = params
	return f.list, f.err
}

func messyResolution() overlay.Resolution {
	difficulty := 3
	return overlay.Resolution{
		Outcome: effects.Outcome{
			CharacterID:   "ada",
			CharacterName: "Ada",
			Kind:          effects.KindPool,
			Label:         "Strength + Brawl",
			Pool:          pool.DicePool{Standard: 1, Hunger: 1},
			Dice: []effects.Die{
				{Index: 0, Category: resolve.Standard, Face: 10},
				{Index: 1, Category: resolve.Hunger, Face: 10},
			},
			Core: &resolve.Result{Successes: 4, CriticalPairs: 1, Messy: true, Difficulty: &difficulty, Margin: 1, MeetsDifficulty: true},
		},
	}
}

func TestRollPoolHandler(t *testing.T) {
	dice := &fakeDice{selection: client.Selection{OK: true}, resolution: messyResolution()}
	difficulty := 3
	_, out, err := RollPoolHandler(dice)(context.Background(), nil, RollPoolInput{
		CharacterID: " ada ",
		First:       "Strength",
		Second:      "Brawl",
		Difficulty:  &difficulty,
	})
	if err != nil {
		t.Fatalf("RollPoolHandler: %v", err)
	}
	if dice.gotState.First != "Strength" || dice.gotState.Second != "Brawl" {
		t.Fatalf("state = %+v", dice.gotState)
	}
	if dice.gotKind != "pool" || dice.gotDifficulty == nil || *dice.gotDifficulty != 3 {
		t.Fatalf("roll kind = %q difficulty = %v", dice.gotKind, dice.gotDifficulty)
	}
	if out.Successes != 4 || !out.Messy || !out.Critical || len(out.Dice) != 2 {
		t.Fatalf("out = %+v", out)
	}
	if out.MeetsDifficulty == nil || !*out.MeetsDifficulty || out.Margin != 1 {
		t.Fatalf("difficulty result = %v margin %d", out.MeetsDifficulty, out.Margin)
	}
	if out.Headline == "" || !strings.HasPrefix(out.Text, "Ada rolled Strength + Brawl") {
		t.Fatalf("headline = %q text = %q", out.Headline, out.Text)
	}
	if out.RouseSuccess != nil {
		t.Fatal("expected no rouse result")
	}
}

func TestRollPoolHandlerRefusals(t *testing.T) {
	if _, _, err := RollPoolHandler(&fakeDice{})(context.Background(), nil, RollPoolInput{}); err == nil {
		t.Fatal("expected error for missing character")
	}
	dice := &fakeDice{selection: client.Selection{OK: false}}
	if _, _, err := RollPoolHandler(dice)(context.Background(), nil, RollPoolInput{CharacterID: "ada"}); err == nil {
		t.Fatal("expected error for empty selection")
	}
	if dice.gotKind != "" {
		t.Fatal("expected no roll without a selection")
	}
	if _, _, err := RollPoolHandler(nil)(context.Background(), nil, RollPoolInput{CharacterID: "ada"}); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestQuickRollHandler(t *testing.T) {
	res := overlay.Resolution{
		Outcome: effects.Outcome{CharacterID: "ada", CharacterName: "Ada", Kind: effects.KindRouse, Rouse: resolve.Test{Rolled: true}},
		Applied: effects.Applied{HungerIncremented: true},
	}
	dice := &fakeDice{resolution: res}
	_, out, err := QuickRollHandler(dice)(context.Background(), nil, QuickRollInput{CharacterID: "ada", Kind: "Rouse"})
	if err != nil {
		t.Fatalf("QuickRollHandler: %v", err)
	}
	if dice.gotKind != "rouse" {
		t.Fatalf("kind = %q", dice.gotKind)
	}
	if out.RouseSuccess == nil || *out.RouseSuccess || !out.HungerIncremented {
		t.Fatalf("out = %+v", out)
	}

	for _, kind := range []string{"", "pool", "blood"} {
		if _, _, err := QuickRollHandler(dice)(context.Background(), nil, QuickRollInput{CharacterID: "ada", Kind: kind}); err == nil {
			t.Fatalf("kind %q: expected error", kind)
		}
	}
}

func TestToggleRerollWipeHandlers(t *testing.T) {
	dice := &fakeDice{selected: []int{0, 2}, resolution: messyResolution()}

	_, toggled, err := ToggleDieHandler(dice)(context.Background(), nil, ToggleDieInput{CharacterID: "ada", Index: 2})
	if err != nil || !slices.Equal(toggled.Selected, []int{0, 2}) || dice.gotIndex != 2 {
		t.Fatalf("toggle = %+v, %v", toggled, err)
	}

	_, rerolled, err := WillpowerRerollHandler(dice)(context.Background(), nil, CharacterInput{CharacterID: "ada"})
	if err != nil || rerolled.Successes != 4 {
		t.Fatalf("reroll = %+v, %v", rerolled, err)
	}

	_, wiped, err := WipeOverlayHandler(dice)(context.Background(), nil, CharacterInput{CharacterID: "ada"})
	if err != nil || !wiped.Wiped || dice.wiped != "ada" {
		t.Fatalf("wipe = %+v, %v", wiped, err)
	}

	dice.err = &client.APIError{Status: 409, Code: "REROLL_NO_SESSION", Message: "Nothing to reroll."}
	_, _, err = WillpowerRerollHandler(dice)(context.Background(), nil, CharacterInput{CharacterID: "ada"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "REROLL_NO_SESSION" {
		t.Fatalf("err = %v", err)
	}
}

func TestToggleDieHandlerEmptySelection(t *testing.T) {
	_, out, err := ToggleDieHandler(&fakeDice{})(context.Background(), nil, ToggleDieInput{CharacterID: "ada"})
	if err != nil || out.Selected == nil || len(out.Selected) != 0 {
		t.Fatalf("out = %+v, %v", out, err)
	}
}

func TestListRollsHandler(t *testing.T) {
	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	dice := &fakeDice{list: client.RollList{
		Rolls:         []storage.RollRecord{{Seq: 9, ID: "r9", CharacterID: "ada", Kind: effects.KindRouse, RolledAt: at}},
		NextPageToken: "next",
	}}
	_, out, err := ListRollsHandler(dice)(context.Background(), nil, ListRollsInput{Filter: "messy", PageSize: 5})
	if err != nil {
		t.Fatalf("ListRollsHandler: %v", err)
	}
	if dice.gotParams.Filter != "messy" || dice.gotParams.PageSize != 5 {
		t.Fatalf("params = %+v", dice.gotParams)
	}
	if len(out.Rolls) != 1 || out.Rolls[0].Kind != "rouse" || out.Rolls[0].RolledAt != "2026-03-01T20:00:00Z" || out.NextPageToken != "next" {
		t.Fatalf("out = %+v", out)
	}
}

func TestCharacterListResourceHandler(t *testing.T) {
	dice := &fakeDice{characters: []client.Character{{
		ID:   "ada",
		Name: "Ada",
		Tracks: tracks.State{
			Hunger:    tracks.NewHunger(2),
			Willpower: tracks.NewBoxes(4),
			Health:    tracks.NewBoxes(6),
			Humanity:  tracks.NewHumanity(7).Stain(1),
		},
	}}}
	res, err := CharacterListResourceHandler(dice)(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "vtm://characters"},
	})
	if err != nil {
		t.Fatalf("CharacterListResourceHandler: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].URI != "vtm://characters" {
		t.Fatalf("contents = %+v", res.Contents)
	}
	text := res.Contents[0].Text
	for _, want := range []string{`"id": "ada"`, `"hunger": 2`, `"willpower_unspent": 4`, `"humanity": 7`, `"stains": 1`} {
		if !strings.Contains(text, want) {
			t.Fatalf("resource %s missing %s", text, want)
		}
	}
}

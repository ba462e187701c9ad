package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// RollPoolInput represents the MCP tool input for a composed pool roll.
type RollPoolInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	First       string `json:"first" jsonschema:"attribute that starts the pool"`
	Second      string `json:"second,omitempty" jsonschema:"attribute, skill or discipline added to the pool"`
	Specialty   string `json:"specialty,omitempty" jsonschema:"skill whose specialty applies"`
	Power       string `json:"power,omitempty" jsonschema:"discipline power key"`
	BloodSurge  bool   `json:"blood_surge,omitempty" jsonschema:"spend a Rouse Check for bonus dice"`
	Resonance   string `json:"resonance,omitempty" jsonschema:"blood resonance"`
	Temperament string `json:"temperament,omitempty" jsonschema:"resonance temperament"`
	Difficulty  *int   `json:"difficulty,omitempty" jsonschema:"successes needed"`
}

// QuickRollInput represents the MCP tool input for a standalone check.
type QuickRollInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Kind        string `json:"kind" jsonschema:"rouse, remorse or frenzy"`
}

// CharacterInput names the character a tool acts on.
type CharacterInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
}

// ToggleDieInput represents the MCP tool input for selecting a reroll die.
type ToggleDieInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Index       int    `json:"index" jsonschema:"zero-based die index in the last roll"`
}

// DieResult is one settled die.
type DieResult struct {
	Index    int    `json:"index" jsonschema:"die index in the batch"`
	Category string `json:"category" jsonschema:"standard, hunger, rouse, remorse or frenzy"`
	Face     int    `json:"face" jsonschema:"face value from 1 to 10"`
}

// RollResult represents the MCP tool output for any roll.
type RollResult struct {
	CharacterID       string      `json:"character_id" jsonschema:"character identifier"`
	Kind              string      `json:"kind" jsonschema:"pool, rouse, remorse, frenzy or reroll"`
	Label             string      `json:"label,omitempty" jsonschema:"pool label"`
	Headline          string      `json:"headline" jsonschema:"one-line verdict"`
	Text              string      `json:"text" jsonschema:"chat-ready summary"`
	Dice              []DieResult `json:"dice" jsonschema:"every settled die"`
	Successes         int         `json:"successes" jsonschema:"successes of the standard and hunger dice"`
	Critical          bool        `json:"critical" jsonschema:"at least one pair of tens"`
	Messy             bool        `json:"messy" jsonschema:"messy critical"`
	Bestial           bool        `json:"bestial" jsonschema:"bestial failure"`
	MeetsDifficulty   *bool       `json:"meets_difficulty,omitempty" jsonschema:"whether the difficulty was met"`
	Margin            int         `json:"margin,omitempty" jsonschema:"successes above or below the difficulty"`
	RouseSuccess      *bool       `json:"rouse_success,omitempty" jsonschema:"rouse check result when rolled"`
	RemorseSuccess    *bool       `json:"remorse_success,omitempty" jsonschema:"remorse check result when rolled"`
	FrenzySuccess     *bool       `json:"frenzy_success,omitempty" jsonschema:"frenzy check result when rolled"`
	HungerIncremented bool        `json:"hunger_incremented,omitempty" jsonschema:"hunger went up"`
	StainsCleared     bool        `json:"stains_cleared,omitempty" jsonschema:"humanity stains were cleared"`
	HumanityLost      bool        `json:"humanity_lost,omitempty" jsonschema:"a humanity box was lost"`
}

// ToggleDieResult lists the dice selected for the Willpower reroll.
type ToggleDieResult struct {
	Selected []int `json:"selected" jsonschema:"selected die indices"`
}

// WipeResult confirms the overlay was cleared.
type WipeResult struct {
	Wiped bool `json:"wiped" jsonschema:"true when the overlay was cleared"`
}

// RollPoolTool defines the MCP tool schema for composed pool rolls.
func RollPoolTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_roll_pool",
		Description: "Composes a Vampire: The Masquerade dice pool from two traits and rolls it",
	}
}

// QuickRollTool defines the MCP tool schema for standalone checks.
func QuickRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_quick_roll",
		Description: "Rolls a Rouse, Remorse or Frenzy check",
	}
}

// ToggleDieTool defines the MCP tool schema for reroll selection.
func ToggleDieTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_toggle_die",
		Description: "Selects or deselects a regular die for the Willpower reroll (up to 3)",
	}
}

// WillpowerRerollTool defines the MCP tool schema for the Willpower reroll.
func WillpowerRerollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_willpower_reroll",
		Description: "Spends one Willpower to reroll the selected dice",
	}
}

// WipeOverlayTool defines the MCP tool schema for clearing the overlay.
func WipeOverlayTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_wipe_overlay",
		Description: "Clears the dice overlay and aborts a throw in flight",
	}
}

// RollPoolHandler stores the selection and rolls the composed pool.
func RollPoolHandler(dice DiceClient) mcp.ToolHandlerFor[RollPoolInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollPoolInput) (*mcp.CallToolResult, RollResult, error) {
		if dice == nil {
			return nil, RollResult{}, errors.New("dice client is not configured")
		}
		id := strings.TrimSpace(input.CharacterID)
		if id == "" {
			return nil, RollResult{}, errors.New("character_id is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, rollTimeout)
		defer cancel()

		selection, err := dice.Select(runCtx, id, pool.ComposerState{
			First:       input.First,
			Second:      input.Second,
			Specialty:   input.Specialty,
			Power:       input.Power,
			BloodSurge:  input.BloodSurge,
			Resonance:   input.Resonance,
			Temperament: input.Temperament,
		})
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("select pool: %w", err)
		}
		if !selection.OK {
			return nil, RollResult{}, errors.New("select an attribute first")
		}

		res, err := dice.Roll(runCtx, id, string(effects.KindPool), input.Difficulty)
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("roll pool: %w", err)
		}
		return nil, rollResultFrom(res), nil
	}
}

// QuickRollHandler rolls a standalone check.
func QuickRollHandler(dice DiceClient) mcp.ToolHandlerFor[QuickRollInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuickRollInput) (*mcp.CallToolResult, RollResult, error) {
		if dice == nil {
			return nil, RollResult{}, errors.New("dice client is not configured")
		}
		kind, ok := effects.ParseKind(strings.ToLower(strings.TrimSpace(input.Kind)))
		if !ok || kind == effects.KindPool {
			return nil, RollResult{}, fmt.Errorf("kind must be rouse, remorse or frenzy, got %q", input.Kind)
		}

		runCtx, cancel := context.WithTimeout(ctx, rollTimeout)
		defer cancel()

		res, err := dice.Roll(runCtx, strings.TrimSpace(input.CharacterID), string(kind), nil)
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("%s check: %w", kind, err)
		}
		return nil, rollResultFrom(res), nil
	}
}

// ToggleDieHandler flips one die in the reroll selection.
func ToggleDieHandler(dice DiceClient) mcp.ToolHandlerFor[ToggleDieInput, ToggleDieResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ToggleDieInput) (*mcp.CallToolResult, ToggleDieResult, error) {
		if dice == nil {
			return nil, ToggleDieResult{}, errors.New("dice client is not configured")
		}
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		selected, err := dice.Toggle(runCtx, strings.TrimSpace(input.CharacterID), input.Index)
		if err != nil {
			return nil, ToggleDieResult{}, fmt.Errorf("toggle die %d: %w", input.Index, err)
		}
		if selected == nil {
			selected = []int{}
		}
		return nil, ToggleDieResult{Selected: selected}, nil
	}
}

// WillpowerRerollHandler rerolls the selected dice.
func WillpowerRerollHandler(dice DiceClient) mcp.ToolHandlerFor[CharacterInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterInput) (*mcp.CallToolResult, RollResult, error) {
		if dice == nil {
			return nil, RollResult{}, errors.New("dice client is not configured")
		}
		runCtx, cancel := context.WithTimeout(ctx, rollTimeout)
		defer cancel()

		res, err := dice.Reroll(runCtx, strings.TrimSpace(input.CharacterID))
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("willpower reroll: %w", err)
		}
		return nil, rollResultFrom(res), nil
	}
}

// WipeOverlayHandler clears the overlay.
func WipeOverlayHandler(dice DiceClient) mcp.ToolHandlerFor[CharacterInput, WipeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterInput) (*mcp.CallToolResult, WipeResult, error) {
		if dice == nil {
			return nil, WipeResult{}, errors.New("dice client is not configured")
		}
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := dice.Wipe(runCtx, strings.TrimSpace(input.CharacterID)); err != nil {
			return nil, WipeResult{}, fmt.Errorf("wipe overlay: %w", err)
		}
		return nil, WipeResult{Wiped: true}, nil
	}
}

func rollResultFrom(res overlay.Resolution) RollResult {
	o := res.Outcome
	summary := effects.Format(o)
	out := RollResult{
		CharacterID:       o.CharacterID,
		Kind:              string(o.Kind),
		Label:             o.Label,
		Headline:          summary.Headline,
		Text:              summary.Text(),
		Dice:              make([]DieResult, 0, len(o.Dice)),
		Successes:         summary.Successes,
		Critical:          summary.Critical,
		Messy:             summary.Messy,
		Bestial:           summary.Bestial,
		HungerIncremented: res.Applied.HungerIncremented,
		StainsCleared:     res.Applied.StainsCleared,
		HumanityLost:      res.Applied.HumanityLost,
	}
	for _, d := range o.Dice {
		out.Dice = append(out.Dice, DieResult{Index: d.Index, Category: string(d.Category), Face: d.Face})
	}
	if o.Core != nil && o.Core.Difficulty != nil {
		meets := o.Core.MeetsDifficulty
		out.MeetsDifficulty = &meets
		out.Margin = o.Core.Margin
	}
	out.RouseSuccess = testResult(o.Rouse)
	out.RemorseSuccess = testResult(o.Remorse)
	out.FrenzySuccess = testResult(o.Frenzy)
	return out
}

func testResult(t resolve.Test) *bool {
	if !t.Rolled {
		return nil
	}
	success := t.Success
	return &success
}

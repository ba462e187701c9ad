package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/bloodroll/internal/services/dice/client"
)

// ListRollsInput represents the MCP tool input for reading the roll journal.
type ListRollsInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter, e.g. character_id = \"ada\" AND messy"`
	OrderBy   string `json:"order_by,omitempty" jsonschema:"seq desc (default) or seq"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum rolls to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// RollEntry is one journal row.
type RollEntry struct {
	Seq         int64  `json:"seq" jsonschema:"journal sequence"`
	ID          string `json:"id" jsonschema:"roll identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Character   string `json:"character" jsonschema:"character name"`
	Kind        string `json:"kind" jsonschema:"roll kind"`
	Label       string `json:"label,omitempty" jsonschema:"pool label"`
	Headline    string `json:"headline" jsonschema:"one-line verdict"`
	Successes   int    `json:"successes" jsonschema:"successes"`
	Messy       bool   `json:"messy,omitempty" jsonschema:"messy critical"`
	Bestial     bool   `json:"bestial,omitempty" jsonschema:"bestial failure"`
	RolledAt    string `json:"rolled_at" jsonschema:"RFC 3339 timestamp"`
}

// ListRollsResult represents the MCP tool output for the roll journal.
type ListRollsResult struct {
	Rolls         []RollEntry `json:"rolls" jsonschema:"journal rows"`
	NextPageToken string      `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// CharacterEntry is one character of the characters resource.
type CharacterEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Clan      string `json:"clan,omitempty"`
	Hunger    int    `json:"hunger"`
	Willpower int    `json:"willpower_unspent"`
	Health    int    `json:"health_unspent"`
	Humanity  int    `json:"humanity"`
	Stains    int    `json:"stains"`
}

// CharacterListPayload is the body of the characters resource.
type CharacterListPayload struct {
	Characters []CharacterEntry `json:"characters"`
}

// ListRollsTool defines the MCP tool schema for the roll journal.
func ListRollsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtm_list_rolls",
		Description: "Lists journaled rolls, newest first, with optional filtering",
	}
}

// CharacterListResource defines the readable character listing.
func CharacterListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "character_list",
		Title:       "Characters",
		Description: "Characters loaded by the dice daemon with their current tracks",
		MIMEType:    "application/json",
		URI:         "vtm://characters",
	}
}

// ListRollsHandler reads one page of the journal.
func ListRollsHandler(dice DiceClient) mcp.ToolHandlerFor[ListRollsInput, ListRollsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListRollsInput) (*mcp.CallToolResult, ListRollsResult, error) {
		if dice == nil {
			return nil, ListRollsResult{}, errors.New("dice client is not configured")
		}
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		list, err := dice.ListRolls(runCtx, client.ListRollsParams{
			Filter:    input.Filter,
			OrderBy:   input.OrderBy,
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
		})
		if err != nil {
			return nil, ListRollsResult{}, fmt.Errorf("list rolls: %w", err)
		}

		out := ListRollsResult{Rolls: make([]RollEntry, 0, len(list.Rolls)), NextPageToken: list.NextPageToken}
		for _, r := range list.Rolls {
			out.Rolls = append(out.Rolls, RollEntry{
				Seq:         r.Seq,
				ID:          r.ID,
				CharacterID: r.CharacterID,
				Character:   r.Character,
				Kind:        string(r.Kind),
				Label:       r.Label,
				Headline:    r.Headline,
				Successes:   r.Successes,
				Messy:       r.Messy,
				Bestial:     r.Bestial,
				RolledAt:    r.RolledAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, out, nil
	}
}

// CharacterListResourceHandler renders the character listing.
func CharacterListResourceHandler(dice DiceClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if dice == nil {
			return nil, errors.New("dice client is not configured")
		}

		uri := CharacterListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		characters, err := dice.Characters(runCtx)
		if err != nil {
			return nil, fmt.Errorf("character list failed: %w", err)
		}
		payload := CharacterListPayload{Characters: make([]CharacterEntry, 0, len(characters))}
		for _, c := range characters {
			payload.Characters = append(payload.Characters, CharacterEntry{
				ID:        c.ID,
				Name:      c.Name,
				Clan:      c.Clan,
				Hunger:    c.Tracks.Hunger.Dots,
				Willpower: c.Tracks.Willpower.Unspent(),
				Health:    c.Tracks.Health.Unspent(),
				Humanity:  c.Tracks.Humanity.Current(),
				Stains:    c.Tracks.Humanity.Stains(),
			})
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal character list: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

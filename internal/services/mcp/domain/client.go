package domain

import (
	"context"
	"time"

	"github.com/louisbranch/bloodroll/internal/platform/timeouts"
	"github.com/louisbranch/bloodroll/internal/services/dice/client"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
)

// callTimeout caps reads and cheap writes; rollTimeout leaves room for the
// physics tray to settle.
const (
	callTimeout = timeouts.Request
	rollTimeout = 30 * time.Second
)

// DiceClient is the slice of the dice daemon API the tools use.
type DiceClient interface {
	Characters(ctx context.Context) ([]client.Character, error)
	Select(ctx context.Context, characterID string, state pool.ComposerState) (client.Selection, error)
	Roll(ctx context.Context, characterID, kind string, difficulty *int) (overlay.Resolution, error)
	Toggle(ctx context.Context, characterID string, index int) ([]int, error)
	Reroll(ctx context.Context, characterID string) (overlay.Resolution, error)
	Wipe(ctx context.Context, characterID string) error
	ListRolls(ctx context.Context, params client.ListRollsParams) (client.RollList, error)
}

var _ DiceClient = (*client.Client)(nil)

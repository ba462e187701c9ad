package effects

import (
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// Kind names what produced an outcome.
type Kind string

const (
	KindPool    Kind = "pool"
	KindRouse   Kind = "rouse"
	KindRemorse Kind = "remorse"
	KindFrenzy  Kind = "frenzy"
	KindReroll  Kind = "reroll"
)

// ParseKind maps a request string to a Kind. Empty means a composed pool.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case "", KindPool:
		return KindPool, true
	case KindRouse, KindRemorse, KindFrenzy:
		return Kind(s), true
	}
	return "", false
}

// Die is one settled die of a batch. Face is normalized to 1–10.
type Die struct {
	Index    int              `json:"index"`
	Category resolve.Category `json:"category"`
	Face     int              `json:"face"`
}

// Outcome is a resolved roll ready for side effects.
type Outcome struct {
	CharacterID   string          `json:"character_id"`
	CharacterName string          `json:"character_name"`
	Kind          Kind            `json:"kind"`
	Label         string          `json:"label,omitempty"`
	Pool          pool.DicePool   `json:"pool"`
	Dice          []Die           `json:"dice"`
	Core          *resolve.Result `json:"core,omitempty"`
	Rouse         resolve.Test    `json:"rouse"`
	Remorse       resolve.Test    `json:"remorse"`
	Frenzy        resolve.Test    `json:"frenzy"`
	BloodSurge    bool            `json:"blood_surge,omitempty"`
	RouseRerolled bool            `json:"rouse_rerolled,omitempty"`
	RolledAt      time.Time       `json:"rolled_at"`
}

// Faces returns the faces of every die in a category, in batch order.
func (o Outcome) Faces(category resolve.Category) []int {
	var out []int
	for _, d := range o.Dice {
		if d.Category == category {
			out = append(out, d.Face)
		}
	}
	return out
}

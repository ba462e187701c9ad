// Package pool composes Vampire: The Masquerade dice pools from sheet
// values and the player's current selections.
//
// Compose is pure: the same ComposerState, trait values and catalog always
// yield the same DicePool.
package pool

import (
	"fmt"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

// MaxHungerDice caps how many Hunger dice a pool can hold.
const MaxHungerDice = 5

// ImpairmentPenalty is removed from a pool for each impaired track that
// applies.
const ImpairmentPenalty = 2

// DicePool is a request to roll: one count per die category.
type DicePool struct {
	Standard int `json:"standard"`
	Hunger   int `json:"hunger"`
	Rouse    int `json:"rouse"`
	Remorse  int `json:"remorse"`
	Frenzy   int `json:"frenzy"`
}

// Empty reports whether the pool has no dice at all.
func (p DicePool) Empty() bool {
	return p.Standard == 0 && p.Hunger == 0 && p.Rouse == 0 && p.Remorse == 0 && p.Frenzy == 0
}

// HasCore reports whether the pool has Standard or Hunger dice, the dice
// that are scored for successes and can open a reroll.
func (p DicePool) HasCore() bool {
	return p.Standard > 0 || p.Hunger > 0
}

// Valid reports whether every count is non-negative.
func (p DicePool) Valid() bool {
	return p.Standard >= 0 && p.Hunger >= 0 && p.Rouse >= 0 && p.Remorse >= 0 && p.Frenzy >= 0
}

func (p DicePool) String() string {
	return fmt.Sprintf("standard=%d hunger=%d rouse=%d remorse=%d frenzy=%d",
		p.Standard, p.Hunger, p.Rouse, p.Remorse, p.Frenzy)
}

// SplitHunger divides total dice into Hunger and Standard dice. Hunger dice
// come out of the total first, capped at MaxHungerDice.
func SplitHunger(total, hungerDots int) (standard, hunger int) {
	if total < 0 {
		total = 0
	}
	if hungerDots < 0 {
		hungerDots = 0
	}
	hunger = min(MaxHungerDice, min(hungerDots, total))
	return total - hunger, hunger
}

// QuickRouse is the pool of a standalone Rouse Check.
func QuickRouse() DicePool {
	return DicePool{Rouse: 1}
}

// QuickRemorse is the pool of a Remorse Check: one die per unmarked
// Humanity box, at least one.
func QuickRemorse(humanity tracks.Humanity) DicePool {
	return DicePool{Remorse: max(1, humanity.Unmarked())}
}

// QuickFrenzy is the pool of a Frenzy Check: unspent Willpower plus a third
// of current Humanity, at least one.
func QuickFrenzy(willpower tracks.Boxes, humanity tracks.Humanity) DicePool {
	return DicePool{Frenzy: max(1, willpower.Unspent()+humanity.Current()/3)}
}

// Package dice rolls groups of dice from a caller-owned random source
// shared by the game systems. Rolls are plain integers; systems interpret them.
package dice

import "errors"

var (
	// ErrMissingDice indicates a roll request had no dice specified.
	ErrMissingDice = errors.New("at least one die must be provided")
	// ErrInvalidDiceSpec indicates a die specification has invalid fields.
	ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")
)

// Source is the randomness provider for dice rolls. *rand.Rand satisfies it.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Sides int
	Count int
}

// Roll captures the results for a single dice spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result captures the results from rolling multiple dice.
type Result struct {
	Rolls []Roll
	Total int
}

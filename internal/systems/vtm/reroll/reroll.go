// Package reroll tracks the Willpower reroll available after a roll.
//
// A Session is opened once the dice of a roll have settled. The player
// selects up to three Standard dice and spends one Willpower to reroll them.
// The session ends when the reroll is consumed, a new roll starts, or the
// overlay is wiped.
package reroll

import (
	"errors"
	"slices"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

// MaxSelection is the number of dice a single reroll can target.
const MaxSelection = 3

var (
	ErrNoSession             = errors.New("nothing to reroll")
	ErrNothingSelected       = errors.New("select up to 3 dice first")
	ErrInsufficientWillpower = errors.New("no willpower left to spend")
	ErrBloodSurge            = errors.New("blood surge rolls cannot be rerolled")
	ErrNotSelectable         = errors.New("only standard dice can be rerolled")
)

// Session is an open reroll offer. A nil *Session is a closed one.
type Session struct {
	categories []resolve.Category
	selected   []int
	consumed   bool
}

// Open starts a session for a settled batch. It returns nil when the batch
// has no Standard or Hunger dice or was rolled with Blood Surge.
func Open(categories []resolve.Category, bloodSurge bool) *Session {
	if bloodSurge {
		return nil
	}
	if !slices.ContainsFunc(categories, resolve.Category.Core) {
		return nil
	}
	return &Session{categories: slices.Clone(categories)}
}

// Toggle flips the selection of the die at index and reports whether it is
// selected afterwards. Adding past MaxSelection leaves the selection
// unchanged.
func (s *Session) Toggle(index int) (bool, error) {
	if !s.open() {
		return false, ErrNoSession
	}
	if index < 0 || index >= len(s.categories) || s.categories[index] != resolve.Standard {
		return false, ErrNotSelectable
	}
	if i := slices.Index(s.selected, index); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return false, nil
	}
	if len(s.selected) >= MaxSelection {
		return false, nil
	}
	s.selected = append(s.selected, index)
	slices.Sort(s.selected)
	return true, nil
}

// Selected returns the selected die indices in ascending order.
func (s *Session) Selected() []int {
	if s == nil {
		return nil
	}
	return slices.Clone(s.selected)
}

// Eligible reports why a reroll cannot be taken now, or nil.
func (s *Session) Eligible(willpower tracks.Boxes) error {
	switch {
	case !s.open():
		return ErrNoSession
	case len(s.selected) == 0:
		return ErrNothingSelected
	case !willpower.CanSpend():
		return ErrInsufficientWillpower
	}
	return nil
}

// Plan is a consumed reroll: the dice to replace and the Willpower track
// after paying for them.
type Plan struct {
	Indices   []int
	Willpower tracks.Boxes
}

// Consume spends one Willpower and closes the session. On refusal nothing
// changes.
func (s *Session) Consume(willpower tracks.Boxes) (Plan, error) {
	if err := s.Eligible(willpower); err != nil {
		return Plan{}, err
	}
	next, ok := willpower.Spend()
	if !ok {
		return Plan{}, ErrInsufficientWillpower
	}
	plan := Plan{Indices: slices.Clone(s.selected), Willpower: next}
	s.selected = nil
	s.consumed = true
	return plan, nil
}

// Active reports whether the session still accepts selections.
func (s *Session) Active() bool {
	return s.open()
}

func (s *Session) open() bool {
	return s != nil && !s.consumed
}

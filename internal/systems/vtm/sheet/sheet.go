package sheet

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/content"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/reroll"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

var (
	_ pool.TraitValueProvider = (*Sheet)(nil)
	_ effects.TrackWriter     = (*Sheet)(nil)
)

// Sheet is a live character sheet. It is safe for concurrent use.
type Sheet struct {
	mu          sync.RWMutex
	c           Character
	attributes  map[string]int
	skills      map[string]int
	disciplines map[string]int
}

// New wraps a normalized character.
func New(c Character) *Sheet {
	s := &Sheet{c: clone(c)}
	s.attributes = foldMap(c.Attributes)
	s.skills = foldMap(c.Skills)
	s.disciplines = foldMap(c.Disciplines)
	return s
}

// ID returns the character id.
func (s *Sheet) ID() string {
	return s.c.ID
}

// Name returns the display name.
func (s *Sheet) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Name
}

// Character returns a copy of the current sheet.
func (s *Sheet) Character() Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.c)
}

// Tracks returns the current track state.
func (s *Sheet) Tracks() tracks.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tracks.State{
		Hunger:    tracks.NewHunger(s.c.Hunger),
		Health:    slices.Clone(s.c.Health),
		Willpower: slices.Clone(s.c.Willpower),
		Humanity:  slices.Clone(s.c.Humanity),
	}
}

// Selection returns the stored composer selection.
func (s *Sheet) Selection() pool.ComposerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Selection
}

// SetSelection replaces the composer selection.
func (s *Sheet) SetSelection(state pool.ComposerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Selection = state
}

// Specialties returns the specialties listed under a skill.
func (s *Sheet) Specialties(skill string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, list := range s.c.Specialties {
		if content.Key(name) == content.Key(skill) {
			return slices.Clone(list)
		}
	}
	return nil
}

func (s *Sheet) Attribute(name string) int  { return s.attributes[content.Key(name)] }
func (s *Sheet) Skill(name string) int      { return s.skills[content.Key(name)] }
func (s *Sheet) Discipline(name string) int { return s.disciplines[content.Key(name)] }

func (s *Sheet) BloodPotency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.BloodPotency
}

func (s *Sheet) HungerDots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Hunger
}

// TrackValue reports unspent Health and Willpower boxes and current
// Humanity.
func (s *Sheet) TrackValue(track pool.Track) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch track {
	case pool.TrackHealth:
		return s.c.Health.Unspent()
	case pool.TrackWillpower:
		return s.c.Willpower.Unspent()
	case pool.TrackHumanity:
		return s.c.Humanity.Current()
	}
	return 0
}

// Impaired derives impairment from the tracks.
func (s *Sheet) Impaired(kind pool.Impairment) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case pool.ImpairedHealth:
		return s.c.Health.Impaired()
	case pool.ImpairedWillpower:
		return s.c.Willpower.Impaired()
	case pool.ImpairedHumanity:
		return s.c.Humanity.Impaired()
	}
	return false
}

func (s *Sheet) IncrementHunger(context.Context) (tracks.Hunger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := tracks.NewHunger(s.c.Hunger).Increment()
	s.c.Hunger = next.Dots
	return next, nil
}

func (s *Sheet) ClearStains(context.Context) (tracks.Humanity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Humanity = s.c.Humanity.ClearStains()
	return slices.Clone(s.c.Humanity), nil
}

func (s *Sheet) RemoveHumanity(context.Context) (tracks.Humanity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Humanity = s.c.Humanity.RemoveHighestFilled()
	return slices.Clone(s.c.Humanity), nil
}

// SpendWillpower marks one point of Willpower damage.
func (s *Sheet) SpendWillpower(context.Context) (tracks.Boxes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.c.Willpower.Spend()
	if !ok {
		return slices.Clone(s.c.Willpower), reroll.ErrInsufficientWillpower
	}
	s.c.Willpower = next
	return slices.Clone(next), nil
}

func foldMap(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[content.Key(k)] = v
	}
	return out
}

func clone(c Character) Character {
	c.Attributes = maps.Clone(c.Attributes)
	c.Skills = maps.Clone(c.Skills)
	c.Disciplines = maps.Clone(c.Disciplines)
	if c.Specialties != nil {
		specialties := make(map[string][]string, len(c.Specialties))
		for k, v := range c.Specialties {
			specialties[k] = slices.Clone(v)
		}
		c.Specialties = specialties
	}
	c.Health = slices.Clone(c.Health)
	c.Willpower = slices.Clone(c.Willpower)
	c.Humanity = slices.Clone(c.Humanity)
	return c
}

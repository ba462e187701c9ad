package pool

import (
	"slices"
	"strings"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/content"
)

// ComposerState is the player's selection for the next roll. It is owned by
// the caller and threaded through Compose.
type ComposerState struct {
	// First must be an Attribute.
	First string `json:"first" yaml:"first"`
	// Second may be an Attribute, Skill or Discipline.
	Second string `json:"second" yaml:"second"`
	// Specialty names the trait a selected specialty belongs to; it adds a
	// die when it matches Second.
	Specialty   string `json:"specialty,omitempty" yaml:"specialty,omitempty"`
	Power       string `json:"power,omitempty" yaml:"power,omitempty"`
	BloodSurge  bool   `json:"blood_surge,omitempty" yaml:"blood_surge,omitempty"`
	Resonance   string `json:"resonance,omitempty" yaml:"resonance,omitempty"`
	Temperament string `json:"temperament,omitempty" yaml:"temperament,omitempty"`

	// LastRollHadBloodSurge is set by Compose and read by the reroll gate.
	LastRollHadBloodSurge bool `json:"last_roll_had_blood_surge,omitempty" yaml:"-"`
}

// Result is a composed pool plus the flags that travel with the roll.
type Result struct {
	Pool        DicePool       `json:"pool"`
	BloodSurge  bool           `json:"blood_surge"`
	RouseReroll bool           `json:"rouse_reroll"`
	Power       *content.Power `json:"power,omitempty"`
	Label       string         `json:"label"`
	State       ComposerState  `json:"state"`
}

// Compose turns the selection into a dice pool. ok is false when no trait
// is selected; the caller must not roll.
func Compose(state ComposerState, traits TraitValueProvider, catalog *content.Catalog) (result Result, ok bool) {
	first := strings.TrimSpace(state.First)
	second := strings.TrimSpace(state.Second)
	if first == "" && second == "" {
		return Result{State: state}, false
	}
	if first != "" && !catalog.IsAttribute(first) {
		return Result{State: state}, false
	}

	total := traitValue(first, traits, catalog) + traitValue(second, traits, catalog)
	if state.Specialty != "" && second != "" && content.Key(state.Specialty) == content.Key(second) {
		total++
	}

	total -= impairmentPenalty(first, second, traits, catalog)
	if total < 0 {
		total = 0
	}

	secondDiscipline, isDiscipline := catalog.DisciplineKey(second)
	if isDiscipline && catalog.BonusTemperament(state.Temperament) &&
		slices.Contains(catalog.ResonanceDisciplines(state.Resonance), secondDiscipline) {
		total++
	}

	potency := catalog.Potency(traits.BloodPotency())
	if isDiscipline {
		total += potency.DisciplineBonus
	}

	standard, hunger := SplitHunger(total, traits.HungerDots())
	pool := DicePool{Standard: standard, Hunger: hunger}

	var power *content.Power
	if state.Power != "" {
		if p, found := catalog.Power(state.Power); found {
			power = &p
			pool.Rouse = RouseChecks(p.Cost)
		}
	}

	surge := false
	if state.BloodSurge && pool.Remorse == 0 && pool.Frenzy == 0 {
		pool.Standard += potency.Surge
		pool.Rouse = max(pool.Rouse, 1)
		surge = true
	}

	state.LastRollHadBloodSurge = surge
	return Result{
		Pool:        pool,
		BloodSurge:  surge,
		RouseReroll: power != nil && power.Level > 0 && power.Level <= potency.RouseReroll,
		Power:       power,
		Label:       label(first, second, state.Specialty, catalog),
		State:       state,
	}, true
}

func traitValue(name string, traits TraitValueProvider, catalog *content.Catalog) int {
	switch {
	case name == "":
		return 0
	case catalog.IsAttribute(name):
		return traits.Attribute(name)
	case catalog.IsSkill(name):
		return traits.Skill(name)
	default:
		if display, ok := catalog.Discipline(name); ok {
			return traits.Discipline(display)
		}
		return 0
	}
}

func impairmentPenalty(first, second string, traits TraitValueProvider, catalog *content.Catalog) int {
	physical, socialMental := false, false
	for _, name := range []string{first, second} {
		category, ok := catalog.AttributeCategory(name)
		if !ok {
			continue
		}
		switch category {
		case content.CategoryPhysical:
			physical = true
		case content.CategorySocial, content.CategoryMental:
			socialMental = true
		}
	}

	penalty := 0
	if physical && traits.Impaired(ImpairedHealth) {
		penalty += ImpairmentPenalty
	}
	if socialMental && traits.Impaired(ImpairedWillpower) {
		penalty += ImpairmentPenalty
	}
	if traits.Impaired(ImpairedHumanity) {
		penalty += ImpairmentPenalty
	}
	return penalty
}

func label(first, second, specialty string, catalog *content.Catalog) string {
	parts := make([]string, 0, 2)
	if first != "" {
		parts = append(parts, first)
	}
	if second != "" {
		if display, ok := catalog.Discipline(second); ok {
			second = display
		}
		parts = append(parts, second)
	}
	out := strings.Join(parts, " + ")
	if specialty != "" && second != "" && content.Key(specialty) == content.Key(second) {
		out += " (specialty)"
	}
	return out
}

// Package content holds the static Vampire: The Masquerade reference data
// the dice engine consults: trait categories, Discipline powers, Resonances
// and the Blood Potency table.
package content

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed vtm.yaml
var embedded []byte

// Category groups attributes and skills.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategorySocial   Category = "social"
	CategoryMental   Category = "mental"
)

// Power is one Discipline power with its activation cost and dice pool text.
type Power struct {
	Key        string `yaml:"key" json:"key"`
	Discipline string `yaml:"discipline" json:"discipline"`
	Name       string `yaml:"name" json:"name"`
	Level      int    `yaml:"level" json:"level"`
	Cost       string `yaml:"cost" json:"cost"`
	Pool       string `yaml:"pool" json:"pool,omitempty"`
}

// PotencyLevel is one row of the Blood Potency table.
type PotencyLevel struct {
	Level           int `yaml:"level"`
	Surge           int `yaml:"surge"`
	DisciplineBonus int `yaml:"discipline_bonus"`
	RouseReroll     int `yaml:"rouse_reroll"`
}

type document struct {
	Attributes        map[Category][]string `yaml:"attributes"`
	Skills            map[Category][]string `yaml:"skills"`
	Disciplines       map[string]string     `yaml:"disciplines"`
	Powers            []Power               `yaml:"powers"`
	Resonances        map[string][]string   `yaml:"resonances"`
	BonusTemperaments []string              `yaml:"bonus_temperaments"`
	BloodPotency      []PotencyLevel        `yaml:"blood_potency"`
}

// Catalog is the read-only reference data. The zero value is empty; use
// Default or Parse.
type Catalog struct {
	attributes  map[string]Category
	skills      map[string]Category
	disciplines map[string]string
	powers      map[string]Power
	resonances  map[string][]string
	temperament map[string]bool
	potency     []PotencyLevel
}

var fold = cases.Fold()

// Key folds a trait or table name for case-insensitive lookups.
func Key(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return fold.String(strings.Join(strings.Fields(name), " "))
}

// Default returns the embedded catalog. It panics if the embedded document
// is malformed, which is a build defect.
func Default() *Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("content: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a YAML reference document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	c := &Catalog{
		attributes:  map[string]Category{},
		skills:      map[string]Category{},
		disciplines: map[string]string{},
		powers:      map[string]Power{},
		resonances:  map[string][]string{},
		temperament: map[string]bool{},
	}
	for category, names := range doc.Attributes {
		for _, name := range names {
			c.attributes[Key(name)] = category
		}
	}
	for category, names := range doc.Skills {
		for _, name := range names {
			c.skills[Key(name)] = category
		}
	}
	for key, name := range doc.Disciplines {
		c.disciplines[Key(key)] = name
		c.disciplines[Key(name)] = name
	}
	for _, power := range doc.Powers {
		if strings.TrimSpace(power.Key) == "" {
			return nil, fmt.Errorf("power %q has no key", power.Name)
		}
		c.powers[Key(power.Key)] = power
	}
	for resonance, disciplines := range doc.Resonances {
		folded := make([]string, 0, len(disciplines))
		for _, d := range disciplines {
			folded = append(folded, Key(d))
		}
		c.resonances[Key(resonance)] = folded
	}
	for _, t := range doc.BonusTemperaments {
		c.temperament[Key(t)] = true
	}
	c.potency = append(c.potency, doc.BloodPotency...)
	sort.Slice(c.potency, func(i, j int) bool { return c.potency[i].Level < c.potency[j].Level })
	return c, nil
}

// AttributeCategory returns the category of an attribute name.
func (c *Catalog) AttributeCategory(name string) (Category, bool) {
	category, ok := c.attributes[Key(name)]
	return category, ok
}

// SkillCategory returns the category of a skill name.
func (c *Catalog) SkillCategory(name string) (Category, bool) {
	category, ok := c.skills[Key(name)]
	return category, ok
}

// IsAttribute reports whether name is a known attribute.
func (c *Catalog) IsAttribute(name string) bool {
	_, ok := c.AttributeCategory(name)
	return ok
}

// IsSkill reports whether name is a known skill.
func (c *Catalog) IsSkill(name string) bool {
	_, ok := c.SkillCategory(name)
	return ok
}

// Discipline resolves a Discipline key or display name to its display name.
func (c *Catalog) Discipline(name string) (string, bool) {
	display, ok := c.disciplines[Key(name)]
	return display, ok
}

// DisciplineKey resolves a Discipline key or display name to its folded key.
func (c *Catalog) DisciplineKey(name string) (string, bool) {
	display, ok := c.Discipline(name)
	if !ok {
		return "", false
	}
	return Key(display), true
}

// Power looks a Discipline power up by key.
func (c *Catalog) Power(key string) (Power, bool) {
	power, ok := c.powers[Key(key)]
	return power, ok
}

// Powers returns every power of a Discipline ordered by level then name.
func (c *Catalog) Powers(discipline string) []Power {
	key, ok := c.DisciplineKey(discipline)
	if !ok {
		return nil
	}
	var out []Power
	for _, p := range c.powers {
		if pk, ok := c.DisciplineKey(p.Discipline); ok && pk == key {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ResonanceDisciplines returns the folded Discipline keys a Resonance favours.
func (c *Catalog) ResonanceDisciplines(resonance string) []string {
	return c.resonances[Key(resonance)]
}

// BonusTemperament reports whether a temperament grants the Resonance bonus.
func (c *Catalog) BonusTemperament(temperament string) bool {
	return c.temperament[Key(temperament)]
}

// Potency returns the Blood Potency row for level. Levels past the table
// use the last row; negative levels use the first.
func (c *Catalog) Potency(level int) PotencyLevel {
	if len(c.potency) == 0 {
		return PotencyLevel{Level: level}
	}
	if level <= c.potency[0].Level {
		return c.potency[0]
	}
	for _, row := range c.potency {
		if row.Level == level {
			return row
		}
	}
	return c.potency[len(c.potency)-1]
}

// Package sheet holds the character sheets the dice engine reads from and
// writes track changes back to.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
	"gopkg.in/yaml.v3"
)

var (
	// ErrIDRequired indicates a sheet without an id.
	ErrIDRequired = errors.New("character id is required")
	// ErrNameRequired indicates a sheet without a display name.
	ErrNameRequired = errors.New("character name is required")
)

const defaultHumanity = 7

// Character is a sheet as stored on disk.
type Character struct {
	ID           string              `yaml:"id" json:"id"`
	Name         string              `yaml:"name" json:"name"`
	Clan         string              `yaml:"clan,omitempty" json:"clan,omitempty"`
	BloodPotency int                 `yaml:"blood_potency" json:"blood_potency"`
	Hunger       int                 `yaml:"hunger" json:"hunger"`
	Attributes   map[string]int      `yaml:"attributes" json:"attributes"`
	Skills       map[string]int      `yaml:"skills,omitempty" json:"skills,omitempty"`
	Specialties  map[string][]string `yaml:"specialties,omitempty" json:"specialties,omitempty"`
	Disciplines  map[string]int      `yaml:"disciplines,omitempty" json:"disciplines,omitempty"`
	Health       tracks.Boxes        `yaml:"health,omitempty" json:"health"`
	Willpower    tracks.Boxes        `yaml:"willpower,omitempty" json:"willpower"`
	Humanity     tracks.Humanity     `yaml:"humanity,omitempty" json:"humanity"`
	Selection    pool.ComposerState  `yaml:"selection,omitempty" json:"selection"`
}

// Normalize fills derived tracks and clamps values into range. Health is
// Stamina + 3 boxes and Willpower is Composure + Resolve boxes when the
// sheet does not list them.
func (c *Character) Normalize() error {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" {
		return ErrIDRequired
	}
	if c.Name == "" {
		return ErrNameRequired
	}

	c.Hunger = tracks.NewHunger(c.Hunger).Dots
	c.BloodPotency = max(0, c.BloodPotency)

	attr := foldMap(c.Attributes)
	if len(c.Health) == 0 {
		c.Health = tracks.NewBoxes(attr["stamina"] + 3)
	}
	if len(c.Willpower) == 0 {
		c.Willpower = tracks.NewBoxes(attr["composure"] + attr["resolve"])
	}
	switch {
	case len(c.Humanity) == 0:
		c.Humanity = tracks.NewHumanity(defaultHumanity)
	case len(c.Humanity) != tracks.HumanityMax:
		return fmt.Errorf("humanity must have %d boxes, got %d", tracks.HumanityMax, len(c.Humanity))
	}
	return nil
}

// Decode reads one YAML sheet.
func Decode(r io.Reader) (Character, error) {
	var c Character
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return Character{}, fmt.Errorf("decode sheet: %w", err)
	}
	if err := c.Normalize(); err != nil {
		return Character{}, err
	}
	return c, nil
}

// Encode writes one YAML sheet.
func Encode(w io.Writer, c Character) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode sheet: %w", err)
	}
	return enc.Close()
}

// LoadDir reads every .yaml or .yml file at the root of fsys.
func LoadDir(fsys fs.FS) ([]Character, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read sheets: %w", err)
	}

	var out []Character
	seen := map[string]string{}
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		f, err := fsys.Open(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", entry.Name(), err)
		}
		c, err := Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if other, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%s: character id %q already used by %s", entry.Name(), c.ID, other)
		}
		seen[c.ID] = entry.Name()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

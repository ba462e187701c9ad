package effects

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// Summary is the structured roll summary handed to notifiers.
type Summary struct {
	ID          string        `json:"id,omitempty"`
	CharacterID string        `json:"character_id"`
	Character   string        `json:"character"`
	Kind        Kind          `json:"kind"`
	Label       string        `json:"label,omitempty"`
	Pool        pool.DicePool `json:"pool"`
	Headline    string        `json:"headline"`
	Lines       []string      `json:"lines"`
	Successes   int           `json:"successes"`
	Critical    bool          `json:"critical,omitempty"`
	Messy       bool          `json:"messy,omitempty"`
	Bestial     bool          `json:"bestial,omitempty"`
	BloodSurge  bool          `json:"blood_surge,omitempty"`
	At          time.Time     `json:"at"`
}

// Text joins the summary into a plain message.
func (s Summary) Text() string {
	var b strings.Builder
	b.WriteString(s.Character)
	if s.Label != "" {
		fmt.Fprintf(&b, " rolled %s", s.Label)
	} else {
		fmt.Fprintf(&b, " rolled %s", s.Kind)
	}
	for _, line := range s.Lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// Format builds the summary of an outcome. Pools that were not rolled get
// no line.
func Format(o Outcome) Summary {
	s := Summary{
		CharacterID: o.CharacterID,
		Character:   o.CharacterName,
		Kind:        o.Kind,
		Label:       o.Label,
		Pool:        o.Pool,
		BloodSurge:  o.BloodSurge,
		At:          o.RolledAt,
	}

	if o.Core != nil {
		s.Successes = o.Core.Successes
		s.Critical = o.Core.Critical()
		s.Messy = o.Core.Messy
		s.Bestial = o.Core.Bestial
		s.Headline = o.Core.Headline()
		s.Lines = append(s.Lines, fmt.Sprintf("Dice: %s | Hunger: %s",
			faces(o.Faces(resolve.Standard)), faces(o.Faces(resolve.Hunger))))
		s.Lines = append(s.Lines, "Result: "+s.Headline)
	}
	if o.BloodSurge {
		s.Lines = append(s.Lines, "Blood Surge")
	}
	for _, t := range []struct {
		name     string
		category resolve.Category
		test     resolve.Test
	}{
		{"Rouse", resolve.Rouse, o.Rouse},
		{"Remorse", resolve.Remorse, o.Remorse},
		{"Frenzy", resolve.Frenzy, o.Frenzy},
	} {
		if !t.test.Rolled {
			continue
		}
		line := fmt.Sprintf("%s: %s %s", t.name, faces(o.Faces(t.category)), t.test)
		if t.category == resolve.Rouse && o.RouseRerolled {
			line += " (rerolled)"
		}
		s.Lines = append(s.Lines, line)
		if s.Headline == "" {
			s.Headline = fmt.Sprintf("%s check %s", t.name, t.test)
		}
	}
	return s
}

func faces(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

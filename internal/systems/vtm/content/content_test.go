package content

import "testing"

func TestDefaultCatalogLookups(t *testing.T) {
	c := Default()

	if category, ok := c.AttributeCategory("strength"); !ok || category != CategoryPhysical {
		t.Fatalf("expected Strength to be physical, got %q (%v)", category, ok)
	}
	if category, ok := c.SkillCategory("ANIMAL KEN"); !ok || category != CategorySocial {
		t.Fatalf("expected Animal Ken to be social, got %q (%v)", category, ok)
	}
	if name, ok := c.Discipline("blood_sorcery"); !ok || name != "Blood Sorcery" {
		t.Fatalf("expected Blood Sorcery, got %q (%v)", name, ok)
	}
	if name, ok := c.Discipline("Thin-Blood Alchemy"); !ok || name != "Thin-Blood Alchemy" {
		t.Fatalf("expected Thin-Blood Alchemy, got %q (%v)", name, ok)
	}
	if c.IsAttribute("Auspex") {
		t.Fatal("expected Auspex not to be an attribute")
	}
}

func TestPowersOrderedByLevel(t *testing.T) {
	powers := Default().Powers("Dominate")
	if len(powers) != 3 {
		t.Fatalf("expected 3 dominate powers, got %d", len(powers))
	}
	for i := 1; i < len(powers); i++ {
		if powers[i-1].Level > powers[i].Level {
			t.Fatalf("expected ascending levels, got %d before %d", powers[i-1].Level, powers[i].Level)
		}
	}
}

func TestResonanceAndTemperament(t *testing.T) {
	c := Default()
	found := false
	for _, d := range c.ResonanceDisciplines("Sanguine") {
		if d == Key("Blood Sorcery") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected sanguine to favour blood sorcery")
	}
	if !c.BonusTemperament("Acute") || c.BonusTemperament("fleeting") {
		t.Fatal("unexpected temperament bonus table")
	}
}

func TestPotencyClampsToTable(t *testing.T) {
	c := Default()
	tests := []struct {
		level     int
		wantSurge int
		wantBonus int
	}{
		{-1, 1, 0},
		{0, 1, 0},
		{2, 2, 1},
		{5, 4, 2},
		{9, 4, 2},
	}
	for _, tt := range tests {
		row := c.Potency(tt.level)
		if row.Surge != tt.wantSurge || row.DisciplineBonus != tt.wantBonus {
			t.Errorf("Potency(%d) = %+v, want surge %d bonus %d", tt.level, row, tt.wantSurge, tt.wantBonus)
		}
	}
}

func TestParseRejectsPowerWithoutKey(t *testing.T) {
	_, err := Parse([]byte("powers:\n  - {name: Nameless}\n"))
	if err == nil {
		t.Fatal("expected error for power without key")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("attributes: [")); err == nil {
		t.Fatal("expected decode error")
	}
}

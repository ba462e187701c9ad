package sheet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/reroll"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

const adaYAML = `
id: ada
name: Ada
clan: Toreador
blood_potency: 2
hunger: 2
attributes:
  Strength: 3
  Stamina: 2
  Composure: 2
  Resolve: 3
skills:
  Brawl: 2
specialties:
  Brawl: [Grappling]
disciplines:
  Celerity: 2
willpower: [superficial, undamaged, undamaged]
humanity: [filled, filled, filled, filled, filled, filled, filled, stained, empty, empty]
`

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(adaYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.ID != "ada" || c.BloodPotency != 2 || c.Hunger != 2 {
		t.Fatalf("character = %+v", c)
	}
	if len(c.Health) != 5 {
		t.Fatalf("health boxes = %d, want stamina+3", len(c.Health))
	}
	if len(c.Willpower) != 3 || c.Willpower[0] != tracks.Superficial {
		t.Fatalf("willpower = %v", c.Willpower)
	}
	if c.Humanity.Current() != 7 || c.Humanity.Stains() != 1 {
		t.Fatalf("humanity = %v", c.Humanity)
	}
}

func TestDecodeDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader("id: bo\nname: Bo\nhunger: 9\nattributes: {Composure: 1, Resolve: 2}\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Hunger != tracks.HungerMax {
		t.Fatalf("hunger = %d, want clamped", c.Hunger)
	}
	if len(c.Willpower) != 3 || len(c.Health) != 3 {
		t.Fatalf("willpower = %d health = %d", len(c.Willpower), len(c.Health))
	}
	if c.Humanity.Current() != defaultHumanity {
		t.Fatalf("humanity = %d", c.Humanity.Current())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "missing id", in: "name: Bo\n", want: ErrIDRequired},
		{name: "missing name", in: "id: bo\n", want: ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.in)); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Decode(strings.NewReader("id: bo\nname: Bo\nhumanity: [filled]\n")); err == nil {
		t.Fatal("expected short humanity track rejected")
	}
	if _, err := Decode(strings.NewReader("id: bo\nname: Bo\nwillpower: [broken]\n")); err == nil {
		t.Fatal("expected unknown damage rejected")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	c, err := Decode(strings.NewReader(adaYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "- superficial") {
		t.Fatalf("encoded = %s", buf.String())
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode again: %v", err)
	}
	if again.Humanity.Stains() != 1 || again.Willpower[0] != tracks.Superficial {
		t.Fatalf("round trip = %+v", again)
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"ada.yaml":   {Data: []byte(adaYAML)},
		"bo.yml":     {Data: []byte("id: bo\nname: Bo\n")},
		"notes.txt":  {Data: []byte("ignored")},
		"sub/x.yaml": {Data: []byte("id: x\nname: X\n")},
	}
	characters, err := LoadDir(fsys)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(characters) != 2 || characters[0].ID != "ada" || characters[1].ID != "bo" {
		t.Fatalf("characters = %+v", characters)
	}

	fsys["copy.yaml"] = &fstest.MapFile{Data: []byte("id: bo\nname: Other\n")}
	if _, err := LoadDir(fsys); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestSheetProvider(t *testing.T) {
	c, _ := Decode(strings.NewReader(adaYAML))
	s := New(c)

	if s.Attribute("strength") != 3 || s.Skill("BRAWL") != 2 || s.Discipline("celerity") != 2 {
		t.Fatal("expected case-insensitive trait lookups")
	}
	if s.Attribute("Dexterity") != 0 {
		t.Fatal("expected unknown trait to read zero")
	}
	if s.HungerDots() != 2 || s.BloodPotency() != 2 {
		t.Fatal("unexpected hunger or potency")
	}
	if s.TrackValue(pool.TrackWillpower) != 2 || s.TrackValue(pool.TrackHumanity) != 7 || s.TrackValue(pool.TrackHealth) != 5 {
		t.Fatal("unexpected track values")
	}
	if s.Impaired(pool.ImpairedWillpower) || s.Impaired(pool.ImpairedHumanity) {
		t.Fatal("expected no impairment")
	}
	if got := s.Specialties("brawl"); len(got) != 1 || got[0] != "Grappling" {
		t.Fatalf("specialties = %v", got)
	}
}

func TestSheetWriter(t *testing.T) {
	c, _ := Decode(strings.NewReader(adaYAML))
	s := New(c)
	ctx := context.Background()

	if h, _ := s.IncrementHunger(ctx); h.Dots != 3 {
		t.Fatalf("hunger = %d", h.Dots)
	}
	if h, _ := s.ClearStains(ctx); h.Stains() != 0 {
		t.Fatal("expected stains cleared")
	}
	if h, _ := s.RemoveHumanity(ctx); h.Current() != 6 {
		t.Fatalf("humanity = %d", h.Current())
	}
	for i := 0; i < 5; i++ {
		if _, err := s.SpendWillpower(ctx); err != nil {
			t.Fatalf("spend %d: %v", i, err)
		}
	}
	if !s.Impaired(pool.ImpairedWillpower) {
		t.Fatal("expected willpower impaired")
	}
	if _, err := s.SpendWillpower(ctx); !errors.Is(err, reroll.ErrInsufficientWillpower) {
		t.Fatalf("err = %v", err)
	}

	snapshot := s.Character()
	snapshot.Attributes["Strength"] = 1
	if s.Attribute("Strength") != 3 {
		t.Fatal("expected Character to return a copy")
	}
}

func TestMemoryStore(t *testing.T) {
	ada, _ := Decode(strings.NewReader(adaYAML))
	store := NewMemoryStore(ada)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := store.Put(ctx, Character{ID: "bo", Name: "Bo"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, Character{ID: "x"}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v", err)
	}
	list := store.List(ctx)
	if len(list) != 2 || list[0].ID() != "ada" {
		t.Fatalf("list = %v", list)
	}
	s, err := store.Get(ctx, "ada")
	if err != nil || s.Name() != "Ada" {
		t.Fatalf("Get = %v, %v", s, err)
	}
}

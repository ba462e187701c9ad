package tracks

import "testing"

func TestHungerIncrementCaps(t *testing.T) {
	h := NewHunger(4)
	h = h.Increment()
	if h.Dots != 5 {
		t.Fatalf("expected 5 dots, got %d", h.Dots)
	}
	h = h.Increment()
	if h.Dots != 5 {
		t.Fatalf("expected hunger to stay capped at 5, got %d", h.Dots)
	}
}

func TestNewHungerClamps(t *testing.T) {
	if got := NewHunger(9).Dots; got != HungerMax {
		t.Fatalf("expected clamp to %d, got %d", HungerMax, got)
	}
	if got := NewHunger(-2).Dots; got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestBoxesSpendOrdering(t *testing.T) {
	tests := []struct {
		name   string
		boxes  Boxes
		want   Boxes
		wantOK bool
	}{
		{
			name:   "undamaged becomes superficial first",
			boxes:  Boxes{Superficial, Undamaged, Undamaged},
			want:   Boxes{Superficial, Superficial, Undamaged},
			wantOK: true,
		},
		{
			name:   "superficial becomes aggravated when nothing undamaged",
			boxes:  Boxes{Aggravated, Superficial, Superficial},
			want:   Boxes{Aggravated, Aggravated, Superficial},
			wantOK: true,
		},
		{
			name:   "refused when all aggravated",
			boxes:  Boxes{Aggravated, Aggravated},
			want:   Boxes{Aggravated, Aggravated},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.boxes.Spend()
			if ok != tt.wantOK {
				t.Fatalf("Spend() ok = %v, want %v", ok, tt.wantOK)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Spend() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Spend()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBoxesSpendDoesNotMutateInput(t *testing.T) {
	boxes := Boxes{Undamaged, Undamaged}
	_, _ = boxes.Spend()
	if boxes[0] != Undamaged {
		t.Fatal("expected input track to stay untouched")
	}
}

func TestBoxesCanSpend(t *testing.T) {
	if !(Boxes{Aggravated, Superficial}).CanSpend() {
		t.Fatal("expected superficial box to be spendable")
	}
	if (Boxes{Aggravated, Aggravated}).CanSpend() {
		t.Fatal("expected fully aggravated track to refuse")
	}
}

func TestBoxesImpaired(t *testing.T) {
	if (Boxes{}).Impaired() {
		t.Fatal("empty track must not be impaired")
	}
	if (Boxes{Superficial, Undamaged}).Impaired() {
		t.Fatal("track with undamaged box must not be impaired")
	}
	if !(Boxes{Superficial, Aggravated}).Impaired() {
		t.Fatal("fully damaged track must be impaired")
	}
}

func TestHumanityRemorseMutations(t *testing.T) {
	h := NewHumanity(7).Stain(2)
	if h.Current() != 7 || h.Stains() != 2 || h.Unmarked() != 1 {
		t.Fatalf("unexpected setup: current=%d stains=%d unmarked=%d", h.Current(), h.Stains(), h.Unmarked())
	}

	h = h.ClearStains()
	if h.Stains() != 0 {
		t.Fatalf("expected stains cleared, got %d", h.Stains())
	}

	h = h.RemoveHighestFilled()
	if h.Current() != 6 {
		t.Fatalf("expected humanity 6, got %d", h.Current())
	}
	if h[6] != Empty || h[5] != Filled {
		t.Fatalf("expected highest filled box removed, got %v", h)
	}
}

func TestHumanityImpaired(t *testing.T) {
	h := NewHumanity(8).Stain(2)
	if !h.Impaired() {
		t.Fatal("expected impairment when stains fill remaining boxes")
	}
	if NewHumanity(8).Stain(1).Impaired() {
		t.Fatal("expected no impairment with an unmarked box left")
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, d := range []Damage{Undamaged, Superficial, Aggravated} {
		text, err := d.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", d, err)
		}
		var got Damage
		if err := got.UnmarshalText(text); err != nil || got != d {
			t.Fatalf("UnmarshalText(%q) = %v, %v", text, got, err)
		}
	}
	var m Mark
	if err := m.UnmarshalText([]byte("stained")); err != nil || m != Stained {
		t.Fatalf("mark = %v, %v", m, err)
	}
	if err := m.UnmarshalText([]byte("bloody")); err == nil {
		t.Fatal("expected error for unknown mark")
	}
	if _, err := Damage(9).MarshalText(); err == nil {
		t.Fatal("expected error for invalid damage")
	}
}

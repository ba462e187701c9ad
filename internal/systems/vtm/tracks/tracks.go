// Package tracks models the character sheet tracks a dice roll reads and
// mutates: Hunger dots, Willpower and Health damage boxes, Humanity boxes.
//
// Values are plain structs; every mutation returns a new value so callers
// can decide when to commit.
package tracks

const (
	// HungerMax is the number of Hunger dots on a sheet.
	HungerMax = 5
	// HumanityMax is the number of Humanity boxes on a sheet.
	HumanityMax = 10
)

// Damage is the state of one Willpower or Health box.
type Damage int

const (
	Undamaged Damage = iota
	Superficial
	Aggravated
)

func (d Damage) String() string {
	switch d {
	case Undamaged:
		return "undamaged"
	case Superficial:
		return "superficial"
	case Aggravated:
		return "aggravated"
	default:
		return "unknown"
	}
}

// Mark is the state of one Humanity box.
type Mark int

const (
	Empty Mark = iota
	Filled
	Stained
)

func (m Mark) String() string {
	switch m {
	case Empty:
		return "empty"
	case Filled:
		return "filled"
	case Stained:
		return "stained"
	default:
		return "unknown"
	}
}

// Hunger is the Hunger dot track.
type Hunger struct {
	Dots int `json:"dots"`
	Max  int `json:"max"`
}

// NewHunger returns a Hunger track clamped to [0, HungerMax].
func NewHunger(dots int) Hunger {
	return Hunger{Dots: clamp(dots, 0, HungerMax), Max: HungerMax}
}

// Increment adds one dot. At the cap it is a silent no-op.
func (h Hunger) Increment() Hunger {
	limit := h.Max
	if limit <= 0 {
		limit = HungerMax
	}
	if h.Dots < limit {
		h.Dots++
	}
	return h
}

// Boxes is a damage track (Willpower or Health).
type Boxes []Damage

// NewBoxes returns total undamaged boxes.
func NewBoxes(total int) Boxes {
	if total < 0 {
		total = 0
	}
	return make(Boxes, total)
}

// Count returns how many boxes are in the given state.
func (b Boxes) Count(state Damage) int {
	n := 0
	for _, box := range b {
		if box == state {
			n++
		}
	}
	return n
}

// Unspent returns the number of undamaged boxes.
func (b Boxes) Unspent() int {
	return b.Count(Undamaged)
}

// Impaired reports whether every box carries damage. An empty track is
// never impaired.
func (b Boxes) Impaired() bool {
	return len(b) > 0 && b.Unspent() == 0
}

// CanSpend reports whether at least one box is not aggravated.
func (b Boxes) CanSpend() bool {
	return b.Count(Aggravated) < len(b)
}

// Spend marks one point of damage: the leftmost undamaged box becomes
// superficial, otherwise the leftmost superficial box becomes aggravated.
// ok is false when every box is already aggravated; the track is unchanged.
func (b Boxes) Spend() (next Boxes, ok bool) {
	next = append(Boxes(nil), b...)
	for i, box := range next {
		if box == Undamaged {
			next[i] = Superficial
			return next, true
		}
	}
	for i, box := range next {
		if box == Superficial {
			next[i] = Aggravated
			return next, true
		}
	}
	return b, false
}

// Humanity is the Humanity box track.
type Humanity []Mark

// NewHumanity returns a track with the first current boxes filled.
func NewHumanity(current int) Humanity {
	h := make(Humanity, HumanityMax)
	current = clamp(current, 0, HumanityMax)
	for i := 0; i < current; i++ {
		h[i] = Filled
	}
	return h
}

// Current returns the number of filled boxes.
func (h Humanity) Current() int {
	return h.count(Filled)
}

// Stains returns the number of stained boxes.
func (h Humanity) Stains() int {
	return h.count(Stained)
}

// Unmarked returns total boxes minus filled minus stained.
func (h Humanity) Unmarked() int {
	return len(h) - h.Current() - h.Stains()
}

// Impaired reports whether stains have consumed every unfilled box.
func (h Humanity) Impaired() bool {
	return h.Stains() > 0 && h.Unmarked() == 0
}

// ClearStains empties every stained box.
func (h Humanity) ClearStains() Humanity {
	next := append(Humanity(nil), h...)
	for i, mark := range next {
		if mark == Stained {
			next[i] = Empty
		}
	}
	return next
}

// RemoveHighestFilled empties the highest-index filled box. With no filled
// box the track is returned unchanged.
func (h Humanity) RemoveHighestFilled() Humanity {
	next := append(Humanity(nil), h...)
	for i := len(next) - 1; i >= 0; i-- {
		if next[i] == Filled {
			next[i] = Empty
			return next
		}
	}
	return next
}

// Stain marks n empty boxes as stained, starting from the highest index.
// Stains that find no empty box are dropped.
func (h Humanity) Stain(n int) Humanity {
	next := append(Humanity(nil), h...)
	for i := len(next) - 1; i >= 0 && n > 0; i-- {
		if next[i] == Empty {
			next[i] = Stained
			n--
		}
	}
	return next
}

func (h Humanity) count(mark Mark) int {
	n := 0
	for _, m := range h {
		if m == mark {
			n++
		}
	}
	return n
}

// State groups the tracks a roll consults.
type State struct {
	Hunger    Hunger   `json:"hunger"`
	Health    Boxes    `json:"health"`
	Willpower Boxes    `json:"willpower"`
	Humanity  Humanity `json:"humanity"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

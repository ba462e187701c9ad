package resolve

import (
	"errors"
	"testing"
)

func cats(standard, hunger int) []Category {
	out := make([]Category, 0, standard+hunger)
	for i := 0; i < standard; i++ {
		out = append(out, Standard)
	}
	for i := 0; i < hunger; i++ {
		out = append(out, Hunger)
	}
	return out
}

func TestNormalize(t *testing.T) {
	if Normalize(0) != 10 {
		t.Fatalf("Normalize(0) = %d, want 10", Normalize(0))
	}
	for v := 1; v <= 10; v++ {
		if Normalize(v) != v {
			t.Fatalf("Normalize(%d) = %d", v, Normalize(v))
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		values     []int
		categories []Category
		want       Result
	}{
		{
			name:       "scenario A",
			values:     []int{6, 6, 10, 1, 3},
			categories: cats(3, 2),
			want:       Result{Successes: 4},
		},
		{
			name:       "scenario B bestial",
			values:     []int{2, 3, 4, 1, 1},
			categories: cats(3, 2),
			want:       Result{Bestial: true},
		},
		{
			name:       "plain failure",
			values:     []int{2, 3, 4, 5},
			categories: cats(2, 2),
			want:       Result{},
		},
		{
			name:       "hunger one with successes is not bestial",
			values:     []int{7, 1},
			categories: cats(1, 1),
			want:       Result{Successes: 1},
		},
		{
			name:       "standard one is not bestial",
			values:     []int{1, 2},
			categories: cats(1, 1),
			want:       Result{},
		},
		{
			name:       "clean critical",
			values:     []int{10, 10, 3},
			categories: cats(2, 1),
			want:       Result{Successes: 4, CriticalPairs: 1},
		},
		{
			name:       "raw zero faces are tens",
			values:     []int{0, 0},
			categories: cats(2, 0),
			want:       Result{Successes: 4, CriticalPairs: 1},
		},
		{
			name:       "messy critical",
			values:     []int{10, 6, 10},
			categories: cats(2, 1),
			want:       Result{Successes: 5, CriticalPairs: 1, Messy: true},
		},
		{
			name:       "lone hunger ten is not messy",
			values:     []int{6, 10},
			categories: cats(1, 1),
			want:       Result{Successes: 3},
		},
		{
			name:       "two pairs",
			values:     []int{10, 10, 10, 10, 10},
			categories: cats(5, 0),
			want:       Result{Successes: 10, CriticalPairs: 2},
		},
		{
			name:       "single tests ignored",
			values:     []int{10, 1, 10},
			categories: []Category{Standard, Rouse, Frenzy},
			want:       Result{Successes: 2},
		},
		{
			name:       "empty",
			values:     nil,
			categories: nil,
			want:       Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.values, tt.categories)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Score = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreSuccessCounting(t *testing.T) {
	for a := 1; a <= 10; a++ {
		for b := 1; b <= 10; b++ {
			for c := 1; c <= 10; c++ {
				values := []int{a, b, c}
				want := 0
				for _, v := range values {
					switch {
					case v == 10:
						want += 2
					case v >= 6:
						want++
					}
				}
				got, err := Score(values, cats(2, 1))
				if err != nil {
					t.Fatalf("Score(%v): %v", values, err)
				}
				if got.Successes != want {
					t.Fatalf("Score(%v) successes = %d, want %d", values, got.Successes, want)
				}
				bestial := want == 0 && c == 1
				if got.Bestial != bestial {
					t.Fatalf("Score(%v) bestial = %v, want %v", values, got.Bestial, bestial)
				}
			}
		}
	}
}

func TestScoreErrors(t *testing.T) {
	if _, err := Score([]int{11}, cats(1, 0)); !errors.Is(err, ErrInvalidFace) {
		t.Fatalf("err = %v, want ErrInvalidFace", err)
	}
	if _, err := Score([]int{-1}, cats(0, 1)); !errors.Is(err, ErrInvalidFace) {
		t.Fatalf("err = %v, want ErrInvalidFace", err)
	}
	if _, err := Score([]int{3, 4}, cats(1, 0)); !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("err = %v, want ErrCategoryMismatch", err)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		values []int
		want   Test
	}{
		{nil, Test{}},
		{[]int{6}, Test{Rolled: true, Success: true}},
		{[]int{3}, Test{Rolled: true}},
		{[]int{1, 2, 0}, Test{Rolled: true, Success: true}},
		{[]int{5, 5, 5}, Test{Rolled: true}},
	}
	for _, tt := range tests {
		got, err := Check(tt.values)
		if err != nil {
			t.Fatalf("Check(%v): %v", tt.values, err)
		}
		if got != tt.want {
			t.Errorf("Check(%v) = %+v, want %+v", tt.values, got, tt.want)
		}
	}
	if _, err := Check([]int{12}); !errors.Is(err, ErrInvalidFace) {
		t.Fatalf("err = %v, want ErrInvalidFace", err)
	}
	if (Test{}).String() != "" || (Test{Rolled: true}).String() != "failed" {
		t.Fatal("unexpected test strings")
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		result Result
		want   string
	}{
		{Result{}, "Failure"},
		{Result{Successes: 1}, "1 success"},
		{Result{Successes: 3}, "3 successes"},
		{Result{Bestial: true}, "Bestial Failure"},
		{Result{Successes: 4, CriticalPairs: 1}, "Critical: 4 successes (+4)"},
		{Result{Successes: 5, CriticalPairs: 1, Messy: true}, "Messy Critical: 5 successes (+4)"},
		{Result{Successes: 3}.WithDifficulty(4), "3 successes, fails difficulty 4 (margin -1)"},
		{Result{Successes: 4, CriticalPairs: 1}.WithDifficulty(2), "Critical: 4 successes (+4), meets difficulty 2 (margin +2)"},
	}
	for _, tt := range tests {
		if got := tt.result.Headline(); got != tt.want {
			t.Errorf("Headline() = %q, want %q", got, tt.want)
		}
	}
}

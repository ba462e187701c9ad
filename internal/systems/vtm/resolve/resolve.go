package resolve

import (
	"errors"
	"fmt"

	"github.com/louisbranch/bloodroll/internal/core/check"
)

var (
	// ErrInvalidFace indicates a face value outside 1–10 after normalization.
	ErrInvalidFace = errors.New("face value must be between 1 and 10")
	// ErrCategoryMismatch indicates values and categories differ in length.
	ErrCategoryMismatch = errors.New("each face value needs a category")
)

// Category tags a die with the pool it was rolled for.
type Category string

const (
	Standard Category = "standard"
	Hunger   Category = "hunger"
	Rouse    Category = "rouse"
	Remorse  Category = "remorse"
	Frenzy   Category = "frenzy"
)

// Categories lists every die category in roll order.
var Categories = []Category{Standard, Hunger, Rouse, Remorse, Frenzy}

// Core reports whether dice of this category are scored for successes.
func (c Category) Core() bool {
	return c == Standard || c == Hunger
}

// Normalize maps a raw geometry face (0–9, 0 meaning ten) to 1–10. Values
// already in 1–10 pass through.
func Normalize(raw int) int {
	if raw == 0 {
		return 10
	}
	return raw
}

// CriticalBonus is the display value of one critical pair.
const CriticalBonus = 4

// Result is the scored Standard+Hunger batch.
type Result struct {
	Successes     int  `json:"successes"`
	CriticalPairs int  `json:"critical_pairs"`
	Messy         bool `json:"messy"`
	Bestial       bool `json:"bestial"`

	Difficulty      *int `json:"difficulty,omitempty"`
	Margin          int  `json:"margin,omitempty"`
	MeetsDifficulty bool `json:"meets_difficulty,omitempty"`
}

// Score resolves Standard and Hunger faces. values and categories are
// parallel; dice of other categories are ignored.
func Score(values []int, categories []Category) (Result, error) {
	if len(values) != len(categories) {
		return Result{}, ErrCategoryMismatch
	}

	var (
		result     Result
		tens       int
		hungerTens int
		hungerOnes int
	)
	for i, raw := range values {
		if !categories[i].Core() {
			continue
		}
		face, err := face(raw)
		if err != nil {
			return Result{}, err
		}
		switch {
		case face == 10:
			result.Successes += 2
			tens++
			if categories[i] == Hunger {
				hungerTens++
			}
		case check.IsSuccess(face):
			result.Successes++
		case face == 1 && categories[i] == Hunger:
			hungerOnes++
		}
	}

	result.CriticalPairs = tens / 2
	result.Messy = result.CriticalPairs > 0 && hungerTens > 0
	result.Bestial = result.Successes == 0 && hungerOnes > 0
	return result, nil
}

// WithDifficulty compares the result against a difficulty.
func (r Result) WithDifficulty(difficulty int) Result {
	outcome := check.Check(r.Successes, difficulty)
	r.Difficulty = &difficulty
	r.Margin = outcome.Margin
	r.MeetsDifficulty = outcome.Success
	return r
}

// Critical reports whether the roll has at least one critical pair.
func (r Result) Critical() bool {
	return r.CriticalPairs > 0
}

// Headline is the one-line display of a scored roll.
func (r Result) Headline() string {
	var out string
	switch {
	case r.Bestial:
		out = "Bestial Failure"
	case r.Messy:
		out = fmt.Sprintf("Messy Critical: %s (+%d)", successes(r.Successes), r.CriticalPairs*CriticalBonus)
	case r.Critical():
		out = fmt.Sprintf("Critical: %s (+%d)", successes(r.Successes), r.CriticalPairs*CriticalBonus)
	case r.Successes == 0:
		out = "Failure"
	default:
		out = successes(r.Successes)
	}
	if r.Difficulty != nil {
		verdict := "fails"
		if r.MeetsDifficulty {
			verdict = "meets"
		}
		out += fmt.Sprintf(", %s difficulty %d (margin %+d)", verdict, *r.Difficulty, r.Margin)
	}
	return out
}

func successes(n int) string {
	if n == 1 {
		return "1 success"
	}
	return fmt.Sprintf("%d successes", n)
}

// Test is the outcome of a Rouse, Remorse or Frenzy pool.
type Test struct {
	Rolled  bool `json:"rolled"`
	Success bool `json:"success"`
}

// Check resolves a single-test pool. An empty pool is not rolled.
func Check(values []int) (Test, error) {
	if len(values) == 0 {
		return Test{}, nil
	}
	test := Test{Rolled: true}
	for _, raw := range values {
		face, err := face(raw)
		if err != nil {
			return Test{}, err
		}
		if check.IsSuccess(face) {
			test.Success = true
		}
	}
	return test, nil
}

// String renders a test as "passed", "failed" or "".
func (t Test) String() string {
	switch {
	case !t.Rolled:
		return ""
	case t.Success:
		return "passed"
	default:
		return "failed"
	}
}

func face(raw int) (int, error) {
	v := Normalize(raw)
	if v < 1 || v > 10 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFace, raw)
	}
	return v, nil
}

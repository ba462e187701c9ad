// Package check compares rolled successes against a difficulty.
package check

// MeetsDifficulty returns true if successes >= difficulty.
func MeetsDifficulty(successes, difficulty int) bool {
	return successes >= difficulty
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(successes, difficulty int) int {
	return successes - difficulty
}

// Result represents the outcome of a difficulty check.
type Result struct {
	Success bool
	Margin  int
}

// Check performs a difficulty check and returns the result.
// A difficulty of zero or less is an automatic success with the full
// success count as margin.
func Check(successes, difficulty int) Result {
	if difficulty < 0 {
		difficulty = 0
	}
	return Result{
		Success: MeetsDifficulty(successes, difficulty),
		Margin:  Margin(successes, difficulty),
	}
}

// SuccessThreshold is the lowest d10 face that counts as a success.
const SuccessThreshold = 6

// IsSuccess reports whether a single normalized d10 face counts as a success.
func IsSuccess(face int) bool {
	return face >= SuccessThreshold
}

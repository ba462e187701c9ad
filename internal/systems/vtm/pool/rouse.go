package pool

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rouseDigits = regexp.MustCompile(`\d+`)
	rouseWords  = regexp.MustCompile(`\b(one|two|three|four|five|six)\b`)
	wordValues  = map[string]int{
		"one":   1,
		"two":   2,
		"three": 3,
		"four":  4,
		"five":  5,
		"six":   6,
	}
)

// RouseChecks parses a Discipline power cost for the number of Rouse
// Checks it requires. An explicit number wins, then a spelled-out one
// through six, then one for a bare mention of Rouse. Costs that never
// mention Rouse, including malformed ones, require none.
func RouseChecks(cost string) int {
	lower := strings.ToLower(cost)
	if !strings.Contains(lower, "rouse") {
		return 0
	}
	if digits := rouseDigits.FindString(lower); digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	if word := rouseWords.FindString(lower); word != "" {
		return wordValues[word]
	}
	return 1
}

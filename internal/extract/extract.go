package extract

import (
	"regexp"
	"strconv"
)

var percentRe = regexp.MustCompile(`(\d+)%`)

// Probability scans text for integers immediately followed by '%' and
// returns the last one, clamped to [1, 99]. The instructed output format
// puts the final answer at the end of the response, so the last match wins.
// The second return value is false when no match exists.
func Probability(text string) (int, bool) {
	matches := percentRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	number, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		// Digits only, but too many of them to fit an int
		return 99, true
	}

	return clamp(number, 1, 99), true
}

// Forecasts of exactly 0% or 100% are disallowed by policy
func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

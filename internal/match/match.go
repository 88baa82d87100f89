// Package match implements the case-insensitive substring matching shared by
// the phase rules and the confirm-button heuristic.
package match

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	// A Caser is stateful; build one per call.
	return cases.Fold().String(s)
}

// FirstIn returns the first needle contained in the already folded haystack.
func FirstIn(folded string, needles []string) (string, bool) {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(folded, Fold(n)) {
			return n, true
		}
	}
	return "", false
}

// Contains reports whether s contains any needle, ignoring case.
func Contains(s string, needles ...string) bool {
	_, ok := FirstIn(Fold(s), needles)
	return ok
}

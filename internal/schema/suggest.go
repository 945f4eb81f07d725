package schema

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a candidate to
// be offered as a correction.
const suggestThreshold = 0.85

// suggest returns the candidate closest to value, or "" when none is similar
// enough. Comparison is case-insensitive so that "grass" suggests "GRASS".
func suggest(value string, candidates []string) string {
	if value == "" {
		return ""
	}
	best, bestScore := "", 0.0
	lv := strings.ToLower(value)
	for _, c := range candidates {
		score := matchr.JaroWinkler(lv, strings.ToLower(c), false)
		if score > bestScore || (score == bestScore && c < best) {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}

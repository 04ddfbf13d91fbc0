package errors

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how far an unknown id may be from a known one
// before it stops being offered as a "did you mean".
const maxSuggestionDistance = 2

// SuggestIDs returns the known identifiers closest to id, nearest first.
func SuggestIDs(id string, known []string) []string {
	if id == "" || len(known) == 0 {
		return nil
	}

	type candidate struct {
		id       string
		distance int
	}

	lower := strings.ToLower(id)
	candidates := make([]candidate, 0, len(known))
	for _, k := range known {
		kl := strings.ToLower(k)
		d := levenshtein.ComputeDistance(lower, kl)
		if strings.HasPrefix(kl, lower) || strings.HasPrefix(lower, kl) {
			d = min(d, 1)
		}
		if d <= maxSuggestionDistance {
			candidates = append(candidates, candidate{id: k, distance: d})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, "did you mean '"+c.id+"'?")
	}

	return suggestions
}

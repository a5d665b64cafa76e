// Package suggest is the core, ranking next-word candidates out of the
// adjacency aggregate and orchestrating shard loads behind each query.
package suggest

import "sort"

// Suggestion is one ranked next-word candidate.
type Suggestion struct {
	Word   string
	Weight int
}

// Rank filters, orders and truncates a successor map into a suggestion
// list: entries below minWeight drop out, the rest sort by weight
// descending with ties broken by word ascending so results are
// deterministic, and limit caps the length (0 or negative means no cap).
func Rank(successors map[string]int, limit, minWeight int) []Suggestion {
	out := make([]Suggestion, 0, len(successors))
	for word, weight := range successors {
		if weight >= minWeight {
			out = append(out, Suggestion{Word: word, Weight: weight})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Word < out[j].Word
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

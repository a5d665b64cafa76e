package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdersByWeightThenWord(t *testing.T) {
	got := Rank(map[string]int{
		"cache":  3,
		"buffer": 3,
		"abort":  1,
		"zone":   7,
	}, 0, 0)

	assert.Equal(t, []Suggestion{
		{Word: "zone", Weight: 7},
		{Word: "buffer", Weight: 3},
		{Word: "cache", Weight: 3},
		{Word: "abort", Weight: 1},
	}, got)
}

// Sample data from the published "pair69" shard.
func TestRankWriteBehindExample(t *testing.T) {
	got := Rank(map[string]int{"write-through": 1, "supported": 1}, 2, 0)

	assert.Equal(t, []Suggestion{
		{Word: "supported", Weight: 1},
		{Word: "write-through", Weight: 1},
	}, got)
}

func TestRankTransactionExample(t *testing.T) {
	successors := map[string]int{
		"commit":       1,
		"write-behind": 1,
		"writer":       1,
		"using":        1,
		"succeed":      1,
		"rolled":       1,
	}

	got := Rank(successors, 3, 1)
	assert.Equal(t, []Suggestion{
		{Word: "commit", Weight: 1},
		{Word: "rolled", Weight: 1},
		{Word: "succeed", Weight: 1},
	}, got)
}

func TestRankMinWeightFilter(t *testing.T) {
	got := Rank(map[string]int{"rare": 1, "common": 5}, 10, 2)
	assert.Equal(t, []Suggestion{{Word: "common", Weight: 5}}, got)

	assert.Empty(t, Rank(map[string]int{"rare": 1}, 10, 2))
}

func TestRankLimit(t *testing.T) {
	successors := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

	assert.Len(t, Rank(successors, 2, 0), 2)
	assert.Len(t, Rank(successors, 0, 0), 4, "zero limit means no cap")
	assert.Len(t, Rank(successors, 10, 0), 4)
}

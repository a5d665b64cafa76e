/*
Package shard defines the immutable word-adjacency shard artifacts and the
stores that serve them.

A shard is one partition of the pre-built adjacency index: a mapping from a
source word to its observed successor words and their occurrence counts.
Shards are produced by the documentation build pipeline and are strictly
read-only at runtime; this package only fetches, decodes and validates them.
*/
package shard

// ID identifies a shard within the published index. IDs are sequential
// per build (pair_0000.bin, pair_0001.bin, ...).
type ID int

// Shard holds the decoded adjacency data of a single artifact.
// Pairs maps source word -> successor word -> occurrence weight.
// A Shard is never mutated after Decode returns it.
type Shard struct {
	ID    ID
	Pairs map[string]map[string]int
}

// EdgeCount returns the number of (source, successor) edges in the shard.
func (s *Shard) EdgeCount() int {
	n := 0
	for _, succ := range s.Pairs {
		n += len(succ)
	}
	return n
}

// WordCount returns the number of distinct source words in the shard.
func (s *Shard) WordCount() int {
	return len(s.Pairs)
}

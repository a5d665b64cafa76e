/*
Package graph holds the live word-adjacency aggregate merged from loaded
shards.

The graph tracks, per shard, exactly what that shard contributed, so an
eviction subtracts precisely what the merge added. An edge fed by several
shards keeps its remaining weight when one of them leaves. For every edge the
aggregated weight equals the sum of the contributions of currently merged
shards; a violation of that invariant is a programming error and panics.
*/
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/wordgraph/pkg/shard"
)

// Graph is the merged adjacency structure across all currently loaded
// shards. Reads run concurrently; merges and evictions are exclusive.
type Graph struct {
	mu sync.RWMutex

	// edges is the aggregate: source word -> successor -> summed weight.
	edges map[string]map[string]int

	// contrib records per-shard provenance. The inner maps alias the
	// immutable shard.Pairs, which is safe because shards are never
	// mutated after decode.
	contrib map[shard.ID]map[string]map[string]int

	// trie indexes source words for prefix completion; the item is the
	// word's total outgoing weight.
	trie *patricia.Trie

	edgeCount int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		edges:   make(map[string]map[string]int),
		contrib: make(map[shard.ID]map[string]map[string]int),
		trie:    patricia.NewTrie(),
	}
}

// MergeShard adds every edge of s to the aggregate and records the
// contribution under s.ID. Merging an id that is already merged is a no-op;
// it reports whether the shard was actually merged.
func (g *Graph) MergeShard(s *shard.Shard) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.contrib[s.ID]; ok {
		return false
	}

	for word, succ := range s.Pairs {
		agg, ok := g.edges[word]
		if !ok {
			agg = make(map[string]int, len(succ))
			g.edges[word] = agg
		}

		added := 0
		for next, weight := range succ {
			if _, ok := agg[next]; !ok {
				g.edgeCount++
			}
			agg[next] += weight
			added += weight
		}
		g.trie.Set(patricia.Prefix(word), g.outTotal(word)+added)
	}

	g.contrib[s.ID] = s.Pairs
	return true
}

// outTotal reads the trie item for word, zero when absent.
// Caller holds the lock.
func (g *Graph) outTotal(word string) int {
	if item := g.trie.Get(patricia.Prefix(word)); item != nil {
		return item.(int)
	}
	return 0
}

// EvictShard subtracts the recorded contribution of id from every affected
// edge, removing edges that reach zero and source words whose successor map
// empties. Cost is proportional to the number of edges the shard
// contributed. It reports whether the id was merged.
func (g *Graph) EvictShard(id shard.ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	pairs, ok := g.contrib[id]
	if !ok {
		return false
	}

	for word, succ := range pairs {
		agg, ok := g.edges[word]
		if !ok {
			panic(fmt.Sprintf("wordgraph: evict of shard %d found no aggregate for %q", id, word))
		}

		removed := 0
		for next, weight := range succ {
			cur, ok := agg[next]
			if !ok {
				panic(fmt.Sprintf("wordgraph: evict of shard %d found no edge %q -> %q", id, word, next))
			}
			cur -= weight
			if cur < 0 {
				panic(fmt.Sprintf("wordgraph: negative aggregate %d for edge %q -> %q after evicting shard %d", cur, word, next, id))
			}
			removed += weight
			if cur == 0 {
				delete(agg, next)
				g.edgeCount--
			} else {
				agg[next] = cur
			}
		}

		if len(agg) == 0 {
			delete(g.edges, word)
			g.trie.Delete(patricia.Prefix(word))
		} else {
			g.trie.Set(patricia.Prefix(word), g.outTotal(word)-removed)
		}
	}

	delete(g.contrib, id)
	return true
}

// SuccessorsOf returns a copy of the aggregated successor map for word, or
// nil when the word has no recorded successors.
func (g *Graph) SuccessorsOf(word string) map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	agg, ok := g.edges[word]
	if !ok {
		return nil
	}
	out := make(map[string]int, len(agg))
	for next, weight := range agg {
		out[next] = weight
	}
	return out
}

// Contains reports whether the shard id is currently merged.
func (g *Graph) Contains(id shard.ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.contrib[id]
	return ok
}

// MergedIDs returns the merged shard ids in ascending order.
func (g *Graph) MergedIDs() []shard.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]shard.ID, 0, len(g.contrib))
	for id := range g.contrib {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// VisitPrefix calls visit for every source word starting with prefix,
// passing the word's total outgoing weight. Traversal order is the trie's;
// callers rank the collected words themselves.
func (g *Graph) VisitPrefix(prefix string, visit func(word string, total int) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		return visit(string(p), item.(int))
	})
}

// Words returns the number of distinct source words in the aggregate.
func (g *Graph) Words() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Edges returns the number of distinct edges in the aggregate.
func (g *Graph) Edges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

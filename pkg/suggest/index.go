package suggest

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bastiangx/wordgraph/internal/utils"
	"github.com/bastiangx/wordgraph/pkg/config"
	"github.com/bastiangx/wordgraph/pkg/graph"
	"github.com/bastiangx/wordgraph/pkg/loader"
	"github.com/bastiangx/wordgraph/pkg/shard"
)

// Query carries per-request ranking parameters. Zero values fall back to
// the index defaults.
type Query struct {
	Limit     int
	MinWeight int
}

// Index is one explicitly constructed suggestion engine instance: it owns
// the word graph, the shard loader and the eviction policy. Construct it
// with New, share it by reference, and Close it at process teardown.
// There is no ambient global instance.
type Index struct {
	loader    *loader.Loader
	graph     *graph.Graph
	lru       *graph.LRU
	partition shard.PartitionFunc

	defaultLimit   int
	maxLimit       int
	minWeight      int
	prefixFallback bool

	closed atomic.Bool
}

// Option adjusts an Index during construction.
type Option func(*Index)

// WithPartitioner supplies the word -> owning shard mapping produced by the
// index build.
func WithPartitioner(fn shard.PartitionFunc) Option {
	return func(ix *Index) { ix.partition = fn }
}

// WithCapacity bounds the number of simultaneously loaded shards.
func WithCapacity(n int) Option {
	return func(ix *Index) { ix.lru = graph.NewLRU(n) }
}

// WithDefaultLimit sets the result count used when a query asks for none.
func WithDefaultLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the per-query result count.
func WithMaxLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxLimit = n
		}
	}
}

// WithMinWeight sets the default minimum edge weight for results.
func WithMinWeight(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.minWeight = n
		}
	}
}

// WithPrefixFallback toggles completion of a partial last token against
// known source words when it has no successors yet.
func WithPrefixFallback(enabled bool) Option {
	return func(ix *Index) { ix.prefixFallback = enabled }
}

// FromConfig applies the index and query sections of a loaded config.
func FromConfig(cfg *config.Config) Option {
	return func(ix *Index) {
		ix.lru = graph.NewLRU(cfg.Index.Capacity)
		if cfg.Query.DefaultLimit > 0 {
			ix.defaultLimit = cfg.Query.DefaultLimit
		}
		if cfg.Query.MaxLimit > 0 {
			ix.maxLimit = cfg.Query.MaxLimit
		}
		if cfg.Query.MinWeight > 0 {
			ix.minWeight = cfg.Query.MinWeight
		}
		ix.prefixFallback = cfg.Query.PrefixFallback
	}
}

// New creates an index over the given shard store.
func New(store shard.Store, opts ...Option) *Index {
	defaults := config.DefaultConfig()
	ix := &Index{
		loader:         loader.New(store),
		graph:          graph.New(),
		lru:            graph.NewLRU(defaults.Index.Capacity),
		partition:      shard.HashPartitioner(defaults.Shards.Total),
		defaultLimit:   defaults.Query.DefaultLimit,
		maxLimit:       defaults.Query.MaxLimit,
		minWeight:      defaults.Query.MinWeight,
		prefixFallback: defaults.Query.PrefixFallback,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Suggest normalizes text, ensures the shard owning its last token is
// loaded, and returns ranked next-word suggestions. An empty result is a
// normal outcome: unknown seed words, unresolvable or unloadable shards and
// over-filtered results all degrade to it, never to an error. Suggestions
// are best-effort and must not surface failures to the host page.
func (ix *Index) Suggest(ctx context.Context, text string, q Query) []Suggestion {
	if ix.closed.Load() {
		return []Suggestion{}
	}

	seed, partial := utils.LastToken(text)
	if seed == "" {
		return []Suggestion{}
	}

	limit := ix.resolveLimit(q.Limit)
	minWeight := ix.minWeight
	if q.MinWeight > 0 {
		minWeight = q.MinWeight
	}

	ix.ensureShardFor(ctx, seed)

	if succ := ix.graph.SuccessorsOf(seed); len(succ) > 0 {
		return Rank(succ, limit, minWeight)
	}

	// A partial token with no successors is usually a word still being
	// typed; fall back to completing it against known source words.
	if partial && ix.prefixFallback {
		return ix.completePrefix(seed, limit, minWeight)
	}
	return []Suggestion{}
}

// SuggestAsync runs Suggest on its own goroutine and hands the result to
// deliver. Use a Session when superseded deliveries must be suppressed.
func (ix *Index) SuggestAsync(ctx context.Context, text string, q Query, deliver func([]Suggestion)) {
	go func() {
		deliver(ix.Suggest(ctx, text, q))
	}()
}

// resolveLimit applies default and cap to a requested result count.
func (ix *Index) resolveLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	if ix.maxLimit > 0 && limit > ix.maxLimit {
		limit = ix.maxLimit
	}
	return limit
}

// ensureShardFor resolves the shard owning seed and merges it into the
// graph, evicting the least-recently-used shard first when the load would
// exceed capacity. Failures are logged and swallowed; the query proceeds
// against whatever is already merged.
func (ix *Index) ensureShardFor(ctx context.Context, seed string) {
	id, ok := ix.partition(seed)
	if !ok {
		log.Debugf("No owning shard resolved for %q", seed)
		return
	}
	ix.ensureShard(ctx, id)
}

func (ix *Index) ensureShard(ctx context.Context, id shard.ID) {
	if ix.graph.Contains(id) {
		ix.lru.Touch(id)
		return
	}

	s, err := ix.loader.Load(ctx, id)
	if err != nil {
		log.Debugf("Shard %d unavailable: %v", id, err)
		return
	}

	// The victim leaves the loader cache and the graph before the new
	// shard merges, keeping the loaded set within capacity throughout.
	if victim, evicted := ix.lru.Touch(id); evicted {
		ix.evict(victim)
	}
	ix.graph.MergeShard(s)
}

func (ix *Index) evict(id shard.ID) {
	ix.loader.Unload(id)
	ix.graph.EvictShard(id)
}

// completePrefix ranks source words completing the partial token by their
// total outgoing weight.
func (ix *Index) completePrefix(prefix string, limit, minWeight int) []Suggestion {
	totals := make(map[string]int)
	err := ix.graph.VisitPrefix(prefix, func(word string, total int) error {
		if word != prefix {
			totals[word] = total
		}
		return nil
	})
	if err != nil {
		log.Errorf("Prefix walk for %q failed: %v", prefix, err)
		return []Suggestion{}
	}
	return Rank(totals, limit, minWeight)
}

// Prewarm loads and merges the given shards concurrently, typically at
// session start from the config's prewarm list. Individual load failures
// abort the remaining loads and are returned for logging; the index stays
// usable either way.
func (ix *Index) Prewarm(ctx context.Context, ids ...shard.ID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			s, err := ix.loader.Load(ctx, id)
			if err != nil {
				return err
			}
			if victim, evicted := ix.lru.Touch(id); evicted {
				ix.evict(victim)
			}
			ix.graph.MergeShard(s)
			return nil
		})
	}
	return g.Wait()
}

// SetCapacity rebounds the loaded-shard limit at runtime, evicting
// least-recently-used shards as needed.
func (ix *Index) SetCapacity(n int) {
	for _, victim := range ix.lru.SetCapacity(n) {
		ix.evict(victim)
	}
}

// Stats is a point-in-time snapshot of the index.
type Stats struct {
	LoadedShards []shard.ID
	Words        int
	Edges        int
	Fetches      int64
}

// Snapshot returns current index statistics.
func (ix *Index) Snapshot() Stats {
	return Stats{
		LoadedShards: ix.graph.MergedIDs(),
		Words:        ix.graph.Words(),
		Edges:        ix.graph.Edges(),
		Fetches:      ix.loader.Fetches(),
	}
}

// Close tears the index down. Later queries return empty results.
// Close is idempotent.
func (ix *Index) Close() {
	if ix.closed.Swap(true) {
		return
	}
	for _, id := range ix.graph.MergedIDs() {
		ix.lru.Remove(id)
		ix.evict(id)
	}
	log.Debug("Index closed")
}

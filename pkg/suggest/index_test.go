package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/wordgraph/pkg/shard"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// testStore builds a MemStore holding one shard per entry, with a table
// partitioner routing each source word to its shard.
func testStore(t *testing.T, shards map[shard.ID]map[string]map[string]int) (*shard.MemStore, shard.PartitionFunc) {
	t.Helper()

	store := shard.NewMemStore()
	table := make(map[string]shard.ID)
	for id, pairs := range shards {
		payload, err := shard.Encode(pairs)
		require.NoError(t, err)
		store.Put(id, payload)
		for word := range pairs {
			table[word] = id
		}
	}
	return store, shard.TablePartitioner(table)
}

func TestSuggestUsesLastToken(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"beta": 2, "gamma": 1}},
	})
	ix := New(store, WithPartitioner(part))
	defer ix.Close()

	got := ix.Suggest(context.Background(), "consider The ALPHA, ", Query{})
	assert.Equal(t, []Suggestion{
		{Word: "beta", Weight: 2},
		{Word: "gamma", Weight: 1},
	}, got)
}

func TestSuggestUnknownWordIsEmptyNotError(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"beta": 1}},
	})
	ix := New(store, WithPartitioner(part))
	defer ix.Close()

	assert.Empty(t, ix.Suggest(context.Background(), "zeta ", Query{}))
	assert.Empty(t, ix.Suggest(context.Background(), "", Query{}))
	assert.Empty(t, ix.Suggest(context.Background(), "...!?", Query{}))
}

func TestSuggestSurvivesStoreFailures(t *testing.T) {
	// Partitioner resolves, but nothing backs the shard id.
	ix := New(shard.NewMemStore(), WithPartitioner(shard.HashPartitioner(4)))
	defer ix.Close()

	assert.Empty(t, ix.Suggest(context.Background(), "anything ", Query{}))
}

func TestLRUEvictionAndReload(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"one": 1}},
		1: {"bravo": {"two": 1}},
		2: {"charlie": {"three": 1}},
	})
	ix := New(store, WithPartitioner(part), WithCapacity(2))
	defer ix.Close()

	ctx := context.Background()
	ix.Suggest(ctx, "alpha ", Query{})
	ix.Suggest(ctx, "bravo ", Query{})
	ix.Suggest(ctx, "charlie ", Query{}) // evicts shard 0

	snap := ix.Snapshot()
	assert.Equal(t, []shard.ID{1, 2}, snap.LoadedShards)
	assert.Equal(t, 1, store.Fetches(0))

	// A query needing the evicted shard triggers a reload.
	got := ix.Suggest(ctx, "alpha ", Query{})
	assert.Equal(t, []Suggestion{{Word: "one", Weight: 1}}, got)
	assert.Equal(t, 2, store.Fetches(0))
}

func TestSetCapacityEvictsFromGraph(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"one": 1}},
		1: {"bravo": {"two": 1}},
	})
	ix := New(store, WithPartitioner(part), WithCapacity(4))
	defer ix.Close()

	ctx := context.Background()
	ix.Suggest(ctx, "alpha ", Query{})
	ix.Suggest(ctx, "bravo ", Query{})
	require.Equal(t, []shard.ID{0, 1}, ix.Snapshot().LoadedShards)

	ix.SetCapacity(1)
	assert.Equal(t, []shard.ID{1}, ix.Snapshot().LoadedShards)
}

func TestPrefixFallbackCompletesPartialToken(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {
			"alpha":    {"beta": 2, "gamma": 1},
			"alphabet": {"soup": 1},
		},
	})
	ix := New(store, WithPartitioner(part))
	defer ix.Close()

	ctx := context.Background()
	// Warm the graph; prefix completion only sees merged source words.
	ix.Suggest(ctx, "alpha ", Query{})

	got := ix.Suggest(ctx, "alp", Query{})
	assert.Equal(t, []Suggestion{
		{Word: "alpha", Weight: 3},
		{Word: "alphabet", Weight: 1},
	}, got)

	// A completed token does not fall back to prefix matches.
	assert.Empty(t, ix.Suggest(ctx, "alp ", Query{}))
}

func TestPrefixFallbackDisabled(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"beta": 1}},
	})
	ix := New(store, WithPartitioner(part), WithPrefixFallback(false))
	defer ix.Close()

	ctx := context.Background()
	ix.Suggest(ctx, "alpha ", Query{})
	assert.Empty(t, ix.Suggest(ctx, "alp", Query{}))
}

func TestQueryLimitsAndDefaults(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"a": 5, "b": 4, "c": 3, "d": 2, "e": 1}},
	})
	ix := New(store, WithPartitioner(part), WithDefaultLimit(2), WithMaxLimit(4))
	defer ix.Close()

	ctx := context.Background()
	assert.Len(t, ix.Suggest(ctx, "alpha ", Query{}), 2, "default limit applies")
	assert.Len(t, ix.Suggest(ctx, "alpha ", Query{Limit: 3}), 3)
	assert.Len(t, ix.Suggest(ctx, "alpha ", Query{Limit: 99}), 4, "max limit caps requests")

	got := ix.Suggest(ctx, "alpha ", Query{Limit: 10, MinWeight: 4})
	assert.Equal(t, []Suggestion{{Word: "a", Weight: 5}, {Word: "b", Weight: 4}}, got)
}

func TestPrewarmLoadsShards(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"one": 1}},
		1: {"bravo": {"two": 1}},
	})
	ix := New(store, WithPartitioner(part))
	defer ix.Close()

	require.NoError(t, ix.Prewarm(context.Background(), 0, 1))
	snap := ix.Snapshot()
	assert.Equal(t, []shard.ID{0, 1}, snap.LoadedShards)
	assert.Equal(t, 2, snap.Words)

	assert.Error(t, ix.Prewarm(context.Background(), 9))
}

func TestCloseDrainsIndex(t *testing.T) {
	store, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"one": 1}},
	})
	ix := New(store, WithPartitioner(part))

	ctx := context.Background()
	require.NotEmpty(t, ix.Suggest(ctx, "alpha ", Query{}))

	ix.Close()
	ix.Close() // idempotent

	assert.Empty(t, ix.Suggest(ctx, "alpha ", Query{}))
	assert.Empty(t, ix.Snapshot().LoadedShards)
}

// gatedStore delays fetches of one shard until released.
type gatedStore struct {
	shard.Store
	gated shard.ID
	gate  chan struct{}
}

func (g *gatedStore) Fetch(ctx context.Context, id shard.ID) ([]byte, error) {
	if id == g.gated {
		<-g.gate
	}
	return g.Store.Fetch(ctx, id)
}

func TestSessionSuppressesStaleDelivery(t *testing.T) {
	inner, part := testStore(t, map[shard.ID]map[string]map[string]int{
		0: {"alpha": {"one": 1}},
		1: {"bravo": {"two": 1}},
	})
	store := &gatedStore{Store: inner, gated: 0, gate: make(chan struct{})}
	ix := New(store, WithPartitioner(part))
	defer ix.Close()

	sess := ix.NewSession()
	ctx := context.Background()

	var mu sync.Mutex
	var delivered [][]Suggestion

	// The first request blocks on the gated shard fetch.
	sess.OnInput(ctx, "alpha ", Query{}, func(res []Suggestion) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, res)
	})

	// The second request supersedes it and resolves immediately.
	second := make(chan []Suggestion, 1)
	sess.OnInput(ctx, "bravo ", Query{}, func(res []Suggestion) {
		second <- res
	})

	select {
	case res := <-second:
		assert.Equal(t, []Suggestion{{Word: "two", Weight: 1}}, res)
	case <-time.After(5 * time.Second):
		t.Fatal("second request never delivered")
	}

	// Let the stale request finish; its delivery must be suppressed,
	// but its shard load still lands in the index for later queries.
	close(store.gate)
	assert.Eventually(t, func() bool {
		return len(ix.Suggest(ctx, "alpha ", Query{})) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, delivered, "superseded delivery must be dropped")
}

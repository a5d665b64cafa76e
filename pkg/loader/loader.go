/*
Package loader fetches shard payloads from a store and parses them into
validated in-memory shards.

Parsed shards are cached by id. Concurrent loads of the same unloaded id are
coalesced so that exactly one fetch+parse runs and every waiter shares its
result, success or error.
*/
package loader

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/bastiangx/wordgraph/pkg/shard"
)

// Loader manages the parsed-shard cache over a shard.Store.
type Loader struct {
	store   shard.Store
	mu      sync.RWMutex
	cache   map[shard.ID]*shard.Shard
	flight  singleflight.Group
	fetches atomic.Int64
}

// New creates a loader with an empty cache.
func New(store shard.Store) *Loader {
	return &Loader{
		store: store,
		cache: make(map[shard.ID]*shard.Shard),
	}
}

// Load returns the parsed shard for id, fetching and parsing it on a cache
// miss. At most one fetch+parse is in flight per id; concurrent callers for
// the same id block on that one operation and share its outcome.
func (l *Loader) Load(ctx context.Context, id shard.ID) (*shard.Shard, error) {
	l.mu.RLock()
	s, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, shared := l.flight.Do(strconv.Itoa(int(id)), func() (any, error) {
		// A waiter queued behind a finished flight may race an Unload,
		// so the cache is rechecked inside the flight.
		l.mu.RLock()
		s, ok := l.cache[id]
		l.mu.RUnlock()
		if ok {
			return s, nil
		}

		l.fetches.Add(1)
		payload, err := l.store.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}

		parsed, err := shard.Decode(id, payload)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.cache[id] = parsed
		l.mu.Unlock()

		log.Debugf("Loaded shard %d: %d words, %d edges", id, parsed.WordCount(), parsed.EdgeCount())
		return parsed, nil
	})
	if err != nil {
		log.Debugf("Load of shard %d failed (shared=%v): %v", id, shared, err)
		return nil, err
	}
	return v.(*shard.Shard), nil
}

// Unload drops the cached parse for id. A later Load re-fetches from the
// store. It reports whether the shard was cached.
func (l *Loader) Unload(id shard.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache[id]; !ok {
		return false
	}
	delete(l.cache, id)
	log.Debugf("Unloaded shard %d", id)
	return true
}

// Loaded reports whether id is currently cached.
func (l *Loader) Loaded(id shard.ID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[id]
	return ok
}

// LoadedIDs returns the cached shard ids in ascending order.
func (l *Loader) LoadedIDs() []shard.ID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]shard.ID, 0, len(l.cache))
	for id := range l.cache {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Fetches returns the number of store fetches performed so far.
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

package graph

import (
	"container/list"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordgraph/pkg/shard"
)

// LRU bounds the set of simultaneously loaded shard ids using
// least-recently-used replacement. It only decides which id must go; the
// owner performs the actual unload and graph eviction.
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[shard.ID]*list.Element
	order    *list.List // front = most recently used
}

// NewLRU creates a policy for at most capacity loaded shards.
// Capacities below one are clamped to one.
func NewLRU(capacity int) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		items:    make(map[shard.ID]*list.Element),
		order:    list.New(),
	}
}

// Touch marks id as most recently used, admitting it if new. When admitting
// pushes the tracked set over capacity, the least-recently-used id is
// dropped from tracking and returned as the victim to evict.
func (c *LRU) Touch(id shard.ID) (victim shard.ID, evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[id]; ok {
		c.order.MoveToFront(el)
		return 0, false
	}

	c.items[id] = c.order.PushFront(id)
	if c.order.Len() <= c.capacity {
		return 0, false
	}

	back := c.order.Back()
	victim = back.Value.(shard.ID)
	c.order.Remove(back)
	delete(c.items, victim)
	log.Debugf("LRU over capacity (%d), evicting shard %d", c.capacity, victim)
	return victim, true
}

// Remove drops id from tracking without counting as an eviction.
func (c *LRU) Remove(id shard.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, id)
	return true
}

// SetCapacity adjusts the bound and returns the ids that fell out of it,
// least recently used first.
func (c *LRU) SetCapacity(capacity int) []shard.ID {
	if capacity < 1 {
		capacity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = capacity
	var victims []shard.ID
	for c.order.Len() > c.capacity {
		back := c.order.Back()
		id := back.Value.(shard.ID)
		c.order.Remove(back)
		delete(c.items, id)
		victims = append(victims, id)
	}
	return victims
}

// Len returns the number of tracked ids.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// IDs returns tracked ids from most to least recently used.
func (c *LRU) IDs() []shard.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]shard.ID, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Value.(shard.ID))
	}
	return ids
}

package scale

import "sync"

// fifoCache is a thread-safe bounded cache with oldest-inserted-first
// eviction. Unlike an LRU, a hit does not refresh an entry's position:
// scale results are immutable and equally cheap to recompute, so plain
// insertion-order eviction keeps the behavior predictable.
type fifoCache struct {
	capacity int
	mu       sync.Mutex
	entries  map[string]Scale
	order    []string

	hits   uint64
	misses uint64
}

func newFIFOCache(capacity int) *fifoCache {
	return &fifoCache{
		capacity: capacity,
		entries:  make(map[string]Scale, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *fifoCache) get(key string) (Scale, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return s, ok
}

func (c *fifoCache) put(key string, s Scale) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = s
		return
	}

	c.entries[key] = s
	c.order = append(c.order, key)

	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *fifoCache) stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *fifoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package condition

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the default number of compiled programs kept per mode.
const DefaultCacheSize = 1000

// Cache maps expression source to its compiled program, dropping the least
// recently used program once it holds more than its capacity. It is safe for
// concurrent use.
type Cache[P any] struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	recency list.List // of *cached[P], most recent at the front
	cap     int
}

type cached[P any] struct {
	src  string
	prog P
}

// NewCache creates a cache with the given capacity, or DefaultCacheSize when
// capacity is not positive.
func NewCache[P any](capacity int) *Cache[P] {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	return &Cache[P]{byKey: make(map[string]*list.Element), cap: capacity}
}

func (c *Cache[P]) Get(src string) (prog P, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, hit := c.byKey[src]; hit {
		c.recency.MoveToFront(e)
		return e.Value.(*cached[P]).prog, true
	}
	return prog, false
}

func (c *Cache[P]) Put(src string, prog P) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, hit := c.byKey[src]; hit {
		e.Value.(*cached[P]).prog = prog
		c.recency.MoveToFront(e)
		return
	}
	c.byKey[src] = c.recency.PushFront(&cached[P]{src: src, prog: prog})
	c.trim()
}

// Resize sets the capacity, at least 1, dropping programs over it.
func (c *Cache[P]) Resize(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cap = max(capacity, 1)
	c.trim()
}

// Cap returns the capacity.
func (c *Cache[P]) Cap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cap
}

func (c *Cache[P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}

func (c *Cache[P]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byKey)
	c.recency.Init()
}

func (c *Cache[P]) trim() {
	for c.recency.Len() > c.cap {
		delete(c.byKey, c.recency.Remove(c.recency.Back()).(*cached[P]).src)
	}
}

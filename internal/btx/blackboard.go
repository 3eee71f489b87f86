package btx

import (
	"maps"
	"sync"
)

// Blackboard holds the named facts shared by the behaviours of one tree, such
// as those written by planner actions and read by conditions. The zero value
// is empty and ready to use.
type Blackboard struct {
	mu    sync.RWMutex
	facts map[string]any
}

// Get returns the fact named key, or nil.
func (b *Blackboard) Get(key string) any {
	v, _ := b.Lookup(key)
	return v
}

// Lookup returns the fact named key and whether it was set.
func (b *Blackboard) Lookup(key string) (any, bool) {
	b.mu.RLock()
	v, ok := b.facts[key]
	b.mu.RUnlock()
	return v, ok
}

// Set records value under key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	if b.facts == nil {
		b.facts = make(map[string]any)
	}
	b.facts[key] = value
	b.mu.Unlock()
}

// Snapshot copies the facts, for use as condition variables. Values are not
// deep copied. It returns nil while nothing has been set.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.facts)
}

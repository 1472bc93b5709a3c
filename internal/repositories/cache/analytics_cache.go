// Package cache holds derived analytics results keyed by scope.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
)

type entry struct {
	value any
	tags  []string
	gens  []uint64
}

// TaggedLRU is a size and TTL bounded LRU whose entries can be evicted by tag.
// mu guards the tag index and the tag generations and is never held while calling into the
// LRU, because the LRU invokes onEvict under its own lock, including from its expiry goroutine.
type TaggedLRU struct {
	lru   *expirable.LRU[string, entry]
	mu    sync.Mutex
	byTag map[string]map[string]struct{}
	gens  map[string]uint64
}

// NewTaggedLRU creates a cache holding at most size entries for ttl each.
func NewTaggedLRU(size int, ttl time.Duration) *TaggedLRU {
	if size <= 0 {
		size = 1
	}
	c := &TaggedLRU{byTag: map[string]map[string]struct{}{}, gens: map[string]uint64{}}
	c.lru = expirable.NewLRU[string, entry](size, c.onEvict, ttl)
	return c
}

var _ portsrepo.AnalyticsCache = (*TaggedLRU)(nil)

func (c *TaggedLRU) onEvict(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range e.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

// currentLocked reports whether no tag has been invalidated since gens was taken.
func (c *TaggedLRU) currentLocked(tags []string, gens []uint64) bool {
	if len(gens) != len(tags) {
		return false
	}
	for i, tag := range tags {
		if c.gens[tag] != gens[i] {
			return false
		}
	}
	return true
}

func (c *TaggedLRU) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	current := c.currentLocked(e.tags, e.gens)
	c.mu.Unlock()
	if !current {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *TaggedLRU) Generations(tags []string) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gens := make([]uint64, len(tags))
	for i, tag := range tags {
		gens[i] = c.gens[tag]
	}
	return gens
}

// Set stores value unless one of its tags was invalidated after gens was read. An entry that
// slips in concurrently with an invalidation is still refused by Get.
func (c *TaggedLRU) Set(key string, value any, tags []string, gens []uint64) {
	c.mu.Lock()
	if !c.currentLocked(tags, gens) {
		c.mu.Unlock()
		return
	}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = map[string]struct{}{}
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
	c.mu.Unlock()
	c.lru.Add(key, entry{value: value, tags: tags, gens: gens})
}

func (c *TaggedLRU) InvalidateTags(tags ...string) {
	c.mu.Lock()
	var keys []string
	for _, tag := range tags {
		c.gens[tag]++
		for key := range c.byTag[tag] {
			keys = append(keys, key)
		}
		delete(c.byTag, tag)
	}
	c.mu.Unlock()
	for _, key := range keys {
		c.lru.Remove(key)
	}
}

// Len reports the number of live entries.
func (c *TaggedLRU) Len() int {
	return c.lru.Len()
}

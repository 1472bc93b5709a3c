package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// set stores value with the current generations of tags.
func set(c *TaggedLRU, key string, value any, tags []string) {
	c.Set(key, value, tags, c.Generations(tags))
}

func TestTaggedLRU_GetSet(t *testing.T) {
	c := NewTaggedLRU(8, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	set(c, "collection|year=ay", 42, []string{"year:ay"})
	v, ok := c.Get("collection|year=ay")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTaggedLRU_InvalidateTags(t *testing.T) {
	c := NewTaggedLRU(8, time.Minute)
	set(c, "year-wide", "a", []string{"year:ay"})
	set(c, "term-1", "b", []string{"year:ay|term:t1"})
	set(c, "term-2", "c", []string{"year:ay|term:t2"})

	c.InvalidateTags("year:ay", "year:ay|term:t1")

	_, ok := c.Get("year-wide")
	assert.False(t, ok)
	_, ok = c.Get("term-1")
	assert.False(t, ok)
	v, ok := c.Get("term-2")
	assert.True(t, ok, "other terms keep their entries")
	assert.Equal(t, "c", v)
	assert.Equal(t, 1, c.Len())
}

func TestTaggedLRU_EvictionCleansTagIndex(t *testing.T) {
	c := NewTaggedLRU(1, time.Minute)
	set(c, "first", 1, []string{"t"})
	set(c, "second", 2, []string{"t"})

	_, ok := c.Get("first")
	assert.False(t, ok, "capacity one evicts the oldest entry")

	c.mu.Lock()
	_, tracked := c.byTag["t"]["first"]
	c.mu.Unlock()
	assert.False(t, tracked)
}

func TestTaggedLRU_Expiry(t *testing.T) {
	c := NewTaggedLRU(4, 20*time.Millisecond)
	set(c, "k", 1, []string{"t"})
	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTaggedLRU_SetRefusesResultOvertakenByInvalidation(t *testing.T) {
	c := NewTaggedLRU(8, time.Minute)
	tags := []string{"year:ay"}
	gens := c.Generations(tags)

	c.InvalidateTags("year:ay")
	c.Set("collection", "stale", tags, gens)

	_, ok := c.Get("collection")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	set(c, "collection", "fresh", tags)
	v, ok := c.Get("collection")
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestTaggedLRU_GetDropsEntryOfMovedTag(t *testing.T) {
	c := NewTaggedLRU(8, time.Minute)
	set(c, "impact", 1, []string{"year:ay", "year:ay|term:t1"})

	// Bump the generation without going through the tag index, as a racing Set would leave it.
	c.mu.Lock()
	c.gens["year:ay|term:t1"]++
	c.mu.Unlock()

	_, ok := c.Get("impact")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTaggedLRU_GenerationsPerTag(t *testing.T) {
	c := NewTaggedLRU(8, time.Minute)
	assert.Equal(t, []uint64{0, 0}, c.Generations([]string{"a", "b"}))

	c.InvalidateTags("a")
	c.InvalidateTags("a")
	assert.Equal(t, []uint64{2, 0}, c.Generations([]string{"a", "b"}))

	c.Set("k", 1, []string{"a"}, []uint64{1})
	_, ok := c.Get("k")
	assert.False(t, ok, "generation count mismatch is refused")

	c.Set("k", 1, []string{"a", "b"}, []uint64{2})
	_, ok = c.Get("k")
	assert.False(t, ok, "a generation per tag is required")
}

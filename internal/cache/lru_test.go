package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLRU(size int, ttl time.Duration) (*LRU[string], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b was the least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestLRU(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", "3")

	clk.t = clk.t.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok, "overwriting refreshes the ttl")
	assert.Equal(t, "3", v)

	clk.t = clk.t.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Len())
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	for i := range 5 {
		c.Set(fmt.Sprint(i), "x")
	}
	c.Delete("3")
	assert.Equal(t, 4, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
	c.Set("a", "1")
	_, ok := c.Get("a")
	assert.True(t, ok, "cache is usable after a purge")
}

func TestLRUSetIfCurrentRejectsOlderGeneration(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)

	gen := c.Generation()
	assert.True(t, c.SetIfCurrent("a", "1", gen))

	stale := c.Generation()
	c.Purge()
	assert.Equal(t, stale+1, c.Generation())
	assert.False(t, c.SetIfCurrent("a", "old", stale))
	_, ok := c.Get("a")
	assert.False(t, ok, "value built before the purge must not be stored")

	assert.True(t, c.SetIfCurrent("a", "new", c.Generation()))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestLRUDisabled(t *testing.T) {
	c, _ := newTestLRU(0, time.Minute)
	c.Set("a", "1")
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestJanitorSweep(t *testing.T) {
	a, clk := newTestLRU(10, time.Second)
	b, _ := newTestLRU(10, time.Hour)
	b.now = clk.now
	a.Set("x", "1")
	b.Set("y", "2")
	clk.t = clk.t.Add(time.Minute)

	j := NewJanitor(time.Millisecond, a, b)
	assert.Equal(t, 1, j.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, j.Run(ctx))
}

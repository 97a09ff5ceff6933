package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU holds at most size reports, each for ttl. Purge starts a new
// generation: a value computed from reads made before the purge can be
// offered with SetIfCurrent and is dropped instead of resurrecting stale data.
// A zero or negative size disables caching.
type LRU[T any] struct {
	mu         sync.Mutex
	size       int
	ttl        time.Duration
	now        func() time.Time
	generation uint64
	byKey      map[string]*list.Element
	recency    *list.List // front is most recently used
}

type slot[T any] struct {
	key     string
	value   T
	expires time.Time
}

func NewLRU[T any](size int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		size:    size,
		ttl:     ttl,
		now:     time.Now,
		byKey:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

var _ Cache[int] = (*LRU[int])(nil)

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	s := elem.Value.(*slot[T])
	if c.now().After(s.expires) {
		c.drop(elem)
		return zero, false
	}
	c.recency.MoveToFront(elem)
	return s.value, true
}

// Set stores value unconditionally.
func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

// Generation identifies the current purge epoch.
func (c *LRU[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfCurrent stores value only while gen is still the current generation.
// It reports whether the value was kept.
func (c *LRU[T]) SetIfCurrent(key string, value T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	return c.store(key, value)
}

func (c *LRU[T]) store(key string, value T) bool {
	if c.size <= 0 {
		return false
	}
	s := &slot[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if elem, ok := c.byKey[key]; ok {
		elem.Value = s
		c.recency.MoveToFront(elem)
		return true
	}
	c.byKey[key] = c.recency.PushFront(s)
	for c.recency.Len() > c.size {
		c.drop(c.recency.Back())
	}
	return true
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byKey[key]; ok {
		c.drop(elem)
	}
}

// Purge empties the cache and advances the generation. Writers call it after
// every committed ledger change.
func (c *LRU[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.byKey)
	c.recency.Init()
}

// CleanExpired drops expired reports and returns how many went.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for elem := c.recency.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*slot[T]).expires) {
			c.drop(elem)
			n++
		}
		elem = next
	}
	return n
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *LRU[T]) drop(elem *list.Element) {
	delete(c.byKey, elem.Value.(*slot[T]).key)
	c.recency.Remove(elem)
}

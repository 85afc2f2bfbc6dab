package polycache

import "sync"

// LRUK filters out one-shot keys by requiring K references before a
// key is promoted into the resident main cache. A key observed fewer
// than K times lives only in two auxiliary structures: a bounded
// history cache of key->access-count, and a staging map remembering
// the most recently seen value so promotion never requires a re-write.
//
// Lock order: LRUK's own mutex first, then the main cache's, then the
// history cache's — each of those is acquired transitively by calling
// into main/history, never held across a re-entrant call back into
// LRUK, so the order is never inverted.
type LRUK[K comparable, V any] struct {
	mu      sync.Mutex
	k       int
	main    *LRU[K, V]
	history *LRU[K, int]
	staging map[K]V
	obs     Observer[K, V]
}

var _ Policy[string, int] = (*LRUK[string, int])(nil)

// NewLRUK constructs an LRU-K cache: capacity bounds the resident main
// cache, historyCapacity bounds the probation bookkeeping, and k is
// the number of references a key needs before promotion (k must be >= 1).
func NewLRUK[K comparable, V any](capacity, historyCapacity, k int) *LRUK[K, V] {
	if k < 1 {
		panic("polycache: k must be >= 1")
	}
	return &LRUK[K, V]{
		k:       k,
		main:    NewLRU[K, V](capacity),
		history: NewLRU[K, int](historyCapacity),
		staging: make(map[K]V),
	}
}

func (c *LRUK[K, V]) Put(key K, value V) {
	if c.main.capacity == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.main.Get(key); ok {
		c.main.Put(key, value)
		c.notify(EventPut, key, value, true)
		return
	}

	count := c.history.GetOrZero(key) + 1
	c.history.Put(key, count)
	c.staging[key] = value

	if count >= c.k {
		delete(c.staging, key)
		c.history.Remove(key)
		c.main.Put(key, value)
	}
	c.notify(EventPut, key, value, true)
}

func (c *LRUK[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.main.Get(key); ok {
		// A main-cache hit does not bump history, since the count is
		// never consulted again once a key is resident.
		c.notify(EventGet, key, v, true)
		return v, true
	}

	count := c.history.GetOrZero(key) + 1
	c.history.Put(key, count)

	if count >= c.k {
		if v, staged := c.staging[key]; staged {
			delete(c.staging, key)
			c.history.Remove(key)
			c.main.Put(key, v)
			c.notify(EventGet, key, v, true)
			return v, true
		}
	}

	var zero V
	c.notify(EventGet, key, zero, false)
	return zero, false
}

func (c *LRUK[K, V]) GetOrZero(key K) V {
	v, _ := c.Get(key)
	return v
}

func (c *LRUK[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removedMain := c.main.Remove(key)
	if removedMain {
		var zero V
		c.notify(EventRemove, key, zero, true)
		return true
	}
	if v, staged := c.staging[key]; staged {
		delete(c.staging, key)
		c.history.Remove(key)
		c.notify(EventRemove, key, v, true)
		return true
	}
	var zero V
	c.notify(EventRemove, key, zero, false)
	return false
}

// Observe registers fn to run on every Put, Get, and Remove against
// the LRU-K cache's external contract (promotion/probation bookkeeping
// against the internal history cache is not itself observed).
func (c *LRUK[K, V]) Observe(fn Observer[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = chainObserver(c.obs, fn)
}

func (c *LRUK[K, V]) notify(kind EventKind, key K, value V, hit bool) {
	if c.obs != nil {
		c.obs(Event[K, V]{Kind: kind, Key: key, Value: value, Hit: hit})
	}
}

func (c *LRUK[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.main.Purge()
	c.history.Purge()
	c.staging = make(map[K]V)
}

func (c *LRUK[K, V]) Len() int {
	return c.main.Len()
}

package polycache

import "testing"

// checkLRUInvariants verifies that for every key in the map there is
// exactly one node in the list with that key, and vice versa.
func checkLRUInvariants[K comparable, V any](t *testing.T, c *LRU[K, V]) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.index) > c.capacity {
		t.Fatalf("live entries %d exceed capacity %d", len(c.index), c.capacity)
	}

	seen := 0
	for h := c.order.head(); h != nilHandle; h = c.order.link[h][linkNext] {
		seen++
		key := c.nodes.at(h).key
		if got, ok := c.index[key]; !ok || got != h {
			t.Fatalf("list node for key %v not reflected in map", key)
		}
		if seen > len(c.index) {
			t.Fatalf("list has more live nodes than the map — cycle or leak")
		}
	}
	if seen != len(c.index) {
		t.Fatalf("list length %d != map size %d", seen, len(c.index))
	}
}

func TestLRU_EvictionOrder(t *testing.T) {
	c := NewLRU[int, string](3)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(3, "c")
	c.Get(1)
	c.Put(4, "d")

	if _, ok := c.Get(2); ok {
		t.Fatalf("key 2 should have been evicted")
	}
	for k, want := range map[int]string{1: "a", 3: "c", 4: "d"} {
		if got, ok := c.Get(k); !ok || got != want {
			t.Fatalf("key %d: got (%q, %v), want (%q, true)", k, got, ok, want)
		}
	}
	checkLRUInvariants(t, c)
}

func TestLRU_UpdateRefreshesRecency(t *testing.T) {
	c := NewLRU[int, string](2)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(1, "A")
	c.Put(3, "c")

	if _, ok := c.Get(2); ok {
		t.Fatalf("key 2 should have been evicted")
	}
	if v, ok := c.Get(1); !ok || v != "A" {
		t.Fatalf("key 1: got (%q, %v), want (A, true)", v, ok)
	}
	if v, ok := c.Get(3); !ok || v != "c" {
		t.Fatalf("key 3: got (%q, %v), want (c, true)", v, ok)
	}
	checkLRUInvariants(t, c)
}

func TestLRU_ZeroCapacity(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Put("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("zero-capacity cache must never hit")
	}
	if c.Len() != 0 {
		t.Fatalf("zero-capacity cache must stay empty, got len %d", c.Len())
	}
}

func TestLRU_CapacityOne(t *testing.T) {
	c := NewLRU[int, int](1)
	c.Put(1, 10)
	c.Put(2, 20)
	if _, ok := c.Get(1); ok {
		t.Fatalf("key 1 should have been evicted by capacity-1 overwrite")
	}
	if v, ok := c.Get(2); !ok || v != 20 {
		t.Fatalf("key 2: got (%d, %v), want (20, true)", v, ok)
	}
}

func TestLRU_PurgeResetsToFresh(t *testing.T) {
	c := NewLRU[int, int](4)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Purge()

	if c.Len() != 0 {
		t.Fatalf("purge must empty the cache, got len %d", c.Len())
	}
	for _, k := range []int{1, 2} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("key %d should miss after purge", k)
		}
	}
	c.Put(3, 3)
	if v, ok := c.Get(3); !ok || v != 3 {
		t.Fatalf("cache must behave normally after purge: got (%d, %v)", v, ok)
	}
	checkLRUInvariants(t, c)
}

func TestLRU_RemoveAbsentIsNoOp(t *testing.T) {
	c := NewLRU[int, int](2)
	if c.Remove(42) {
		t.Fatalf("removing an absent key must report false")
	}
}

func TestLRU_ConsecutiveGetsStable(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Put("a", 1)
	v1, ok1 := c.Get("a")
	v2, ok2 := c.Get("a")
	if !ok1 || !ok2 || v1 != v2 {
		t.Fatalf("two consecutive gets on a resident key must agree: (%d,%v) (%d,%v)", v1, ok1, v2, ok2)
	}
}

func TestLRU_ReuseAfterEviction(t *testing.T) {
	c := NewLRU[int, int](2)
	for i := 0; i < 100; i++ {
		c.Put(i, i*i)
	}
	checkLRUInvariants(t, c)
	if c.Len() != 2 {
		t.Fatalf("capacity-2 cache after 100 puts should hold 2 entries, got %d", c.Len())
	}
	if v, ok := c.Get(99); !ok || v != 99*99 {
		t.Fatalf("most recent key 99: got (%d, %v)", v, ok)
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int, int](64)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		g := g
		go func() {
			for i := 0; i < 1000; i++ {
				k := (g * 1000) + i
				c.Put(k, k)
				c.Get(k)
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	checkLRUInvariants(t, c)
}

// Package polycache implements a family of concurrent, generic,
// in-memory key-value caches that share one policy contract: LRU
// (recency), LRU-K (promotion-gated recency), LFU (frequency, with
// aging), and sharded wrappers over LRU/LFU that partition the
// keyspace across independent sub-caches to cut lock contention.
//
// Every cache is memory-only and bounded strictly by entry count — no
// TTL, no persistence, no cost-weighted eviction. Capacity is fixed at
// construction; a capacity of zero is a valid, permanently-empty
// cache (every Put is a no-op, every Get misses).
//
// All caches are safe for concurrent use. LRU, LRUK, and LFU each
// guard their state with a single mutex; sharded caches hold no lock
// of their own and route each key to exactly one shard, so operations
// on different shards run fully in parallel.
package polycache

// Policy is the operation contract every concrete cache in this
// package implements. It exists for substitutability — so callers can
// depend on "a cache" without committing to a specific eviction
// policy — not for heterogeneous collections: the sharded wrappers
// hold slices of a single concrete type rather than []Policy[K, V], to
// keep the hot path on static dispatch.
type Policy[K comparable, V any] interface {
	// Put inserts or updates key. If inserting a new key would exceed
	// capacity, exactly one existing entry is evicted.
	Put(key K, value V)

	// Get reports whether key is present and, if so, its current
	// value. A hit records the access under the cache's policy
	// (refreshes recency, or increments frequency).
	Get(key K) (V, bool)

	// GetOrZero is a convenience wrapper around Get: on a miss it
	// returns V's zero value, indistinguishable from a hit-of-zero.
	// Callers that must tell the two apart use Get.
	GetOrZero(key K) V

	// Remove deletes key if present. Removing an absent key is a no-op.
	Remove(key K) bool

	// Purge removes every entry; the cache behaves as freshly
	// constructed afterward.
	Purge()

	// Len reports the number of live entries.
	Len() int
}

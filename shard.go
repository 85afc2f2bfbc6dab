package polycache

import (
	"math"
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
)

// Hashable constrains the keys a sharded cache can route: the router
// needs a stable string form of the key to feed the hash function, so
// sharded keys are restricted to string/int-family types, while the
// unsharded caches stay fully comparable-keyed.
type Hashable interface {
	string | int | int32 | int64 | uint | uint32 | uint64
}

func keyString[K Hashable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		panic("polycache: unreachable, Hashable key outside its own constraint")
	}
}

// shardRouter assigns a key to one of N shard labels with highest
// random weight (rendezvous) hashing rather than plain hash-mod-N: the
// same algorithm go-redis's Ring client uses to assign keys to nodes,
// which is why dgryski/go-rendezvous travels alongside go-redis in
// this module's dependency ancestry. Since the shard count never
// changes after construction, this is observably equivalent to
// hash(key) mod N for routing-determinism purposes, while using the
// ecosystem's own tool for the job.
type shardRouter struct {
	rv      *rendezvous.Rendezvous
	indexOf map[string]int
}

func newShardRouter(n int) *shardRouter {
	labels := make([]string, n)
	indexOf := make(map[string]int, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
		indexOf[labels[i]] = i
	}
	return &shardRouter{
		rv:      rendezvous.New(labels, xxhash.Sum64String),
		indexOf: indexOf,
	}
}

func (r *shardRouter) shardFor(keyStr string) int {
	return r.indexOf[r.rv.Get(keyStr)]
}

func shardCountOrDefault(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func perShardCapacity(total, shards int) int {
	return int(math.Ceil(float64(total) / float64(shards)))
}

// ShardedLRU partitions the keyspace across N independent LRU
// sub-caches, each with its own lock, so operations on different
// shards never contend. There is no wrapper-level lock and no
// cross-shard coordination: a hot key in one shard cannot rescue a
// cold key evicted from another.
type ShardedLRU[K Hashable, V any] struct {
	shards []*LRU[K, V]
	router *shardRouter
}

var _ Policy[string, int] = (*ShardedLRU[string, int])(nil)

// NewShardedLRU builds a sharded LRU of shardCount shards (<=0 means
// "use hardware parallelism"), each sized to ceil(totalCapacity/shardCount)
// — so total capacity may slightly exceed totalCapacity when shardCount
// does not evenly divide it.
func NewShardedLRU[K Hashable, V any](totalCapacity, shardCount int) *ShardedLRU[K, V] {
	n := shardCountOrDefault(shardCount)
	per := perShardCapacity(totalCapacity, n)
	shards := make([]*LRU[K, V], n)
	for i := range shards {
		shards[i] = NewLRU[K, V](per)
	}
	return &ShardedLRU[K, V]{shards: shards, router: newShardRouter(n)}
}

func (s *ShardedLRU[K, V]) shardOf(key K) *LRU[K, V] {
	return s.shards[s.router.shardFor(keyString(key))]
}

func (s *ShardedLRU[K, V]) Put(key K, value V)   { s.shardOf(key).Put(key, value) }
func (s *ShardedLRU[K, V]) Get(key K) (V, bool)  { return s.shardOf(key).Get(key) }
func (s *ShardedLRU[K, V]) GetOrZero(key K) V    { return s.shardOf(key).GetOrZero(key) }
func (s *ShardedLRU[K, V]) Remove(key K) bool    { return s.shardOf(key).Remove(key) }

func (s *ShardedLRU[K, V]) Purge() {
	for _, shard := range s.shards {
		shard.Purge()
	}
}

func (s *ShardedLRU[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Observe registers fn on every shard, so it fires for events on any
// key regardless of which shard routes it.
func (s *ShardedLRU[K, V]) Observe(fn Observer[K, V]) {
	for _, shard := range s.shards {
		shard.Observe(fn)
	}
}

// ShardedLFU is the same partitioning scheme as ShardedLRU, over LFU
// sub-caches; maxAverage (if given) applies independently to every shard.
type ShardedLFU[K Hashable, V any] struct {
	shards []*LFU[K, V]
	router *shardRouter
}

var _ Policy[string, int] = (*ShardedLFU[string, int])(nil)

func NewShardedLFU[K Hashable, V any](totalCapacity, shardCount int, maxAverage ...int) *ShardedLFU[K, V] {
	n := shardCountOrDefault(shardCount)
	per := perShardCapacity(totalCapacity, n)
	shards := make([]*LFU[K, V], n)
	for i := range shards {
		shards[i] = NewLFU[K, V](per, maxAverage...)
	}
	return &ShardedLFU[K, V]{shards: shards, router: newShardRouter(n)}
}

func (s *ShardedLFU[K, V]) shardOf(key K) *LFU[K, V] {
	return s.shards[s.router.shardFor(keyString(key))]
}

func (s *ShardedLFU[K, V]) Put(key K, value V)  { s.shardOf(key).Put(key, value) }
func (s *ShardedLFU[K, V]) Get(key K) (V, bool) { return s.shardOf(key).Get(key) }
func (s *ShardedLFU[K, V]) GetOrZero(key K) V   { return s.shardOf(key).GetOrZero(key) }
func (s *ShardedLFU[K, V]) Remove(key K) bool   { return s.shardOf(key).Remove(key) }

func (s *ShardedLFU[K, V]) Purge() {
	for _, shard := range s.shards {
		shard.Purge()
	}
}

func (s *ShardedLFU[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Observe registers fn on every shard, so it fires for events on any
// key regardless of which shard routes it.
func (s *ShardedLFU[K, V]) Observe(fn Observer[K, V]) {
	for _, shard := range s.shards {
		shard.Observe(fn)
	}
}

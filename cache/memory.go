package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/jonwraymond/memocache/observe"
)

// Compute operation names used in spans, metrics and logs.
const (
	OpComputeAndSet      = "compute_and_set"
	OpComputeIfNotExists = "compute_if_not_exists"
	OpComputeIfNotValue  = "compute_if_not_value"
)

// Cache is a bounded in-memory LRU cache.
//
// The entry table and the access-order queue live in one simplelru.LRU and
// always change together under mu, so every stored key appears exactly once
// in the recency order and Len() never exceeds Cap().
type Cache[V any] struct {
	name       string
	capacity   int
	equal      EqualFunc[V]
	logger     observe.Logger
	middleware *observe.Middleware

	mu      sync.Mutex
	entries *simplelru.LRU[string, V]

	// Mirrors readable without mu, for Inspector.
	size     atomic.Int64
	inTxn    atomic.Bool
	txnStart atomic.Int64
}

// New creates a cache holding at most capacity entries.
// Returns ErrInvalidCapacity if capacity is not positive.
func New[V comparable](capacity int, opts ...Option) (*Cache[V], error) {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	return NewWithConfig[V](cfg, opts...)
}

// NewWithConfig creates a cache from cfg. Values are compared with ==.
func NewWithConfig[V comparable](cfg Config, opts ...Option) (*Cache[V], error) {
	return NewWithEqual[V](cfg, func(a, b V) bool { return a == b }, opts...)
}

// NewWithEqual creates a cache for values of any type, including slices and
// maps. ComputeIfNotValue compares the stored value with its target using
// equal. Returns ErrNilFunc if equal is nil.
func NewWithEqual[V any](cfg Config, equal EqualFunc[V], opts ...Option) (*Cache[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if equal == nil {
		return nil, ErrNilFunc
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observe.NopLogger()
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}

	entries, err := simplelru.NewLRU[string, V](cfg.Capacity, nil)
	if err != nil {
		return nil, err
	}

	return &Cache[V]{
		name:       cfg.Name,
		capacity:   cfg.Capacity,
		equal:      equal,
		logger:     o.logger.WithCache(observe.CacheMeta{Name: cfg.Name}),
		middleware: o.middleware,
		entries:    entries,
	}, nil
}

// Name returns the configured cache name.
func (c *Cache[V]) Name() string {
	return c.name
}

// Cap returns the maximum number of entries.
func (c *Cache[V]) Cap() int {
	return c.capacity
}

// Len returns the number of live entries. It does not take the lock.
func (c *Cache[V]) Len() int {
	return int(c.size.Load())
}

// Keys returns the live keys from least to most recently used.
// It does not change recency.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Keys()
}

// Get retrieves a value from the cache. Returns (zero, false) on miss.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// GetOrDefault retrieves a value from the cache, or def on miss.
func (c *Cache[V]) GetOrDefault(ctx context.Context, key string, def V) V {
	if v, ok := c.Get(ctx, key); ok {
		return v
	}
	return def
}

// Set stores value for key and returns it. Inserting a new key into a full
// cache evicts the least recently used key.
func (c *Cache[V]) Set(ctx context.Context, key string, value V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(ctx, key, value)
}

// Contains reports whether key holds a value. A hit counts as an access.
func (c *Cache[V]) Contains(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

// ComputeAndSet runs fn under the lock and stores its result for key.
func (c *Cache[V]) ComputeAndSet(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compute(ctx, OpComputeAndSet, key, fn)
}

// ComputeIfNotExists returns the stored value for key, or runs fn under the
// lock and stores its result when key is absent.
func (c *Cache[V]) ComputeIfNotExists(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computeIfNotExists(ctx, key, fn)
}

// ComputeIfNotValue runs fn under the lock and stores its result unless key
// already holds *target. An absent key is always computed. A nil target
// behaves as ComputeIfNotExists.
func (c *Cache[V]) ComputeIfNotValue(ctx context.Context, key string, fn ComputeFunc[V], target *V) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computeIfNotValue(ctx, key, fn, target)
}

// The helpers below require c.mu to be held.

func (c *Cache[V]) get(key string) (V, bool) {
	return c.entries.Get(key)
}

func (c *Cache[V]) set(ctx context.Context, key string, value V) V {
	if !c.entries.Contains(key) && c.entries.Len() >= c.capacity {
		if oldest, _, ok := c.entries.GetOldest(); ok {
			c.logger.Debug(ctx, "cache entry evicted",
				observe.Field{Key: "key", Value: oldest},
				observe.Field{Key: "capacity", Value: c.capacity},
			)
		}
	}
	c.entries.Add(key, value)
	c.size.Store(int64(c.entries.Len()))
	return value
}

func (c *Cache[V]) compute(ctx context.Context, op, key string, fn ComputeFunc[V]) (V, error) {
	var zero V
	if fn == nil {
		return zero, ErrNilFunc
	}
	if c.middleware != nil {
		fn = observe.WrapCompute[V](c.middleware, observe.CacheMeta{Name: c.name, Op: op, Key: key}, fn)
	}

	value, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	return c.set(ctx, key, value), nil
}

func (c *Cache[V]) computeIfNotExists(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	if fn == nil {
		var zero V
		return zero, ErrNilFunc
	}
	if current, ok := c.get(key); ok {
		return current, nil
	}
	return c.compute(ctx, OpComputeIfNotExists, key, fn)
}

func (c *Cache[V]) computeIfNotValue(ctx context.Context, key string, fn ComputeFunc[V], target *V) (V, error) {
	if target == nil {
		return c.computeIfNotExists(ctx, key, fn)
	}
	if fn == nil {
		var zero V
		return zero, ErrNilFunc
	}
	// Absent and "equals target" are distinct: an absent key is computed.
	if current, ok := c.get(key); ok && c.equal(current, *target) {
		return current, nil
	}
	return c.compute(ctx, OpComputeIfNotValue, key, fn)
}

// Ensure Cache implements Store and Inspector
var (
	_ Store[int] = (*Cache[int])(nil)
	_ Inspector  = (*Cache[int])(nil)
)

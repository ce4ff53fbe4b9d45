package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/memocache/observe"
)

// Txn is a transaction on a Cache. It holds the cache lock from Begin until
// End, so a sequence of operations issued on it is observed by other callers
// as a single step.
//
// A Txn must only be used by the goroutine that began it. After End, its
// methods take the lock per call like the Cache methods do.
type Txn[V any] struct {
	c     *Cache[V]
	ended atomic.Bool
}

// Begin acquires the cache lock and starts a transaction. It blocks until the
// lock is free. Every Begin must be paired with exactly one End.
func (c *Cache[V]) Begin(ctx context.Context) *Txn[V] {
	c.mu.Lock()
	c.txnStart.Store(time.Now().UnixNano())
	c.inTxn.Store(true)
	c.logger.Debug(ctx, "transaction started")
	return &Txn[V]{c: c}
}

// Transaction runs fn inside a transaction. The lock is released on every
// exit path, including when fn panics.
func (c *Cache[V]) Transaction(ctx context.Context, fn func(tx *Txn[V]) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	tx := c.Begin(ctx)
	defer func() {
		_ = tx.End()
	}()
	return fn(tx)
}

// InTransaction reports whether a transaction currently holds the lock.
func (c *Cache[V]) InTransaction() bool {
	return c.inTxn.Load()
}

// TransactionAge returns how long the current transaction has held the lock,
// or zero when no transaction is open.
func (c *Cache[V]) TransactionAge() time.Duration {
	if !c.inTxn.Load() {
		return 0
	}
	start := c.txnStart.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// End finishes the transaction and releases the lock.
// Returns ErrTxnClosed, without touching the lock, if it was already ended.
func (tx *Txn[V]) End() error {
	if !tx.ended.CompareAndSwap(false, true) {
		tx.c.logger.Warn(context.Background(), "transaction ended twice")
		return ErrTxnClosed
	}
	age := tx.c.TransactionAge()
	tx.c.inTxn.Store(false)
	tx.c.txnStart.Store(0)
	tx.c.mu.Unlock()
	tx.c.logger.Debug(context.Background(), "transaction ended",
		observe.Field{Key: "duration_ms", Value: float64(age.Milliseconds())},
	)
	return nil
}

// Active reports whether the transaction still holds the lock.
func (tx *Txn[V]) Active() bool {
	return !tx.ended.Load()
}

// Len returns the number of live entries.
func (tx *Txn[V]) Len() int {
	return tx.c.Len()
}

// Keys returns the live keys from least to most recently used.
func (tx *Txn[V]) Keys() []string {
	if !tx.Active() {
		return tx.c.Keys()
	}
	return tx.c.entries.Keys()
}

// Get retrieves a value from the cache. Returns (zero, false) on miss.
func (tx *Txn[V]) Get(ctx context.Context, key string) (V, bool) {
	if !tx.Active() {
		return tx.c.Get(ctx, key)
	}
	return tx.c.get(key)
}

// GetOrDefault retrieves a value from the cache, or def on miss.
func (tx *Txn[V]) GetOrDefault(ctx context.Context, key string, def V) V {
	if v, ok := tx.Get(ctx, key); ok {
		return v
	}
	return def
}

// Set stores value for key and returns it.
func (tx *Txn[V]) Set(ctx context.Context, key string, value V) V {
	if !tx.Active() {
		return tx.c.Set(ctx, key, value)
	}
	return tx.c.set(ctx, key, value)
}

// Contains reports whether key holds a value.
func (tx *Txn[V]) Contains(ctx context.Context, key string) bool {
	_, ok := tx.Get(ctx, key)
	return ok
}

// ComputeAndSet runs fn and stores its result for key.
func (tx *Txn[V]) ComputeAndSet(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	if !tx.Active() {
		return tx.c.ComputeAndSet(ctx, key, fn)
	}
	return tx.c.compute(ctx, OpComputeAndSet, key, fn)
}

// ComputeIfNotExists runs fn and stores its result only when key is absent.
func (tx *Txn[V]) ComputeIfNotExists(ctx context.Context, key string, fn ComputeFunc[V]) (V, error) {
	if !tx.Active() {
		return tx.c.ComputeIfNotExists(ctx, key, fn)
	}
	return tx.c.computeIfNotExists(ctx, key, fn)
}

// ComputeIfNotValue runs fn and stores its result unless key already holds
// *target.
func (tx *Txn[V]) ComputeIfNotValue(ctx context.Context, key string, fn ComputeFunc[V], target *V) (V, error) {
	if !tx.Active() {
		return tx.c.ComputeIfNotValue(ctx, key, fn, target)
	}
	return tx.c.computeIfNotValue(ctx, key, fn, target)
}

// Ensure Txn implements Store
var _ Store[int] = (*Txn[int])(nil)

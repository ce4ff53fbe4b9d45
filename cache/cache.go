package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache        = errors.New("cache: cache is nil")
	ErrNilFunc         = errors.New("cache: compute function is nil")
	ErrInvalidKey      = errors.New("cache: key is invalid")
	ErrKeyTooLong      = errors.New("cache: key exceeds max length")
	ErrInvalidCapacity = errors.New("cache: capacity must be positive")
	ErrTxnClosed       = errors.New("cache: transaction already ended")
)

// ComputeFunc produces a value for a key. A non-nil error is returned to the
// caller unchanged and nothing is stored.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// EqualFunc reports whether two values are equal. ComputeIfNotValue uses it
// to compare the stored value with its target.
type EqualFunc[V any] func(a, b V) bool

// Store is the operation surface shared by Cache and Txn.
//
// Contract:
// - Concurrency: Cache methods are safe for concurrent use; Txn methods belong
// to the goroutine that began the transaction.
// - Errors: lookups never error; a miss is reported as (zero, false).
// - Recency: every successful read or write marks the key most recently used.
type Store[V any] interface {
	// Get returns the value for key. Returns (zero, false) on miss.
	Get(ctx context.Context, key string) (V, bool)

	// GetOrDefault returns the value for key, or def on miss.
	GetOrDefault(ctx context.Context, key string, def V) V

	// Set stores value for key unconditionally and returns it.
	Set(ctx context.Context, key string, value V) V

	// Contains reports whether key holds a value.
	Contains(ctx context.Context, key string) bool

	// ComputeAndSet always runs fn and stores its result.
	ComputeAndSet(ctx context.Context, key string, fn ComputeFunc[V]) (V, error)

	// ComputeIfNotExists runs fn and stores its result only when key is absent.
	ComputeIfNotExists(ctx context.Context, key string, fn ComputeFunc[V]) (V, error)

	// ComputeIfNotValue runs fn and stores its result when key is absent or
	// holds a value different from *target. A nil target behaves as
	// ComputeIfNotExists.
	ComputeIfNotValue(ctx context.Context, key string, fn ComputeFunc[V], target *V) (V, error)
}

// Inspector exposes the read-only view of a cache used by health checks.
// Implementations must not block behind an open transaction.
type Inspector interface {
	Name() string
	Len() int
	Cap() int
	TransactionAge() time.Duration
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

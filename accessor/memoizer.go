package accessor

import (
	"context"
	"fmt"

	"github.com/jonwraymond/memocache/cache"
)

// Memoizer caches the results of a function of arbitrary input. Keys are
// derived from the input with a cache.Keyer under a fixed namespace.
type Memoizer[V any] struct {
	store     cache.Store[V]
	keyer     cache.Keyer
	namespace string
}

// NewMemoizer creates a Memoizer. If keyer is nil, cache.DefaultKeyer is used.
func NewMemoizer[V any](s cache.Store[V], keyer cache.Keyer, namespace string) (*Memoizer[V], error) {
	if s == nil {
		return nil, cache.ErrNilCache
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Memoizer[V]{store: s, keyer: keyer, namespace: namespace}, nil
}

// Key returns the cache key Do would use for input.
func (m *Memoizer[V]) Key(input any) (string, error) {
	key, err := m.keyer.Key(m.namespace, input)
	if err != nil {
		return "", err
	}
	if err := cache.ValidateKey(key); err != nil {
		return "", fmt.Errorf("accessor: derived key rejected: %w", err)
	}
	return key, nil
}

// Do returns the cached result for input, running fn at most once per key
// while the entry stays cached. Errors from fn are returned unchanged and
// are not cached.
func (m *Memoizer[V]) Do(ctx context.Context, input any, fn cache.ComputeFunc[V]) (V, error) {
	key, err := m.Key(input)
	if err != nil {
		var zero V
		return zero, err
	}
	return m.store.ComputeIfNotExists(ctx, key, fn)
}

// Refresh recomputes the result for input unconditionally.
func (m *Memoizer[V]) Refresh(ctx context.Context, input any, fn cache.ComputeFunc[V]) (V, error) {
	key, err := m.Key(input)
	if err != nil {
		var zero V
		return zero, err
	}
	return m.store.ComputeAndSet(ctx, key, fn)
}

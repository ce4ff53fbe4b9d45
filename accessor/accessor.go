package accessor

import (
	"context"

	"github.com/jonwraymond/memocache/cache"
)

// Func computes or fetches the value for key.
type Func[V any] func(ctx context.Context, key string) (V, error)

// TargetFunc computes the value for key unless it already equals target.
// A nil target falls back to the target bound at construction.
type TargetFunc[V any] func(ctx context.Context, key string, target *V) (V, error)

// ComputeAndSet binds fn to s.ComputeAndSet.
func ComputeAndSet[V any](s cache.Store[V], fn cache.ComputeFunc[V]) Func[V] {
	return func(ctx context.Context, key string) (V, error) {
		return s.ComputeAndSet(ctx, key, fn)
	}
}

// ComputeIfNotExists binds fn to s.ComputeIfNotExists.
func ComputeIfNotExists[V any](s cache.Store[V], fn cache.ComputeFunc[V]) Func[V] {
	return func(ctx context.Context, key string) (V, error) {
		return s.ComputeIfNotExists(ctx, key, fn)
	}
}

// ComputeIfNotValue binds fn and an optional default target to
// s.ComputeIfNotValue. The target passed at call time takes precedence over
// defaultTarget; when both are nil the call behaves as ComputeIfNotExists.
func ComputeIfNotValue[V any](s cache.Store[V], fn cache.ComputeFunc[V], defaultTarget *V) TargetFunc[V] {
	return func(ctx context.Context, key string, target *V) (V, error) {
		if target == nil {
			target = defaultTarget
		}
		return s.ComputeIfNotValue(ctx, key, fn, target)
	}
}

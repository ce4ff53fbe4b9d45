package accessor_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/memocache/accessor"
	"github.com/jonwraymond/memocache/cache"
)

func ExampleComputeIfNotExists() {
	c, _ := cache.New[string](16)
	ctx := context.Background()

	lookups := 0
	profile := accessor.ComputeIfNotExists[string](c, func(context.Context) (string, error) {
		lookups++
		return "alice", nil
	})

	a, _ := profile(ctx, "user:1")
	b, _ := profile(ctx, "user:1")
	fmt.Println(a, b, "lookups:", lookups)
	// Output:
	// alice alice lookups: 1
}

func ExampleComputeIfNotValue() {
	c, _ := cache.New[int](16)
	ctx := context.Background()

	n := 0
	bump := func(context.Context) (int, error) {
		n++
		return n, nil
	}
	stale := 0
	refresh := accessor.ComputeIfNotValue[int](c, bump, &stale)

	c.Set(ctx, "counter", 0)
	v, _ := refresh(ctx, "counter", nil) // equals default target 0: recompute skipped
	fmt.Println(v)
	other := 5
	v, _ = refresh(ctx, "counter", &other) // 0 != 5: recomputed
	fmt.Println(v)
	// Output:
	// 0
	// 1
}

func ExampleMemoizer_Do() {
	c, _ := cache.New[int](16)
	ctx := context.Background()
	m, _ := accessor.NewMemoizer[int](c, nil, "sum")

	calls := 0
	sum := func(xs ...int) cache.ComputeFunc[int] {
		return func(context.Context) (int, error) {
			calls++
			total := 0
			for _, x := range xs {
				total += x
			}
			return total, nil
		}
	}

	a, _ := m.Do(ctx, []any{1, 2, 3}, sum(1, 2, 3))
	b, _ := m.Do(ctx, []any{1, 2, 3}, sum(1, 2, 3))
	fmt.Println(a, b, "calls:", calls)
	// Output:
	// 6 6 calls: 1
}

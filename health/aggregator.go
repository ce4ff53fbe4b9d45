package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds each check. Checks run in parallel, so it also
	// bounds CheckAll.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxParallel limits concurrently running checks. Zero means unlimited.
	MaxParallel int
}

// Aggregator combines multiple health checkers into a single composite check.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds or replaces a checker under name.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the checker registered under name.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, checker), nil
}

// CheckAll runs every registered check concurrently and returns the results
// keyed by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(checkers))
		g       errgroup.Group
	)
	if a.config.MaxParallel > 0 {
		g.SetLimit(a.config.MaxParallel)
	}

	for name, checker := range checkers {
		name, checker := name, checker
		g.Go(func() error {
			result := runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// OverallStatus returns the worst status among results, or StatusHealthy
// when there are none.
func OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		if r.Status > overall {
			overall = r.Status
		}
	}
	return overall
}

// runCheck runs checker, giving up with ErrCheckTimeout once ctx is done.
func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)

	go func() {
		done <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}

// Checker returns the aggregator as a single Checker named "aggregate".
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", func(ctx context.Context) Result {
		results := a.CheckAll(ctx)
		details := make(map[string]any, len(results))
		for name, r := range results {
			details[name] = r.Status.String()
		}

		var result Result
		switch OverallStatus(results) {
		case StatusHealthy:
			result = Healthy("all checks passed")
		case StatusDegraded:
			result = Degraded("some checks degraded")
		default:
			result = Unhealthy("some checks failed", ErrCheckFailed)
		}
		return result.WithDetails(details)
	})
}

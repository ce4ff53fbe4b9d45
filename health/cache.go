package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/memocache/cache"
)

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// StuckTxnThreshold is how long a transaction may hold the lock before
	// the cache is reported unhealthy.
	// Default: 30 seconds
	StuckTxnThreshold time.Duration

	// FullThreshold is the fill ratio (Len/Cap) at which the cache is
	// reported degraded. Zero, or any value outside (0, 1], disables the
	// check: a full LRU is its normal steady state.
	// Default: 0 (disabled)
	FullThreshold float64
}

// CacheChecker checks one cache.
type CacheChecker struct {
	cache  cache.Inspector
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker for c.
func NewCacheChecker(c cache.Inspector, config CacheCheckerConfig) *CacheChecker {
	if config.StuckTxnThreshold <= 0 {
		config.StuckTxnThreshold = 30 * time.Second
	}
	if config.FullThreshold < 0 || config.FullThreshold > 1 {
		config.FullThreshold = 0
	}
	return &CacheChecker{cache: c, config: config}
}

// Name returns "cache:<cache name>".
func (c *CacheChecker) Name() string {
	return "cache:" + c.cache.Name()
}

// Check reports the cache status. It never blocks on the cache lock.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	size, capacity := c.cache.Len(), c.cache.Cap()
	if capacity <= 0 {
		return Unhealthy("cache reports no capacity", ErrCheckFailed)
	}
	age := c.cache.TransactionAge()
	fill := float64(size) / float64(capacity)

	details := map[string]any{
		"len":        size,
		"cap":        capacity,
		"fill_ratio": fill,
		"txn_age_ms": age.Milliseconds(),
	}

	switch {
	case age >= c.config.StuckTxnThreshold:
		return Unhealthy(
			fmt.Sprintf("transaction has held the lock for %s", age.Round(time.Millisecond)),
			ErrStuckTransaction,
		).WithDetails(details)
	case c.config.FullThreshold > 0 && fill >= c.config.FullThreshold:
		return Degraded(
			fmt.Sprintf("cache at %.0f%% of capacity, new keys evict", fill*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("cache at %.0f%% of capacity", fill*100),
		).WithDetails(details)
	}
}

var _ Checker = (*CacheChecker)(nil)

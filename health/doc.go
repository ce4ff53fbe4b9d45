// Package health reports the health of live caches.
//
// A CacheChecker watches one cache through its cache.Inspector view and
// reports:
//
//   - Unhealthy when a transaction has held the cache lock longer than
//     StuckTxnThreshold. Every other caller is blocked behind it.
//   - Degraded when FullThreshold is set and the cache is at or above that
//     fraction of its capacity. It is off by default.
//   - Healthy otherwise.
//
// Checkers never take the cache lock, so a probe answers even while a
// transaction is stuck.
//
// # Aggregation and HTTP
//
//	agg := health.NewAggregator()
//	agg.Register("sessions", health.NewCacheChecker(sessions, health.CacheCheckerConfig{}))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health

// Package accessor binds compute functions to a cache ahead of time.
//
// Each adapter is plain partial application over one of the cache compute
// protocols and carries no behavior of its own:
//
//	load := accessor.ComputeIfNotExists(c, fetchProfile)
//	profile, err := load(ctx, "user:42")
//
// Adapters accept any cache.Store, so the same bound function works on a
// *cache.Cache and on a *cache.Txn inside a transaction.
//
// Memoizer goes one step further and derives the key from the function input
// with a cache.Keyer.
package accessor

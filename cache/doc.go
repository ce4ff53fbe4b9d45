// Package cache provides a bounded, concurrency-safe memoization cache.
//
// A Cache holds at most Cap() entries keyed by string and evicts the least
// recently used key when a new key is inserted into a full cache. Reads and
// writes both count as an access.
//
// Every operation runs behind a single mutex. Callers that need several
// operations to appear atomic take the lock once with Begin (or the scoped
// Transaction helper) and issue the operations on the returned Txn, which
// already holds the lock:
//
//	err := c.Transaction(ctx, func(tx *cache.Txn[int]) error {
//	    tx.Set(ctx, "a", 1)
//	    tx.Set(ctx, "b", 2)
//	    return nil
//	})
//
// Three compute protocols fill the cache under the lock so that a value is not
// produced twice by racing callers:
//
//   - ComputeAndSet always runs the function and stores the result.
//   - ComputeIfNotExists runs the function only when the key is absent.
//   - ComputeIfNotValue runs the function when the key is absent or its value
//     differs from a target.
//
// The Txn lock is not reentrant. A goroutine holding a Txn must not call
// methods on the Cache itself, and compute functions must not call back into
// the cache they are filling. A Txn that is never ended blocks every other
// caller indefinitely.
package cache

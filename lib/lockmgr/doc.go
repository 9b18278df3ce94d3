// Package lockmgr provides lock handles on top of a sharedlock.ISharedLockAdapter.
//
// The lock manager has no internal state besides its configuration. All lock
// state lives in the adapter, so it is safe to create several managers on the
// same adapter, or even a new one for every operation. As long as the same
// adapter is used, all locks work as expected.
//
// Core Functionality:
//   - Handles that remember their key and a unique lock id (uuid v4)
//   - Non-blocking writer and reader acquisition with a default TTL
//   - Blocking acquisition that retries until success or context cancellation
//   - Refresh and release operations bound to the handle's id
//
// Blocking Acquisition:
//
//	Adapters never queue waiters. The blocking variants poll the non-blocking
//	operation every retry interval, so waiting callers are not served in any
//	particular order.
//
// Usage Example:
//
//	mgr := lockmgr.NewSharedLockManager(adapter, lockmgr.WithDefaultTTL(30*time.Second))
//
//	l := mgr.Create("resource:123", 4)
//	if err := l.AcquireReaderBlocking(ctx); err != nil {
//	    // context cancelled or adapter failure
//	}
//	defer l.ReleaseReader()
//
// Security Considerations:
//
//	Lock ids are random, which protects against accidental lock stealing.
//	They are not secrets: any client with access to the adapter may force
//	release a lock.
package lockmgr

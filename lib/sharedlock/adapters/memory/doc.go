// Package memory provides an in-memory implementation of the
// sharedlock.ISharedLockAdapter interface.
//
// All locks live in a single concurrent map keyed by resource. Each operation
// updates the entry of its key atomically, so operations on different keys
// never block each other. Expirations are scheduled on a timer.IScheduler and
// additionally checked lazily whenever a key is touched, so a holder whose TTL
// has passed is never reported or honoured, even if its timer has not fired yet.
//
// Usage:
//
//	adapter := memory.NewMemorySharedLockAdapter(nil) // system clock
//	defer adapter.Close()
//
//	ok, err := adapter.AcquireWriter("orders", "worker-1", 30*time.Second)
package memory

// Package testing provides a conformance suite for implementations of the
// lock.ILockAdapter interface.
//
// Example usage:
//
//	locktesting.RunLockAdapterTests(t, "MyLock", func() (lock.ILockAdapter, func(time.Duration)) {
//		clock := timer.NewManualScheduler(time.Now())
//		return memory.NewMemoryLockAdapter(clock), clock.Advance
//	})
package testing

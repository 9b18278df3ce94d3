// Package testing provides standardised tests and benchmarks for
// implementations of the sharedlock.ISharedLockAdapter interface.
//
// The package contains:
//   - testing: a conformance suite for the reader/writer lock contract
//   - benchmark: throughput tests for the common lock operations
//
// The suite needs to move the adapter's clock forward to test expirations.
// In-memory adapters built on a timer.ManualScheduler pass its Advance method,
// adapters on the system clock pass time.Sleep.
//
// Example usage:
//
//	factory := func() (sharedlock.ISharedLockAdapter, func(time.Duration)) {
//		clock := timer.NewManualScheduler(time.Now())
//		return memory.NewMemorySharedLockAdapter(clock), clock.Advance
//	}
//
//	sltesting.RunSharedLockAdapterTests(t, "MyAdapter", factory)
//	sltesting.RunSharedLockAdapterBenchmarks(b, "MyAdapter", factory)
package testing

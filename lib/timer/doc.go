// Package timer provides the expiring timer registry used by the in-memory lock
// adapters: a clock plus "run this callback after d" with cancellation.
//
// Two implementations exist:
//
//   - NewSystemScheduler: the wall clock and time.AfterFunc. Callbacks run in
//     their own goroutine.
//
//   - NewManualScheduler: a clock that only moves when Advance is called.
//     Pending timers are ordered in a util.MapHeap by deadline, so Stop is a
//     keyed removal. Callbacks run synchronously inside Advance.
//
// Adapters take an IScheduler at construction time, so tests can swap the
// wall clock for a manual one and assert expiration without sleeping:
//
//	clock := timer.NewManualScheduler(time.Now())
//	adapter := memory.NewMemorySharedLockAdapter(clock)
//
//	adapter.AcquireWriter("resource", "owner", 10*time.Millisecond)
//	clock.Advance(15 * time.Millisecond) // fires the expiration callback
package timer

package timer

import "time"

// ITimer is a handle to a scheduled callback.
type ITimer interface {
	// Stop cancels the timer. It returns true if the call stopped the timer,
	// false if the timer already fired or was stopped before.
	// Stop does not wait for a callback that already started to finish.
	Stop() (stopped bool)
}

// IScheduler schedules callbacks after a duration and provides the clock
// that goes with them. Implementations must be safe for concurrent use.
type IScheduler interface {
	// Now returns the current time of the scheduler's clock.
	Now() (now time.Time)

	// AfterFunc schedules f to be called in its own goroutine (or, for
	// manual schedulers, from Advance) once d has elapsed.
	// A non-positive d fires at the next opportunity.
	AfterFunc(d time.Duration, f func()) (t ITimer)
}

package timer

import "time"

// NewSystemScheduler returns a scheduler backed by the wall clock and time.AfterFunc
func NewSystemScheduler() IScheduler {
	return systemScheduler{}
}

type systemScheduler struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see timer.IScheduler)
// --------------------------------------------------------------------------

func (systemScheduler) Now() time.Time {
	return time.Now()
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) ITimer {
	return time.AfterFunc(d, f)
}

package memory

import (
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	locktesting "github.com/ValentinKolb/dLock/lib/lock/testing"
	"github.com/ValentinKolb/dLock/lib/timer"
)

func Test(t *testing.T) {
	locktesting.RunLockAdapterTests(t, "MemoryLock", func() (lock.ILockAdapter, func(time.Duration)) {
		clock := timer.NewManualScheduler(time.Now())
		return NewMemoryLockAdapter(clock), clock.Advance
	})
}

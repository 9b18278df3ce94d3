package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
	sltesting "github.com/ValentinKolb/dLock/lib/sharedlock/testing"
	"github.com/ValentinKolb/dLock/lib/timer"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func factory() (sharedlock.ISharedLockAdapter, func(time.Duration)) {
	clock := timer.NewManualScheduler(start)
	return NewMemorySharedLockAdapter(clock), clock.Advance
}

func Test(t *testing.T) {
	sltesting.RunSharedLockAdapterTests(t, "MemorySharedLock", factory)
}

func Benchmark(b *testing.B) {
	sltesting.RunSharedLockAdapterBenchmarks(b, "MemorySharedLock", factory)
}

// frozenScheduler never fires its timers, so only the lazy sweep can expire locks
type frozenScheduler struct {
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (s *frozenScheduler) Now() time.Time { return s.now }

func (s *frozenScheduler) AfterFunc(time.Duration, func()) timer.ITimer { return noopTimer{} }

// bogusEntry is neither a writer lock nor a reader semaphore
type bogusEntry struct{}

func (bogusEntry) isEntry()    {}
func (bogusEntry) stopTimers() {}

func TestLenCleanup(t *testing.T) {
	clock := timer.NewManualScheduler(start)
	adapter := NewMemorySharedLockAdapter(clock)
	defer adapter.Close()

	adapter.AcquireWriter("w", "A", sharedlock.NoTTL)
	adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R", Limit: 2, TTL: time.Second})
	if adapter.Len() != 2 {
		t.Fatalf("Expected 2 keys, got %d", adapter.Len())
	}

	adapter.ReleaseWriter("w", "A")
	if adapter.Len() != 1 {
		t.Errorf("Expected 1 key after release, got %d", adapter.Len())
	}

	clock.Advance(time.Second)
	if adapter.Len() != 0 {
		t.Errorf("Expected the expired semaphore to be removed, got %d keys", adapter.Len())
	}

	// failed and rejected acquisitions leave nothing behind
	adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R", Limit: 0})
	adapter.ReleaseWriter("missing", "A")
	adapter.GetState("missing")
	if adapter.Len() != 0 {
		t.Errorf("Expected no keys, got %d", adapter.Len())
	}
}

func TestExactExpiration(t *testing.T) {
	clock := timer.NewManualScheduler(start)
	adapter := NewMemorySharedLockAdapter(clock)
	defer adapter.Close()

	adapter.AcquireWriter("key", "A", 5*time.Second)

	state, _ := adapter.GetState("key")
	if state == nil || state.Writer == nil || state.Writer.Expiration == nil {
		t.Fatalf("Expected an expiring writer lock, got %+v", state)
	}
	if want := start.Add(5 * time.Second); !state.Writer.Expiration.Equal(want) {
		t.Errorf("Expected expiration %v, got %v", want, *state.Writer.Expiration)
	}

	clock.Advance(5*time.Second - time.Nanosecond)
	if state, _ := adapter.GetState("key"); state == nil {
		t.Fatal("Expected the lock to be held just before its expiration")
	}

	// a lock is expired once its expiration is reached
	clock.Advance(time.Nanosecond)
	if state, _ := adapter.GetState("key"); state != nil {
		t.Errorf("Expected the lock to be expired at its expiration, got %+v", state)
	}
}

func TestRefreshUpdatesReportedExpiration(t *testing.T) {
	clock := timer.NewManualScheduler(start)
	adapter := NewMemorySharedLockAdapter(clock)
	defer adapter.Close()

	adapter.AcquireWriter("key", "A", time.Second)
	clock.Advance(500 * time.Millisecond)
	if ok, _ := adapter.RefreshWriter("key", "A", 10*time.Second); !ok {
		t.Fatal("Expected refresh to succeed")
	}

	state, _ := adapter.GetState("key")
	want := start.Add(500*time.Millisecond + 10*time.Second)
	if state == nil || state.Writer.Expiration == nil || !state.Writer.Expiration.Equal(want) {
		t.Errorf("Expected expiration %v, got %+v", want, state)
	}
}

func TestTimersAreStopped(t *testing.T) {
	clock := timer.NewManualScheduler(start)
	adapter := NewMemorySharedLockAdapter(clock)

	adapter.AcquireWriter("w", "A", time.Minute)
	adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R1", Limit: 3, TTL: time.Minute})
	adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R2", Limit: 3, TTL: time.Minute})
	if clock.Pending() != 3 {
		t.Fatalf("Expected 3 pending timers, got %d", clock.Pending())
	}

	adapter.RefreshWriter("w", "A", 2*time.Minute)
	if clock.Pending() != 3 {
		t.Errorf("Expected refresh to replace the timer, got %d pending", clock.Pending())
	}

	adapter.ReleaseReader("r", "R1")
	if clock.Pending() != 2 {
		t.Errorf("Expected 2 pending timers after release, got %d", clock.Pending())
	}

	adapter.ForceReleaseWriter("w")
	if clock.Pending() != 1 {
		t.Errorf("Expected 1 pending timer after force release, got %d", clock.Pending())
	}

	adapter.AcquireWriter("w2", "B", time.Minute)
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no pending timers after close, got %d", clock.Pending())
	}
	if adapter.Len() != 0 {
		t.Errorf("Expected an empty table after close, got %d keys", adapter.Len())
	}
}

func TestLazyExpiration(t *testing.T) {
	clock := &frozenScheduler{now: start}
	adapter := NewMemorySharedLockAdapter(clock)
	defer adapter.Close()

	adapter.AcquireWriter("w", "A", time.Second)
	adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R1", Limit: 1, TTL: time.Second})

	clock.now = start.Add(2 * time.Second)

	if state, err := adapter.GetState("w"); err != nil || state != nil {
		t.Errorf("Expected the expired writer to be swept, got %+v (err=%v)", state, err)
	}
	if ok, _ := adapter.RefreshReader("r", "R1", time.Minute); ok {
		t.Error("Expected refresh of an expired slot to fail")
	}
	if ok, _ := adapter.AcquireReader(sharedlock.AcquireSettings{Key: "r", LockID: "R2", Limit: 1}); !ok {
		t.Error("Expected the slot of the expired reader to be reusable")
	}
	if ok, _ := adapter.AcquireWriter("w", "B", sharedlock.NoTTL); !ok {
		t.Error("Expected the expired writer lock to be free")
	}
}

func TestInvalidState(t *testing.T) {
	adapter := NewMemorySharedLockAdapter(timer.NewManualScheduler(start))
	defer adapter.Close()

	adapter.table.Store("typed-nil", (*writerEntry)(nil))
	adapter.table.Store("bogus", bogusEntry{})

	for _, key := range []string{"typed-nil", "bogus"} {
		if _, err := adapter.GetState(key); !errors.Is(err, sharedlock.ErrInvalidState) {
			t.Errorf("GetState(%s): expected ErrInvalidState, got %v", key, err)
		}
	}
}

func TestSystemClock(t *testing.T) {
	adapter := NewMemorySharedLockAdapter(nil)
	defer adapter.Close()

	if ok, _ := adapter.AcquireWriter("key", "A", 20*time.Millisecond); !ok {
		t.Fatal("Expected acquisition to succeed")
	}

	time.Sleep(100 * time.Millisecond)

	if adapter.Len() != 0 {
		t.Errorf("Expected the timer to remove the lock, got %d keys", adapter.Len())
	}
}

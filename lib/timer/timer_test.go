package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualSchedulerFiresInOrder(t *testing.T) {
	s := NewManualScheduler(epoch)

	var order []int
	s.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })

	s.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("Expected only the first timer to fire, got %v", order)
	}

	s.Advance(15 * time.Millisecond)
	if len(order) != 3 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected timers to fire in deadline order, got %v", order)
	}

	if s.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", s.Pending())
	}

	if got := s.Now(); !got.Equal(epoch.Add(30 * time.Millisecond)) {
		t.Errorf("Expected clock at +30ms, got %s", got.Sub(epoch))
	}
}

func TestManualSchedulerStop(t *testing.T) {
	s := NewManualScheduler(epoch)

	var fired atomic.Bool
	tm := s.AfterFunc(10*time.Millisecond, func() { fired.Store(true) })

	if !tm.Stop() {
		t.Error("Stop on a pending timer should return true")
	}
	if tm.Stop() {
		t.Error("Second Stop should return false")
	}

	s.Advance(time.Second)
	if fired.Load() {
		t.Error("Stopped timer must not fire")
	}
}

func TestManualSchedulerStopAfterFire(t *testing.T) {
	s := NewManualScheduler(epoch)

	tm := s.AfterFunc(time.Millisecond, func() {})
	s.Advance(time.Millisecond)

	if tm.Stop() {
		t.Error("Stop after the timer fired should return false")
	}
}

func TestManualSchedulerNowDuringCallback(t *testing.T) {
	s := NewManualScheduler(epoch)

	var seen time.Time
	s.AfterFunc(10*time.Millisecond, func() { seen = s.Now() })
	s.Advance(time.Second)

	if !seen.Equal(epoch.Add(10 * time.Millisecond)) {
		t.Errorf("Callback should observe its own deadline, got %s", seen.Sub(epoch))
	}
}

func TestManualSchedulerNestedScheduling(t *testing.T) {
	s := NewManualScheduler(epoch)

	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			s.AfterFunc(10*time.Millisecond, tick)
		}
	}
	s.AfterFunc(10*time.Millisecond, tick)

	// all five ticks fall into the advanced window
	s.Advance(50 * time.Millisecond)
	if count != 5 {
		t.Errorf("Expected 5 ticks, got %d", count)
	}
}

func TestManualSchedulerNonPositiveDuration(t *testing.T) {
	s := NewManualScheduler(epoch)

	fired := false
	s.AfterFunc(-time.Second, func() { fired = true })

	s.Advance(0)
	if !fired {
		t.Error("Negative duration should fire on the next Advance")
	}
}

func TestSystemScheduler(t *testing.T) {
	s := NewSystemScheduler()

	done := make(chan struct{})
	s.AfterFunc(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("System timer did not fire")
	}

	tm := s.AfterFunc(time.Hour, func() {})
	if !tm.Stop() {
		t.Error("Stop on a pending system timer should return true")
	}
}
